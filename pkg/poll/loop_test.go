//nolint:funlen,lll // ok for tests
package poll

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/greenflag/pkg/feed"
	"github.com/mpapenbr/greenflag/pkg/model"
	"github.com/mpapenbr/greenflag/testsupport/feeddata"
)

type recordingDisplay struct {
	mu        sync.Mutex
	models    []*model.DisplayModel
	statuses  []string
	noRace    []time.Time
	renderErr error
	// called after each Render/ShowNoRace with the number of calls so far
	onFrame func(n int)
}

func (d *recordingDisplay) ShowNoRace(today time.Time) error {
	d.mu.Lock()
	d.noRace = append(d.noRace, today)
	d.mu.Unlock()
	if d.onFrame != nil {
		d.onFrame(1)
	}
	return nil
}

func (d *recordingDisplay) Render(m *model.DisplayModel) error {
	if d.renderErr != nil {
		return d.renderErr
	}
	d.mu.Lock()
	d.models = append(d.models, m)
	n := len(d.models)
	d.mu.Unlock()
	if d.onFrame != nil {
		d.onFrame(n)
	}
	return nil
}

func (d *recordingDisplay) ShowStatus(msg string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.statuses = append(d.statuses, msg)
	return nil
}

type recordingSink struct {
	races []model.TrackedRace
}

func (s *recordingSink) Publish(_ context.Context, race model.TrackedRace, _ *model.DisplayModel) error {
	s.races = append(s.races, race)
	return errors.New("sink offline")
}

// stopAfter cancels the context once the display received n frames
func stopAfter(n int, cancel context.CancelFunc) func(int) {
	return func(got int) {
		if got >= n {
			cancel()
		}
	}
}

type waits struct {
	mu sync.Mutex
	d  []time.Duration
}

// immediate fires at once until ctx is done, then never
func (w *waits) immediate(ctx context.Context) func(time.Duration) <-chan time.Time {
	return func(d time.Duration) <-chan time.Time {
		w.mu.Lock()
		w.d = append(w.d, d)
		w.mu.Unlock()
		if ctx.Err() != nil {
			return nil
		}
		ch := make(chan time.Time, 1)
		ch <- time.Time{}
		return ch
	}
}

func fixedClock() func() time.Time {
	return func() time.Time { return feeddata.Today() }
}

func TestLoop_EndToEnd(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := feeddata.NewFakeFetcher().Schedules().
		On("live_feed.json", feeddata.LiveFeed).
		On("lap-notes.json", feeddata.LapNotes)
	d := &recordingDisplay{onFrame: stopAfter(1, cancel)}
	w := &waits{}
	lp := NewLoop(feed.NewClient(f), d,
		WithClock(fixedClock()),
		withAfter(w.immediate(ctx)))

	assert.Equal(t, StateIdle, lp.State())
	require.NoError(t, lp.Run(ctx))
	assert.Equal(t, StateStopped, lp.State())

	require.Len(t, d.models, 1)
	m := d.models[0]
	assert.Equal(t, "Truck Race B\nTrack B", m.EventHeader)
	assert.Equal(t, "Lap 11 / 50\n40 to go", m.LapSummary)
	assert.Equal(t, model.StylePair{Bg: model.ColorGreen, Fg: model.ColorBlack}, m.FlagStyle)
	require.Len(t, m.DriverRows, 2)
	assert.Contains(t, m.DriverRows[0], "Corey Heim")
	assert.Contains(t, m.DriverRows[0], "Leader")
	assert.Contains(t, m.DriverRows[1], "-0.512")
	assert.Len(t, m.NoteLines, 3)

	// trucks race 5402 is today and not finished
	assert.Equal(t, 1, f.Count("series_3/5402/live_feed.json"))
	assert.Equal(t, 1, f.Count("/2024/3/5402/lap-notes.json"))
	assert.Equal(t, []time.Duration{DefaultInterval}, w.d)
	assert.Empty(t, d.statuses)
}

func TestLoop_NoRaceToday(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := feeddata.NewFakeFetcher().Schedules()
	d := &recordingDisplay{onFrame: stopAfter(1, cancel)}
	day := time.Date(2024, 6, 1, 12, 0, 0, 0, time.Local)
	lp := NewLoop(feed.NewClient(f), d, WithClock(func() time.Time { return day }))

	require.NoError(t, lp.Run(ctx))
	assert.Equal(t, []time.Time{day}, d.noRace)
	assert.Empty(t, d.models)
	assert.Equal(t, 0, f.Count("live_feed.json"))
	assert.Equal(t, 3, f.Count("race_list_basic.json"))
}

func TestLoop_NoRaceWaitsForCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := feeddata.NewFakeFetcher().Schedules()
	shown := make(chan struct{})
	d := &recordingDisplay{onFrame: func(int) { close(shown) }}
	lp := NewLoop(feed.NewClient(f), d,
		WithClock(func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.Local) }))

	done := make(chan error)
	go func() { done <- lp.Run(ctx) }()
	<-shown
	assert.Eventually(t, func() bool { return lp.State() == StateNoRaceFound },
		time.Second, time.Millisecond)
	select {
	case <-done:
		t.Fatal("loop ended without cancel")
	case <-time.After(20 * time.Millisecond):
	}
	cancel()
	assert.NoError(t, <-done)
}

func TestLoop_ScheduleFailureIsFatal(t *testing.T) {
	f := feeddata.NewFakeFetcher().
		OnError("/3/race_list_basic.json", errors.New("dns failure"))
	d := &recordingDisplay{}
	lp := NewLoop(feed.NewClient(f), d, WithClock(fixedClock()))

	err := lp.Run(context.Background())
	var sfe *feed.ScheduleFetchError
	require.ErrorAs(t, err, &sfe)
	assert.Equal(t, model.SeriesTrucks, sfe.Series)
	assert.Empty(t, d.models)
	assert.Empty(t, d.noRace)
	assert.Equal(t, StateStopped, lp.State())
}

func TestLoop_RetriesScoringFailures(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := feeddata.NewFakeFetcher().
		OnError("live_feed.json", errors.New("connection reset")).
		On("live_feed.json", `{"run_name":"broken"}`).
		On("live_feed.json", feeddata.LiveFeed).
		OnError("lap-notes.json", errors.New("404"))
	d := &recordingDisplay{onFrame: stopAfter(1, cancel)}
	w := &waits{}
	interval := 100 * time.Millisecond
	lp := NewLoop(feed.NewClient(f), d,
		WithTrackedRace(model.TrackedRace{SeriesID: 1, RaceID: 5201}),
		WithClock(fixedClock()),
		WithInterval(interval),
		WithMaxBackoff(time.Second),
		withAfter(w.immediate(ctx)))

	require.NoError(t, lp.Run(ctx))

	require.Len(t, d.models, 1)
	assert.Empty(t, d.models[0].NoteLines)
	require.Len(t, d.statuses, 2)
	assert.Contains(t, d.statuses[0], "connection reset")
	assert.Contains(t, d.statuses[1], "malformed live feed")

	// retries grow from the interval, the successful cycle waits the interval
	assert.Equal(t, []time.Duration{interval, 150 * time.Millisecond, interval}, w.d)
	assert.Equal(t, 3, f.Count("live_feed.json"))
	assert.Equal(t, 0, f.Count("race_list_basic.json"))
}

func TestLoop_RetryDelayIsCapped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	boom := errors.New("connection reset")
	f := feeddata.NewFakeFetcher().
		OnError("live_feed.json", boom).
		OnError("live_feed.json", boom).
		OnError("live_feed.json", boom).
		OnError("live_feed.json", boom).
		On("live_feed.json", feeddata.LiveFeed).
		On("lap-notes.json", feeddata.LapNotes)
	d := &recordingDisplay{onFrame: stopAfter(1, cancel)}
	w := &waits{}
	interval := 100 * time.Millisecond
	lp := NewLoop(feed.NewClient(f), d,
		WithTrackedRace(model.TrackedRace{SeriesID: 1, RaceID: 5201}),
		WithClock(fixedClock()),
		WithInterval(interval),
		WithMaxBackoff(200*time.Millisecond),
		withAfter(w.immediate(ctx)))

	require.NoError(t, lp.Run(ctx))

	assert.Equal(t, []time.Duration{
		interval, 150 * time.Millisecond, 200 * time.Millisecond, 200 * time.Millisecond, interval,
	}, w.d)
	for _, wait := range w.d {
		assert.GreaterOrEqual(t, wait, interval)
	}
}

func TestLoop_NotesAreAppendedOnce(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := feeddata.NewFakeFetcher().
		On("live_feed.json", feeddata.LiveFeed).
		On("lap-notes.json", feeddata.LapNotes).
		On("lap-notes.json", feeddata.LapNotes).
		On("lap-notes.json", `{"laps":{
			"2":[{"Note":"Caution for debris"}],
			"10":[{"Note":"Heim takes the lead"},{"Note":"Green flag"}],
			"11":[{"Note":"Majeski pits"}]}}`)
	d := &recordingDisplay{onFrame: stopAfter(3, cancel)}
	sink := &recordingSink{}
	w := &waits{}
	race := model.TrackedRace{SeriesID: 3, RaceID: 5402}
	lp := NewLoop(feed.NewClient(f), d,
		WithTrackedRace(race),
		WithClock(fixedClock()),
		WithSinks(sink),
		withAfter(w.immediate(ctx)))

	require.NoError(t, lp.Run(ctx))
	require.Len(t, d.models, 3)
	assert.Equal(t, []model.NoteLine{
		{Lap: "2", Text: "Caution for debris"},
		{Lap: "10", Text: "Heim takes the lead"},
		{Lap: "10", Text: "Green flag"},
	}, d.models[0].NoteLines)
	assert.Empty(t, d.models[1].NoteLines)
	assert.Equal(t, []model.NoteLine{{Lap: "11", Text: "Majeski pits"}}, d.models[2].NoteLines)

	// sink errors are not fatal
	assert.Equal(t, []model.TrackedRace{race, race, race}, sink.races)
}

func TestLoop_RenderFailureEndsLoop(t *testing.T) {
	f := feeddata.NewFakeFetcher().
		On("live_feed.json", feeddata.LiveFeed).
		On("lap-notes.json", feeddata.LapNotes)
	boom := errors.New("broken pipe")
	d := &recordingDisplay{renderErr: boom}
	lp := NewLoop(feed.NewClient(f), d,
		WithTrackedRace(model.TrackedRace{SeriesID: 3, RaceID: 5402}),
		WithClock(fixedClock()))

	err := lp.Run(context.Background())
	var re *RenderError
	require.ErrorAs(t, err, &re)
	assert.ErrorIs(t, err, boom)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "polling", StatePolling.String())
	assert.Equal(t, "no race found", StateNoRaceFound.String())
	assert.Equal(t, "unknown(42)", State(42).String())
}
