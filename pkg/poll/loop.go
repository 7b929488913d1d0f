package poll

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/mpapenbr/greenflag/log"
	"github.com/mpapenbr/greenflag/pkg/model"
	"github.com/mpapenbr/greenflag/pkg/schedule"
	"github.com/mpapenbr/greenflag/pkg/transform"
)

const (
	DefaultInterval   = 5 * time.Second
	DefaultMaxBackoff = time.Minute
)

type State int

const (
	StateIdle State = iota
	StateResolving
	StateNoRaceFound
	StatePolling
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolving:
		return "resolving"
	case StateNoRaceFound:
		return "no race found"
	case StatePolling:
		return "polling"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Source provides the feeds the loop works on
type Source interface {
	//nolint:whitespace // editor/linter issue
	FetchSchedules(ctx context.Context, year int, series []model.Series) (
		[]model.SeriesSchedule, error)
	FetchScoring(ctx context.Context, race model.TrackedRace) (*model.ScoringSnapshot, error)
	//nolint:whitespace // editor/linter issue
	FetchLapNotes(ctx context.Context, year int, race model.TrackedRace) (
		*model.LapNotesSnapshot, error)
}

// Display is the rendering surface. Each call is expected to flush.
type Display interface {
	ShowNoRace(today time.Time) error
	Render(m *model.DisplayModel) error
	ShowStatus(msg string) error
}

// Sink receives every rendered model in addition to the display
type Sink interface {
	Publish(ctx context.Context, race model.TrackedRace, m *model.DisplayModel) error
}

// RenderError marks failures of the display. They end the loop.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string { return fmt.Sprintf("render: %v", e.Err) }
func (e *RenderError) Unwrap() error { return e.Err }

type Loop struct {
	source      Source
	display     Display
	transformer *transform.Transformer
	sinks       []Sink
	series      []model.Series
	race        *model.TrackedRace
	interval    time.Duration
	maxBackoff  time.Duration
	now         func() time.Time
	after       func(time.Duration) <-chan time.Time
	l           *log.Logger
	metrics     *loopMetrics

	state     atomic.Int32
	year      int
	noteCount int
}

type Option func(*Loop)

func WithTransformer(t *transform.Transformer) Option {
	return func(lp *Loop) {
		lp.transformer = t
	}
}

func WithSinks(sinks ...Sink) Option {
	return func(lp *Loop) {
		lp.sinks = append(lp.sinks, sinks...)
	}
}

// WithSeries restricts the schedules used to resolve today's race
func WithSeries(series []model.Series) Option {
	return func(lp *Loop) {
		lp.series = series
	}
}

// WithTrackedRace skips the schedule lookup and follows the given race
func WithTrackedRace(race model.TrackedRace) Option {
	return func(lp *Loop) {
		lp.race = &race
	}
}

func WithInterval(d time.Duration) Option {
	return func(lp *Loop) {
		lp.interval = d
	}
}

func WithMaxBackoff(d time.Duration) Option {
	return func(lp *Loop) {
		lp.maxBackoff = d
	}
}

func WithClock(now func() time.Time) Option {
	return func(lp *Loop) {
		lp.now = now
	}
}

func WithLogger(l *log.Logger) Option {
	return func(lp *Loop) {
		lp.l = l
	}
}

func withAfter(after func(time.Duration) <-chan time.Time) Option {
	return func(lp *Loop) {
		lp.after = after
	}
}

func NewLoop(source Source, display Display, opts ...Option) *Loop {
	ret := &Loop{
		source:      source,
		display:     display,
		transformer: transform.NewTransformer(),
		series:      model.PrioritySeries(),
		interval:    DefaultInterval,
		maxBackoff:  DefaultMaxBackoff,
		now:         time.Now,
		after:       time.After,
		l:           log.Default().Named("poll"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.maxBackoff < ret.interval {
		ret.maxBackoff = ret.interval
	}
	ret.metrics = newLoopMetrics(ret.l)
	return ret
}

func (lp *Loop) State() State {
	return State(lp.state.Load())
}

func (lp *Loop) setState(s State) {
	lp.l.Debug("state change",
		log.String("from", lp.State().String()),
		log.String("to", s.String()))
	lp.state.Store(int32(s))
}

// Run resolves the race once and polls it until ctx is done.
// It returns an error only if the schedules could not be loaded or the
// display failed; cancellation is a regular end and returns nil.
func (lp *Loop) Run(ctx context.Context) error {
	lp.setState(StateResolving)
	today := lp.now()
	lp.year = today.Year()

	race, err := lp.resolve(ctx, today)
	switch {
	case errors.Is(err, schedule.ErrNoRaceToday):
		lp.setState(StateNoRaceFound)
		lp.l.Info("no race found", log.Time("today", today))
		if err := lp.display.ShowNoRace(today); err != nil {
			lp.setState(StateStopped)
			return &RenderError{Err: err}
		}
		<-ctx.Done()
		lp.setState(StateStopped)
		return nil
	case err != nil:
		lp.setState(StateStopped)
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	lp.setState(StatePolling)
	lp.l.Info("tracking race",
		log.Int("seriesId", race.SeriesID),
		log.Int("raceId", race.RaceID))
	err = lp.poll(ctx, race)
	lp.setState(StateStopped)
	return err
}

//nolint:whitespace // editor/linter issue
func (lp *Loop) resolve(ctx context.Context, today time.Time) (
	model.TrackedRace, error,
) {
	if lp.race != nil {
		return *lp.race, nil
	}
	schedules, err := lp.source.FetchSchedules(ctx, lp.year, lp.series)
	if err != nil {
		lp.l.Error("could not load schedules", log.ErrorField(err))
		return model.TrackedRace{}, err
	}
	return schedule.Resolve(schedules, today)
}

func (lp *Loop) poll(ctx context.Context, race model.TrackedRace) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = lp.interval
	bo.MaxInterval = lp.maxBackoff
	bo.MaxElapsedTime = 0
	// retries never come sooner than the regular interval
	bo.RandomizationFactor = 0
	bo.Reset()

	for {
		wait := lp.interval
		if err := lp.cycle(ctx, race); err != nil {
			var re *RenderError
			if errors.As(err, &re) {
				return err
			}
			if ctx.Err() != nil {
				return nil
			}
			wait = max(bo.NextBackOff(), lp.interval)
			lp.l.Warn("poll cycle failed",
				log.ErrorField(err),
				log.Duration("retryIn", wait))
			msg := fmt.Sprintf("feed unavailable, retrying in %s: %v", wait.Round(time.Millisecond), err)
			if err := lp.display.ShowStatus(msg); err != nil {
				return &RenderError{Err: err}
			}
		} else {
			bo.Reset()
		}

		select {
		case <-ctx.Done():
			lp.l.Debug("poll loop stopped")
			return nil
		case <-lp.after(wait):
		}
	}
}

// cycle performs one fetch-transform-render round
func (lp *Loop) cycle(ctx context.Context, race model.TrackedRace) error {
	ctx, span := lp.metrics.tracer.Start(ctx, "poll.cycle",
		trace.WithAttributes(
			attribute.Int("series", race.SeriesID),
			attribute.Int("race", race.RaceID)))
	defer span.End()
	start := time.Now()

	scoring, notes, err := lp.fetch(ctx, race)
	if err != nil {
		lp.metrics.recordFailure(ctx, race)
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return err
	}

	m, count := lp.transformer.Transform(scoring, notes, lp.noteCount)
	if err := lp.display.Render(m); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "render failed")
		return &RenderError{Err: err}
	}
	lp.metrics.recordNotes(ctx, race, count-lp.noteCount)
	lp.noteCount = count

	for _, sink := range lp.sinks {
		if err := sink.Publish(ctx, race, m); err != nil {
			lp.l.Warn("could not publish display model", log.ErrorField(err))
		}
	}
	lp.metrics.recordCycle(ctx, race, time.Since(start).Seconds())
	lp.l.Debug("cycle done",
		log.Int("lap", scoring.LapNumber),
		log.String("flag", scoring.FlagState.String()),
		log.Int("vehicles", len(scoring.Vehicles)),
		log.Int("newNotes", len(m.NoteLines)))
	return nil
}

// fetch loads scoring and notes in parallel. Notes problems never fail
// the cycle, they are replaced by an empty set.
//
//nolint:whitespace // editor/linter issue
func (lp *Loop) fetch(ctx context.Context, race model.TrackedRace) (
	*model.ScoringSnapshot, *model.LapNotesSnapshot, error,
) {
	var scoring *model.ScoringSnapshot
	var notes *model.LapNotesSnapshot

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		scoring, err = lp.source.FetchScoring(gctx, race)
		return err
	})
	g.Go(func() error {
		n, err := lp.source.FetchLapNotes(gctx, lp.year, race)
		if err != nil || n == nil {
			lp.l.Debug("lap notes not available", log.ErrorField(err))
			n = model.EmptyLapNotes()
		}
		notes = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return scoring, notes, nil
}
