//nolint:funlen // ok for tests
package feed

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/greenflag/pkg/model"
	"github.com/mpapenbr/greenflag/pkg/schedule"
	"github.com/mpapenbr/greenflag/testsupport/feeddata"
)

func seriesTrucks() model.Series { return model.SeriesTrucks }

func trackedRace(sid, rid int) model.TrackedRace {
	return model.TrackedRace{SeriesID: sid, RaceID: rid}
}

func TestClient_FetchSchedules(t *testing.T) {
	f := feeddata.NewFakeFetcher().Schedules()
	c := NewClient(f)

	got, err := c.FetchSchedules(context.Background(), 2024, model.PrioritySeries())
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, model.SeriesTrucks, got[0].Series)
	assert.Equal(t, model.SeriesXfinity, got[1].Series)
	assert.Equal(t, model.SeriesCup, got[2].Series)
	assert.Len(t, got[0].Races, 2)
	assert.True(t, got[0].Races[0].Finished())
	assert.False(t, got[0].Races[1].Finished())
	assert.Equal(t, []string{
		"https://www.nascar.com/cacher/2024/3/race_list_basic.json",
		"https://www.nascar.com/cacher/2024/2/race_list_basic.json",
		"https://www.nascar.com/cacher/2024/1/race_list_basic.json",
	}, f.Requests())
}

func TestClient_FetchSchedulesUndatedListing(t *testing.T) {
	for _, tunein := range []string{`""`, `null`, `"TBD"`} {
		t.Run(tunein, func(t *testing.T) {
			trucks := `[
	{"series_id":3,"race_id":5400,"race_name":"Truck Race TBD","tunein_date":` + tunein + `},
	{"series_id":3,"race_id":5402,"race_name":"Truck Race B","tunein_date":"2024-05-26T13:00:00"}
]`
			f := feeddata.NewFakeFetcher().
				On("/3/race_list_basic.json", trucks).
				On("/2/race_list_basic.json", feeddata.XfinitySchedule).
				On("/1/race_list_basic.json", feeddata.CupSchedule)
			c := NewClient(f)

			got, err := c.FetchSchedules(context.Background(), 2024, model.PrioritySeries())
			require.NoError(t, err)
			require.Len(t, got[0].Races, 2)
			assert.True(t, got[0].Races[0].TuneInDate.IsZero())

			race, err := schedule.Resolve(got, feeddata.Today())
			require.NoError(t, err)
			assert.Equal(t, trackedRace(3, 5402), race)
		})
	}
}

func TestClient_FetchSchedulesFailure(t *testing.T) {
	boom := errors.New("connection refused")
	f := feeddata.NewFakeFetcher().
		On("/3/race_list_basic.json", feeddata.TrucksSchedule).
		OnError("/2/race_list_basic.json", boom)
	c := NewClient(f)

	_, err := c.FetchSchedules(context.Background(), 2024, model.PrioritySeries())
	var sfe *ScheduleFetchError
	require.ErrorAs(t, err, &sfe)
	assert.Equal(t, model.SeriesXfinity, sfe.Series)
	assert.ErrorIs(t, err, boom)
	// cup is never requested after the failure
	assert.Equal(t, 0, f.Count("/1/race_list_basic.json"))
}

func TestClient_FetchScoring(t *testing.T) {
	race := trackedRace(3, 5402)
	tests := []struct {
		name      string
		payload   string
		err       error
		check     func(t *testing.T, s *model.ScoringSnapshot)
		malformed []string
		fetchErr  bool
	}{
		{
			name:    "valid feed",
			payload: feeddata.LiveFeed,
			check: func(t *testing.T, s *model.ScoringSnapshot) {
				t.Helper()
				assert.Equal(t, "Truck Race B", s.RunName)
				assert.Equal(t, 10, s.LapNumber)
				assert.Equal(t, model.FlagGreen, s.FlagState)
				require.Len(t, s.Vehicles, 2)
				assert.Equal(t, model.FlexString("0.512"), s.Vehicles[0].Delta)
				assert.Equal(t, model.FlexString("98"), s.Vehicles[0].VehicleNumber)
				assert.Equal(t, "Corey Heim", s.Vehicles[1].Driver.FullName)
			},
		},
		{
			name:      "missing vehicles",
			payload:   `{"run_name":"a","track_name":"b","lap_number":1,"laps_in_race":2,"laps_to_go":1,"flag_state":1}`,
			malformed: []string{"$.vehicles"},
		},
		{
			name: "vehicle without driver",
			payload: `{"run_name":"a","track_name":"b","lap_number":1,"laps_in_race":2,"laps_to_go":1,"flag_state":1,
				"vehicles":[{"running_position":1,"vehicle_number":"1"}]}`,
			malformed: []string{"$.vehicles[0].driver.full_name"},
		},
		{
			name:      "not json",
			payload:   `<html>maintenance</html>`,
			malformed: []string{},
		},
		{
			name:     "transport error",
			err:      errors.New("timeout"),
			fetchErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := feeddata.NewFakeFetcher()
			if tt.err != nil {
				f.OnError("live_feed.json", tt.err)
			} else {
				f.On("live_feed.json", tt.payload)
			}
			got, err := NewClient(f).FetchScoring(context.Background(), race)
			switch {
			case tt.fetchErr:
				var sfe *ScoringFetchError
				require.ErrorAs(t, err, &sfe)
				assert.Equal(t, race, sfe.Race)
			case tt.malformed != nil:
				var mfe *MalformedFeedError
				require.ErrorAs(t, err, &mfe)
				assert.Equal(t, "live", mfe.Feed)
				assert.Contains(t, mfe.URL, "series_3/5402/live_feed.json")
				if len(tt.malformed) > 0 {
					assert.Equal(t, tt.malformed, mfe.Missing)
				}
			default:
				require.NoError(t, err)
				tt.check(t, got)
			}
		})
	}
}

func TestClient_FetchLapNotes(t *testing.T) {
	race := trackedRace(3, 5402)

	f := feeddata.NewFakeFetcher().On("lap-notes.json", feeddata.LapNotes)
	got, err := NewClient(f).FetchLapNotes(context.Background(), 2024, race)
	require.NoError(t, err)
	assert.Len(t, got.Laps, 2)
	assert.Equal(t, "Green flag", got.Laps["10"][1].Note)

	f = feeddata.NewFakeFetcher().OnError("lap-notes.json", errors.New("404"))
	got, err = NewClient(f).FetchLapNotes(context.Background(), 2024, race)
	assert.Error(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got.Laps)

	f = feeddata.NewFakeFetcher().On("lap-notes.json", `{}`)
	got, err = NewClient(f).FetchLapNotes(context.Background(), 2024, race)
	require.NoError(t, err)
	assert.NotNil(t, got.Laps)
}
