package schedule

import (
	"errors"
	"slices"
	"time"

	"github.com/samber/lo"

	"github.com/mpapenbr/greenflag/pkg/model"
)

var ErrNoRaceToday = errors.New("no race found for today")

// Resolve picks the race to follow on the day of today.
// Listings are scanned in series priority order (trucks, xfinity, cup).
// A finished race is only selected if no unfinished race of the same day
// follows it, which covers double-headers.
//
//nolint:whitespace // editor/linter issue
func Resolve(
	schedules []model.SeriesSchedule, today time.Time,
) (model.TrackedRace, error) {
	var found *model.RaceListing
	for _, listing := range SameDay(schedules, today) {
		found = &listing
		if !listing.Finished() {
			break
		}
	}
	if found == nil {
		return model.TrackedRace{}, ErrNoRaceToday
	}
	return model.TrackedRace{SeriesID: found.SeriesID, RaceID: found.RaceID}, nil
}

// SameDay returns all listings scheduled for the calendar day of today in
// scan order.
func SameDay(schedules []model.SeriesSchedule, today time.Time) []model.RaceListing {
	return lo.Filter(Merge(schedules), func(item model.RaceListing, _ int) bool {
		return IsSameDay(item.TuneInDate.Time, today)
	})
}

// Merge concatenates the listings of all schedules ordered by series
// priority. The order within a schedule is kept.
func Merge(schedules []model.SeriesSchedule) []model.RaceListing {
	ordered := slices.Clone(schedules)
	slices.SortStableFunc(ordered, func(a, b model.SeriesSchedule) int {
		return model.SeriesPriority(a.Series.ID) - model.SeriesPriority(b.Series.ID)
	})
	return lo.FlatMap(ordered, func(item model.SeriesSchedule, _ int) []model.RaceListing {
		return item.Races
	})
}

// IsSameDay compares year, month and day of t in the location of day.
func IsSameDay(t, day time.Time) bool {
	if t.IsZero() {
		return false
	}
	y1, m1, d1 := t.In(day.Location()).Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
