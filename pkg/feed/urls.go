package feed

import (
	"fmt"
	"strings"

	"github.com/mpapenbr/greenflag/pkg/model"
)

const DefaultBaseURL = "https://www.nascar.com"

type URLs struct {
	Base string
}

func (u URLs) base() string {
	if u.Base == "" {
		return DefaultBaseURL
	}
	return strings.TrimSuffix(u.Base, "/")
}

func (u URLs) Schedule(year int, s model.Series) string {
	return fmt.Sprintf("%s/cacher/%d/%d/race_list_basic.json", u.base(), year, s.ID)
}

func (u URLs) LiveFeed(race model.TrackedRace) string {
	return fmt.Sprintf("%s/live/feeds/series_%d/%d/live_feed.json",
		u.base(), race.SeriesID, race.RaceID)
}

func (u URLs) LapNotes(year int, race model.TrackedRace) string {
	return fmt.Sprintf("%s/cacher/%d/%d/%d/lap-notes.json",
		u.base(), year, race.SeriesID, race.RaceID)
}
