package model

import "strings"

// Series is one of the racing divisions. ID is the code used by the feed urls.
type Series struct {
	ID   int
	Name string
}

var (
	SeriesCup     = Series{ID: 1, Name: "cup"}
	SeriesXfinity = Series{ID: 2, Name: "xfinity"}
	SeriesTrucks  = Series{ID: 3, Name: "trucks"}
)

// PrioritySeries returns all series in the order used to break ties when
// more than one race is scheduled for the same day.
func PrioritySeries() []Series {
	return []Series{SeriesTrucks, SeriesXfinity, SeriesCup}
}

// SeriesPriority returns the rank of the series id within PrioritySeries.
// Unknown ids are ranked last.
func SeriesPriority(id int) int {
	for i, s := range PrioritySeries() {
		if s.ID == id {
			return i
		}
	}
	return len(PrioritySeries())
}

func SeriesByName(name string) (Series, bool) {
	for _, s := range PrioritySeries() {
		if strings.EqualFold(s.Name, strings.TrimSpace(name)) {
			return s, true
		}
	}
	return Series{}, false
}

func SeriesByID(id int) (Series, bool) {
	for _, s := range PrioritySeries() {
		if s.ID == id {
			return s, true
		}
	}
	return Series{}, false
}

type RaceListing struct {
	SeriesID        int        `json:"series_id"`
	RaceID          int        `json:"race_id"`
	RaceName        string     `json:"race_name"`
	TrackName       string     `json:"track_name"`
	TuneInDate      FeedTime   `json:"tunein_date"`
	MarginOfVictory FlexString `json:"margin_of_victory"`
}

// Finished reports whether the race already has a result.
// The feed sets margin_of_victory only after the checkered flag.
func (r *RaceListing) Finished() bool {
	return !r.MarginOfVictory.IsEmpty()
}

type SeriesSchedule struct {
	Series Series
	Races  []RaceListing
}

// TrackedRace identifies the race followed by the dashboard
type TrackedRace struct {
	SeriesID int `json:"seriesId" yaml:"seriesId"`
	RaceID   int `json:"raceId" yaml:"raceId"`
}
