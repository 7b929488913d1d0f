package feed

import (
	"fmt"
	"strings"

	"github.com/mpapenbr/greenflag/pkg/model"
)

// ScheduleFetchError is returned if a series schedule could not be loaded
type ScheduleFetchError struct {
	Series model.Series
	Err    error
}

func (e *ScheduleFetchError) Error() string {
	return fmt.Sprintf("fetching %s schedule: %v", e.Series.Name, e.Err)
}

func (e *ScheduleFetchError) Unwrap() error { return e.Err }

// ScoringFetchError is returned if the live feed could not be retrieved
type ScoringFetchError struct {
	Race model.TrackedRace
	Err  error
}

func (e *ScoringFetchError) Error() string {
	return fmt.Sprintf("fetching live feed for series %d race %d: %v",
		e.Race.SeriesID, e.Race.RaceID, e.Err)
}

func (e *ScoringFetchError) Unwrap() error { return e.Err }

// MalformedFeedError is returned if a payload is not valid JSON or lacks
// required fields
type MalformedFeedError struct {
	Feed    string
	URL     string
	Missing []string
	Err     error
}

func (e *MalformedFeedError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "malformed %s feed", e.Feed)
	if e.URL != "" {
		fmt.Fprintf(&sb, " (%s)", e.URL)
	}
	if len(e.Missing) > 0 {
		fmt.Fprintf(&sb, ": missing %s", strings.Join(e.Missing, ", "))
	}
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %v", e.Err)
	}
	return sb.String()
}

func (e *MalformedFeedError) Unwrap() error { return e.Err }
