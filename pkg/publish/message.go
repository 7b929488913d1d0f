// Package publish forwards rendered display models to consumers other
// than the terminal.
package publish

import (
	"time"

	"github.com/mpapenbr/greenflag/pkg/model"
)

// Message is the payload handed to subscribers for each rendered frame
type Message struct {
	Run       string              `json:"run,omitempty"`
	SeriesID  int                 `json:"seriesId"`
	RaceID    int                 `json:"raceId"`
	Timestamp time.Time           `json:"timestamp"`
	Model     *model.DisplayModel `json:"model"`
}
