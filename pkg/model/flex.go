package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// FlexString holds a feed value that is delivered either as JSON string or
// as JSON number. Numbers keep their literal text, null becomes empty.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		*f = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
	default:
		*f = FlexString(data)
	}
	return nil
}

func (f FlexString) String() string {
	return string(f)
}

func (f FlexString) IsEmpty() bool {
	return strings.TrimSpace(string(f)) == ""
}

// layouts used by the schedule feed for tunein_date
var feedTimeLayouts = []string{
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// FeedTime is a timestamp from the feeds. Values without zone information
// are interpreted in the local time zone.
type FeedTime struct {
	time.Time
}

// UnmarshalJSON accepts null, empty and unparseable values (e.g. "TBD") as
// the zero time, so a single undated listing does not spoil a schedule.
func (t *FeedTime) UnmarshalJSON(data []byte) error {
	t.Time = time.Time{}
	var s string
	if err := json.Unmarshal(bytes.TrimSpace(data), &s); err != nil {
		return nil //nolint:nilerr // non-string dates are unknown dates
	}
	if parsed, err := ParseFeedTime(s); err == nil {
		t.Time = parsed
	}
	return nil
}

func (t FeedTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format("2006-01-02T15:04:05"))
}

func ParseFeedTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range feedTimeLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported time format: %q", s)
}
