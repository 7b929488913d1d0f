package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mpapenbr/greenflag/log"
	"github.com/mpapenbr/greenflag/pkg/model"
)

// Client knows the feed urls and turns the raw payloads into validated
// model values.
type Client struct {
	fetcher Fetcher
	urls    URLs
	l       *log.Logger
}

type ClientOption func(*Client)

func WithBaseURL(base string) ClientOption {
	return func(c *Client) {
		c.urls = URLs{Base: base}
	}
}

func WithLogger(l *log.Logger) ClientOption {
	return func(c *Client) {
		c.l = l
	}
}

func NewClient(fetcher Fetcher, opts ...ClientOption) *Client {
	ret := &Client{
		fetcher: fetcher,
		l:       log.Default().Named("feed"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (c *Client) URLs() URLs {
	return c.urls
}

// FetchSchedules loads the schedules for the given series, keeping their order.
// Any failure aborts the whole operation.
//
//nolint:whitespace // editor/linter issue
func (c *Client) FetchSchedules(
	ctx context.Context, year int, series []model.Series,
) ([]model.SeriesSchedule, error) {
	ret := make([]model.SeriesSchedule, 0, len(series))
	for _, s := range series {
		sched, err := c.FetchSchedule(ctx, year, s)
		if err != nil {
			return nil, err
		}
		ret = append(ret, *sched)
	}
	return ret, nil
}

//nolint:whitespace // editor/linter issue
func (c *Client) FetchSchedule(
	ctx context.Context, year int, s model.Series,
) (*model.SeriesSchedule, error) {
	url := c.urls.Schedule(year, s)
	c.l.Debug("fetching schedule", log.String("series", s.Name), log.String("url", url))
	races := make([]model.RaceListing, 0)
	if err := c.load(ctx, url, scheduleSchema, &races); err != nil {
		return nil, &ScheduleFetchError{Series: s, Err: err}
	}
	c.l.Debug("schedule loaded", log.String("series", s.Name), log.Int("races", len(races)))
	return &model.SeriesSchedule{Series: s, Races: races}, nil
}

// FetchScoring loads the live feed. Transport problems are reported as
// ScoringFetchError, payload problems as MalformedFeedError.
//
//nolint:whitespace // editor/linter issue
func (c *Client) FetchScoring(
	ctx context.Context, race model.TrackedRace,
) (*model.ScoringSnapshot, error) {
	url := c.urls.LiveFeed(race)
	ret := &model.ScoringSnapshot{}
	if err := c.load(ctx, url, liveFeedSchema, ret); err != nil {
		var mfe *MalformedFeedError
		if errors.As(err, &mfe) {
			return nil, err
		}
		return nil, &ScoringFetchError{Race: race, Err: err}
	}
	return ret, nil
}

// FetchLapNotes loads the lap notes. The returned snapshot is never nil;
// on error it is empty and the error is returned for logging purposes only.
//
//nolint:whitespace // editor/linter issue
func (c *Client) FetchLapNotes(
	ctx context.Context, year int, race model.TrackedRace,
) (*model.LapNotesSnapshot, error) {
	url := c.urls.LapNotes(year, race)
	ret := model.EmptyLapNotes()
	if err := c.load(ctx, url, lapNotesSchema, ret); err != nil {
		return model.EmptyLapNotes(), err
	}
	if ret.Laps == nil {
		ret.Laps = map[string][]model.LapNote{}
	}
	return ret, nil
}

//nolint:whitespace // editor/linter issue
func (c *Client) load(
	ctx context.Context, url string, s schema, target any,
) error {
	data, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		return err
	}
	if err := s.validate(data); err != nil {
		var mfe *MalformedFeedError
		if errors.As(err, &mfe) {
			mfe.URL = url
		}
		return err
	}
	if err := json.Unmarshal(data, target); err != nil {
		return &MalformedFeedError{Feed: s.name, URL: url, Err: fmt.Errorf("decoding: %w", err)}
	}
	return nil
}
