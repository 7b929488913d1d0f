// Package util holds helpers shared by the commands to turn the resolved
// configuration values into the components.
package util

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mpapenbr/greenflag/log"
	"github.com/mpapenbr/greenflag/pkg/config"
	"github.com/mpapenbr/greenflag/pkg/feed"
	"github.com/mpapenbr/greenflag/pkg/model"
	"github.com/mpapenbr/greenflag/pkg/schedule"
	"github.com/mpapenbr/greenflag/pkg/transform"
)

const DateLayout = "2006-01-02"

var (
	ErrUnknownSeries  = errors.New("unknown series")
	ErrIncompleteRace = errors.New("series-id and race-id must be given together")
)

// RunID identifies the current process in logs and published messages
var RunID = uuid.NewString()

func ParseLogLevel(l string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(l)
	if err != nil {
		return defaultVal
	}
	return level
}

// SetupLogger creates the logger configured by LogFormat and LogLevel,
// installs it as default and returns it.
func SetupLogger(w io.Writer) *log.Logger {
	var logger *log.Logger
	switch config.LogFormat {
	case "json":
		logger = log.New(w,
			ParseLogLevel(config.LogLevel, log.InfoLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
	default:
		logger = log.DevLogger(w,
			ParseLogLevel(config.LogLevel, log.DebugLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
	}
	logger = logger.With(log.String("run", RunID))
	log.ResetDefault(logger)
	return logger
}

// LogFilePath returns the configured log file or the default in the temp dir
func LogFilePath() string {
	if config.LogFile != "" {
		return config.LogFile
	}
	return filepath.Join(os.TempDir(), "greenflag.log")
}

func OpenLogFile() (*os.File, error) {
	path := LogFilePath()
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating log dir: %w", err)
		}
	}
	//nolint:gosec // path comes from the user
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}

// ParseDuration falls back to defaultVal on invalid or non-positive values
func ParseDuration(name, val string, defaultVal time.Duration) time.Duration {
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		log.Warn("Invalid duration value. Using default",
			log.String("flag", name),
			log.String("value", val),
			log.Duration("default", defaultVal))
		return defaultVal
	}
	return d
}

// ParseSeries maps series names to series. An empty list selects all
// series. The result is in priority order.
func ParseSeries(names []string) ([]model.Series, error) {
	if len(names) == 0 {
		return model.PrioritySeries(), nil
	}
	wanted := map[int]bool{}
	for _, name := range names {
		s, ok := model.SeriesByName(strings.ToLower(strings.TrimSpace(name)))
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSeries, name)
		}
		wanted[s.ID] = true
	}
	ret := []model.Series{}
	for _, s := range model.PrioritySeries() {
		if wanted[s.ID] {
			ret = append(ret, s)
		}
	}
	return ret, nil
}

// Today returns the day configured by Date or now. A configured day is
// returned at noon local time.
func Today(now func() time.Time) (time.Time, error) {
	if config.Date == "" {
		return now(), nil
	}
	d, err := time.ParseInLocation(DateLayout, config.Date, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", config.Date, err)
	}
	return d.Add(12 * time.Hour), nil
}

// TrackedRace returns the race given by SeriesID and RaceID, nil if none
// was configured.
func TrackedRace() (*model.TrackedRace, error) {
	switch {
	case config.SeriesID == 0 && config.RaceID == 0:
		return nil, nil
	case config.SeriesID == 0 || config.RaceID == 0:
		return nil, ErrIncompleteRace
	}
	if _, ok := model.SeriesByID(config.SeriesID); !ok {
		return nil, fmt.Errorf("%w: id %d", ErrUnknownSeries, config.SeriesID)
	}
	return &model.TrackedRace{SeriesID: config.SeriesID, RaceID: config.RaceID}, nil
}

func NewClient() *feed.Client {
	fetcher := feed.NewHTTPFetcher(
		feed.WithTimeout(ParseDuration("request-timeout", config.RequestTimeout, 15*time.Second)))
	return feed.NewClient(fetcher,
		feed.WithBaseURL(config.BaseURL),
		feed.WithLogger(log.Default().Named("feed")))
}

// NewTransformer creates a transformer using the configured status codes
func NewTransformer(opts ...transform.Option) *transform.Transformer {
	return transform.NewTransformer(append([]transform.Option{
		transform.WithStatusCodes(config.StatusOut, config.StatusOff),
	}, opts...)...)
}

// ResolveRace returns the configured race or looks up today's race. The
// same-day listings are returned as well, they are empty for a
// configured race.
//
//nolint:whitespace // editor/linter issue
func ResolveRace(
	ctx context.Context, client *feed.Client, today time.Time, series []model.Series,
) (model.TrackedRace, []model.RaceListing, error) {
	race, err := TrackedRace()
	if err != nil {
		return model.TrackedRace{}, nil, err
	}
	if race != nil {
		return *race, []model.RaceListing{}, nil
	}
	schedules, err := client.FetchSchedules(ctx, today.Year(), series)
	if err != nil {
		return model.TrackedRace{}, nil, err
	}
	listings := schedule.SameDay(schedules, today)
	found, err := schedule.Resolve(schedules, today)
	return found, listings, err
}
