package config

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	BaseURL           string   // base url of the timing feeds
	LogLevel          string   // sets the log level (zap log level values)
	LogFormat         string   // text vs json
	LogFile           string   // file receiving the log output while the dashboard is shown
	Interval          string   // duration between two poll cycles
	MaxBackoff        string   // upper bound for the retry delay after failed cycles
	RequestTimeout    string   // timeout for a single feed request
	Series            []string // series used to look up today's race
	SeriesID          int      // series of an explicitly given race
	RaceID            int      // explicitly given race, skips the schedule lookup
	StatusOut         int      // vehicle status shown as "Out"
	StatusOff         int      // vehicle status shown as "Off"
	Date              string   // day used to look up the race (YYYY-MM-DD), default today
	EnableTelemetry   bool     // enable telemetry
	TelemetryEndpoint string   // endpoint for telemetry
	TelemetryExporter string   // grpc or stdout
	NatsURL           string   // if set, display models are published to this NATS server
	NatsSubjectPrefix string   // subject prefix for published display models
	Output            string   // output format of the non-interactive commands
)
