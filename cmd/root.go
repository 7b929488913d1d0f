/*
	Copyright 2023 Markus Papenbrock
*/

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mpapenbr/greenflag/log"
	scheduleCmd "github.com/mpapenbr/greenflag/pkg/cmd/schedule"
	snapshotCmd "github.com/mpapenbr/greenflag/pkg/cmd/snapshot"
	"github.com/mpapenbr/greenflag/pkg/cmd/util"
	watchCmd "github.com/mpapenbr/greenflag/pkg/cmd/watch"
	"github.com/mpapenbr/greenflag/pkg/config"
	"github.com/mpapenbr/greenflag/pkg/feed"
	"github.com/mpapenbr/greenflag/pkg/poll"
	"github.com/mpapenbr/greenflag/pkg/publish"
	"github.com/mpapenbr/greenflag/pkg/transform"
	"github.com/mpapenbr/greenflag/version"
)

const envPrefix = "GF"

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "greenflag",
	Short:   "Live race timing dashboard for the terminal",
	Long:    `Follows today's race and shows running order, flag and lap notes.`,
	Version: version.FullVersion,
	RunE: func(cmd *cobra.Command, args []string) error {
		return watchCmd.RunWatch(cmd.Context())
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:funlen // flag definitions
func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.greenflag.yml)")
	pf.StringVar(&config.BaseURL, "base-url",
		feed.DefaultBaseURL,
		"base url of the timing feeds")
	pf.StringVar(&config.LogLevel, "log-level",
		"info",
		"controls the log level (debug, info, warn, error, fatal)")
	pf.StringVar(&config.LogFormat, "log-format",
		"json",
		"controls the log output format (json, text)")
	pf.StringVar(&config.LogFile, "log-file",
		"",
		"log file used while the dashboard is shown (default is $TMPDIR/greenflag.log)")
	pf.StringVar(&config.Interval, "interval",
		poll.DefaultInterval.String(),
		"duration between two poll cycles")
	pf.StringVar(&config.MaxBackoff, "max-backoff",
		poll.DefaultMaxBackoff.String(),
		"max delay between retries after failed poll cycles")
	pf.StringVar(&config.RequestTimeout, "request-timeout",
		"15s",
		"timeout for a single feed request")
	pf.StringSliceVar(&config.Series, "series",
		[]string{"trucks", "xfinity", "cup"},
		"series used to look up today's race")
	pf.IntVar(&config.SeriesID, "series-id",
		0,
		"series id of the race to follow (requires race-id)")
	pf.IntVar(&config.RaceID, "race-id",
		0,
		"race id of the race to follow, skips the schedule lookup")
	pf.IntVar(&config.StatusOut, "status-out",
		transform.DefaultStatusOut,
		"vehicle status shown as Out")
	pf.IntVar(&config.StatusOff, "status-off",
		transform.DefaultStatusOff,
		"vehicle status shown as Off")
	pf.StringVar(&config.Date, "date",
		"",
		"day used to look up the race (YYYY-MM-DD, default today)")
	pf.BoolVar(&config.EnableTelemetry, "enable-telemetry",
		false,
		"enables telemetry")
	pf.StringVar(&config.TelemetryEndpoint, "telemetry-endpoint",
		"localhost:4317",
		"Endpoint that receives open telemetry data")
	pf.StringVar(&config.TelemetryExporter, "telemetry-exporter",
		config.ExporterGrpc,
		"telemetry exporter (grpc, stdout)")
	pf.StringVar(&config.NatsURL, "nats-url",
		"",
		"if set, each frame is published to this NATS server")
	pf.StringVar(&config.NatsSubjectPrefix, "nats-subject-prefix",
		publish.DefaultSubjectPrefix,
		"subject prefix for published frames")

	// add commands here
	rootCmd.AddCommand(watchCmd.NewWatchCmd())
	rootCmd.AddCommand(scheduleCmd.NewScheduleCmd())
	rootCmd.AddCommand(snapshotCmd.NewSnapshotCmd())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".greenflag" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".greenflag")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in and follow its changes.
	// Stdout belongs to the dashboard, so report on stderr.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		viper.OnConfigChange(onConfigChange)
		viper.WatchConfig()
	}

	bindFlags(rootCmd, viper.GetViper())
	for _, cmd := range rootCmd.Commands() {
		bindFlags(cmd, viper.GetViper())
	}
}

// onConfigChange applies a changed log level to the running process
func onConfigChange(e fsnotify.Event) {
	if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
		return
	}
	if !viper.IsSet("log-level") {
		return
	}
	val := viper.GetString("log-level")
	level, err := log.ParseLevel(val)
	if err != nil {
		log.Warn("ignoring invalid log level from config file", log.String("value", val))
		return
	}
	config.LogLevel = val
	log.Default().SetLevel(level)
	log.Info("log level changed",
		log.String("level", level.String()),
		log.String("file", e.Name),
		log.String("run", util.RunID))
}

// Bind each cobra flag to its associated viper configuration
// (config file and environment variable)
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	bindFlagSet(cmd.PersistentFlags(), v)
	bindFlagSet(cmd.Flags(), v)
}

func bindFlagSet(fs *pflag.FlagSet, v *viper.Viper) {
	fs.VisitAll(func(f *pflag.Flag) {
		// Environment variables can't have dashes in them, so bind them to their
		// equivalent keys with underscores, e.g. --log-level to GF_LOG_LEVEL
		if strings.Contains(f.Name, "-") {
			envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			if err := v.BindEnv(f.Name,
				fmt.Sprintf("%s_%s", envPrefix, envVarSuffix)); err != nil {
				fmt.Fprintf(os.Stderr, "Could not bind env var %s: %v", f.Name, err)
			}
		}
		// Apply the viper config value to the flag when the flag is not set and viper
		// has a value
		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			if err := applyValue(fs, f, val); err != nil {
				fmt.Fprintf(os.Stderr, "Could set flag value for %s: %v", f.Name, err)
			}
		}
	})
}

// applyValue sets a flag from a config value. Lists from the config file
// are joined, so they can be parsed by slice flags.
func applyValue(fs *pflag.FlagSet, f *pflag.Flag, val any) error {
	if items, ok := val.([]any); ok {
		parts := make([]string, 0, len(items))
		for _, item := range items {
			parts = append(parts, fmt.Sprintf("%v", item))
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			return sv.Replace(parts)
		}
		return fs.Set(f.Name, strings.Join(parts, ","))
	}
	return fs.Set(f.Name, fmt.Sprintf("%v", val))
}
