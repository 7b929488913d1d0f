package watch

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/greenflag/log"
	"github.com/mpapenbr/greenflag/pkg/cmd/util"
	"github.com/mpapenbr/greenflag/pkg/config"
	"github.com/mpapenbr/greenflag/pkg/display"
	"github.com/mpapenbr/greenflag/pkg/poll"
	"github.com/mpapenbr/greenflag/pkg/publish"
	"github.com/mpapenbr/greenflag/pkg/transform"
)

func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "shows the live dashboard of today's race",
		Long: `Shows the live dashboard of today's race. The race is looked up once
in the schedules of the selected series. Press q, Escape or Ctrl-C to quit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunWatch(cmd.Context())
		},
	}
	return cmd
}

// RunWatch shows the dashboard until a quit key or signal is received
//
//nolint:funlen,cyclop // by design
func RunWatch(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	logFile, err := util.OpenLogFile()
	if err != nil {
		return err
	}
	defer logFile.Close()
	logger := util.SetupLogger(logFile)
	//nolint:errcheck // by design
	defer logger.Sync()

	series, err := util.ParseSeries(config.Series)
	if err != nil {
		log.Error("invalid series", log.ErrorField(err))
		return err
	}
	race, err := util.TrackedRace()
	if err != nil {
		log.Error("invalid race", log.ErrorField(err))
		return err
	}
	today, err := util.Today(time.Now)
	if err != nil {
		log.Error("invalid date", log.ErrorField(err))
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if config.EnableTelemetry {
		log.Info("Enabling telemetry")
		if telemetry, err := config.SetupTelemetry(ctx); err == nil {
			defer telemetry.Shutdown()
		} else {
			log.Warn("Could not setup telemetry", log.ErrorField(err))
		}
	}

	keys, err := display.WatchKeys(os.Stdin, func() {
		log.Info("quit key pressed")
		stop()
	})
	if err != nil {
		log.Error("could not setup terminal", log.ErrorField(err))
		return err
	}
	//nolint:errcheck // by design
	defer keys.Close()

	screen := display.NewScreen(os.Stdout,
		display.WithRawMode(keys.Raw()),
		display.WithLogger(logger.Named("display")))
	//nolint:errcheck // by design
	defer screen.Close()

	opts := []poll.Option{
		poll.WithTransformer(util.NewTransformer(transform.WithNameWidthFunc(screen.NameWidth))),
		poll.WithSeries(series),
		poll.WithInterval(util.ParseDuration("interval", config.Interval, poll.DefaultInterval)),
		poll.WithMaxBackoff(
			util.ParseDuration("max-backoff", config.MaxBackoff, poll.DefaultMaxBackoff)),
		poll.WithClock(func() time.Time { return today }),
		poll.WithLogger(logger.Named("poll")),
	}
	if race != nil {
		opts = append(opts, poll.WithTrackedRace(*race))
	}

	if config.NatsURL != "" {
		nats, err := publish.ConnectNats(config.NatsURL,
			publish.WithSubjectPrefix(config.NatsSubjectPrefix),
			publish.WithLogger(logger.Named("nats")))
		if err != nil {
			log.Warn("NATS not available, display models are not published",
				log.ErrorField(err))
		} else {
			fanout := publish.NewFanout(publish.WithRunID(util.RunID))
			sub := fanout.Subscribe()
			done := make(chan struct{})
			go func() {
				nats.Forward(sub)
				close(done)
			}()
			defer func() {
				fanout.Close()
				<-done
				if err := nats.Close(); err != nil {
					log.Warn("could not close NATS connection", log.ErrorField(err))
				}
			}()
			opts = append(opts, poll.WithSinks(fanout))
		}
	}

	log.Info("starting dashboard", log.Any("series", config.Series))
	loop := poll.NewLoop(util.NewClient(), screen, opts...)
	if err := loop.Run(ctx); err != nil {
		log.Error("dashboard stopped", log.ErrorField(err))
		return err
	}
	log.Info("dashboard terminated")
	return nil
}
