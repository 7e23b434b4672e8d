package main

import (
	"Saffron/internal/coordinator"
	"Saffron/internal/dashboard"
	"Saffron/pkg/log"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type watchOptions struct {
	server  string
	token   string
	route   string
	poll    time.Duration
	ttl     time.Duration
	render  time.Duration
	noBell  bool
	envFile string
}

var watchOpts watchOptions

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch new orders and reservations",
	Long: `Watch connects to the realtime channel of a Saffron server with an admin token and falls
back to polling the admin collections when the channel is unavailable.`,
	RunE: runWatch,
}

func init() {
	f := watchCmd.Flags()
	f.StringVar(&watchOpts.server, "server", "http://localhost:8080", "base URL of the Saffron server")
	f.StringVar(&watchOpts.token, "token", "", "admin access token, defaults to $SAFFRON_TOKEN")
	f.StringVar(&watchOpts.route, "route", "/admin", "route the client is on, decides whether the realtime channel is attempted")
	f.DurationVar(&watchOpts.poll, "poll", coordinator.DefaultPollInterval, "polling interval when the realtime channel is unavailable")
	f.DurationVar(&watchOpts.ttl, "ttl", coordinator.DefaultNotificationTTL, "how long a notification stays on display")
	f.DurationVar(&watchOpts.render, "render", 30*time.Second, "how often the counters are printed, 0 disables")
	f.BoolVar(&watchOpts.noBell, "no-bell", false, "don't ring the terminal bell on alerts")
	f.StringVar(&watchOpts.envFile, "env", ".env", "env file to read SAFFRON_TOKEN from")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(watchOpts.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reading %s: %w", watchOpts.envFile, err)
	}
	if watchOpts.token == "" {
		watchOpts.token = os.Getenv("SAFFRON_TOKEN")
	}
	logger := log.NewWithWriter("dashboard", cmd.ErrOrStderr())
	out := cmd.OutOrStdout()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fetcher := coordinator.NewHTTPFetcher(watchOpts.server, watchOpts.token, nil)
	channel, err := coordinator.NewWSChannel(watchOpts.server, logger)
	if err != nil {
		return err
	}

	board := dashboard.New(dashboard.NewTerminalAlerter(out, !watchOpts.noBell), logger)
	if watchOpts.token == "" {
		logger.Warn().Msg("No admin token, counters are not loaded and only polling is used")
	} else if err := board.Load(ctx, fetcher); err != nil {
		logger.Warn().Err(err).Msg("Couldn't load the dashboard counters")
	}

	c := coordinator.New(coordinator.Config{
		Token:           watchOpts.token,
		Route:           watchOpts.route,
		PollInterval:    watchOpts.poll,
		NotificationTTL: watchOpts.ttl,
	}, coordinator.Deps{
		Channel: channel,
		Fetcher: fetcher,
		Logger:  logger,
	})
	notes, unsubscribe := c.Subscribe()
	defer unsubscribe()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.Run(gctx)
	})
	g.Go(func() error {
		return board.Consume(gctx, notes)
	})
	if watchOpts.render > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(watchOpts.render)
			defer ticker.Stop()
			for {
				if err := board.Render(out, time.Now()); err != nil {
					return err
				}
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					fmt.Fprintf(out, "\n[%s] %s\n", time.Now().Format("15:04:05"), c.State())
				}
			}
		})
	}
	return g.Wait()
}
