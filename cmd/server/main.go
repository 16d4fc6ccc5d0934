// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tomtom215/streamwatch/internal/config"
	"github.com/tomtom215/streamwatch/internal/logging"
)

// Set at build time:
//
//	go build -ldflags "-X main.version=v1.2.0 -X main.commit=$(git rev-parse --short HEAD)"
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	// A missing .env is the normal case in containers.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Warn().Err(err).Msg("Failed to read .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		logging.Fatal().Err(err).Msg("Streamwatch exited")
	}
}

// rootFlags are the command line settings. Only flags the user actually
// set are layered over the configuration.
type rootFlags struct {
	configPath     string
	eventName      string
	minimumViewers int
	interval       time.Duration
	logLevel       string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "streamwatch",
		Short:         "Poll Twitch live streams and ship audience metrics",
		Long:          "Streamwatch samples the viewer counts of a Twitch event and writes them to Warp 10 and the other configured sinks.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(config.LoadOptions{
				ConfigPath: flags.configPath,
				Overrides:  flags.overrides(cmd),
			})
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			return run(cmd.Context(), cfg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.configPath, "config", "", "path to a YAML configuration file")
	f.StringVar(&flags.eventName, "event-name", "", "value of the event_name label")
	f.IntVar(&flags.minimumViewers, "minimum-viewers", 0, "stop paging once streams fall below this viewer count")
	f.DurationVar(&flags.interval, "interval", 0, "stream polling interval")
	f.StringVar(&flags.logLevel, "log-level", "", "trace, debug, info, warn or error")

	cmd.AddCommand(newVersionCmd())
	return cmd
}

// overrides maps the flags set on cmd to their configuration paths.
func (f *rootFlags) overrides(cmd *cobra.Command) map[string]interface{} {
	set := cmd.Flags()
	out := make(map[string]interface{})
	if set.Changed("event-name") {
		out["poller.event_name"] = f.eventName
	}
	if set.Changed("minimum-viewers") {
		out["poller.minimum_viewers"] = f.minimumViewers
	}
	if set.Changed("interval") {
		out["poller.interval"] = f.interval
	}
	if set.Changed("log-level") {
		out["logging.level"] = f.logLevel
	}
	return out
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "streamwatch %s (%s) %s/%s %s\n",
				version, commit, runtime.GOOS, runtime.GOARCH, runtime.Version())
		},
	}
}
