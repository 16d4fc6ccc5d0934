// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tomtom215/streamwatch/internal/config"
	"github.com/tomtom215/streamwatch/internal/database"
	"github.com/tomtom215/streamwatch/internal/logging"
	"github.com/tomtom215/streamwatch/internal/sink"
)

// staleIntervals is how many missed stream ticks drop a Prometheus series.
const staleIntervals = 4

// sinkSet is the assembled output side of the process.
type sinkSet struct {
	out      *sink.Multi
	names    []string
	archive  *database.DB         // nil unless the archive output is enabled
	nats     *sink.NATSSink       // nil unless the nats output is enabled
	embedded *sink.EmbeddedServer // nil unless nats.embedded is set
}

// buildSinks creates every configured output, each wrapped in the delivery
// policy of cfg.Sink.Retry. On error everything created so far is closed.
func buildSinks(cfg *config.Config, reg prometheus.Registerer) (set *sinkSet, err error) {
	set = &sinkSet{}
	defer func() {
		if err != nil {
			set.Close(context.Background())
			set = nil
		}
	}()

	policies := make([]sink.Sink, 0, len(cfg.Sink.Outputs))
	for _, output := range cfg.Sink.Outputs {
		var target sink.Sink
		switch output {
		case config.OutputWarp10:
			target = sink.NewWarp10Sink(&cfg.Warp10)

		case config.OutputNATS:
			natsCfg := cfg.NATS
			if natsCfg.Embedded {
				set.embedded, err = sink.StartEmbeddedServer(natsCfg.EmbeddedHost, natsCfg.EmbeddedPort)
				if err != nil {
					return nil, fmt.Errorf("start embedded NATS server: %w", err)
				}
				natsCfg.URL = set.embedded.ClientURL()
			}
			set.nats, err = sink.NewNATSSink(&natsCfg)
			if err != nil {
				return nil, fmt.Errorf("create NATS sink: %w", err)
			}
			target = set.nats

		case config.OutputArchive:
			set.archive, err = database.Open(&cfg.Archive)
			if err != nil {
				return nil, fmt.Errorf("open archive: %w", err)
			}
			target = sink.NewArchiveSink(set.archive)

		case config.OutputPrometheus:
			target = sink.NewPrometheusSink(reg, staleIntervals*cfg.Poller.Interval)

		default:
			return nil, fmt.Errorf("unknown sink output %q", output)
		}

		policies = append(policies, sink.NewPolicy(target, cfg.Sink.Retry))
		set.names = append(set.names, target.Name())
	}

	set.out = sink.NewMulti(policies...)
	logging.Info().
		Strs("outputs", set.names).
		Bool("retry", cfg.Sink.Retry.Enabled).
		Msg("Sinks ready")
	return set, nil
}

// Close releases the outputs that hold connections: the NATS client, then
// the embedded server it talks to, then the archive.
func (s *sinkSet) Close(ctx context.Context) {
	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close NATS sink")
		}
	}
	if s.embedded != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := s.embedded.Shutdown(shutdownCtx); err != nil {
			logging.Error().Err(err).Msg("Failed to shut down embedded NATS server")
		}
		cancel()
	}
	if s.archive != nil {
		if err := s.archive.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close archive")
		}
	}
}
