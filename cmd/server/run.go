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
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tomtom215/streamwatch/internal/api"
	"github.com/tomtom215/streamwatch/internal/config"
	"github.com/tomtom215/streamwatch/internal/logging"
	"github.com/tomtom215/streamwatch/internal/supervisor"
	"github.com/tomtom215/streamwatch/internal/supervisor/services"
	"github.com/tomtom215/streamwatch/internal/sync"
	"github.com/tomtom215/streamwatch/internal/twitch"
)

// authorizeTimeout bounds the startup token request.
const authorizeTimeout = 30 * time.Second

// run wires every component from cfg and blocks until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config) error {
	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
		Version:   version,
	})

	logging.Info().
		Str("event_name", cfg.Poller.EventName).
		Str("class", cfg.StreamClass()).
		Dur("interval", cfg.Poller.Interval).
		Int("minimum_viewers", cfg.Poller.MinimumViewers).
		Msg("Starting Streamwatch")

	client := twitch.NewClient(&cfg.Twitch)
	authCtx, cancel := context.WithTimeout(ctx, authorizeTimeout)
	err := client.Authorize(authCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("authorize with Twitch: %w", err)
	}

	var breakers []api.BreakerStateProvider
	// sourceFor gives each loop its own breaker over the shared client, so a
	// failing endpoint of one loop never rejects the calls of the other.
	sourceFor := func(name string) twitch.API {
		if !cfg.Twitch.CircuitBreaker.Enabled {
			return client
		}
		breaker := twitch.NewCircuitBreakerClient(name, client, &cfg.Twitch.CircuitBreaker)
		breakers = append(breakers, breaker)
		return breaker
	}

	shards, err := sync.PlanShards(cfg.Filters, sync.PlanOptions{Legacy: cfg.Poller.LegacyShardPlanning})
	if err != nil {
		return fmt.Errorf("plan stream shards: %w", err)
	}
	logging.Info().Int("shards", len(shards)).Msg("Stream filter planned")

	sinks, err := buildSinks(cfg, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	defer sinks.Close(context.Background())

	streams := sync.NewStreamPoller(sourceFor(twitch.StreamsBreaker), sinks.out, shards, sync.StreamPollerConfig{
		Interval:         cfg.Poller.Interval,
		EventName:        cfg.Poller.EventName,
		Class:            cfg.StreamClass(),
		MinimumViewers:   cfg.Poller.MinimumViewers,
		CategoryCacheTTL: cfg.Poller.CategoryCacheTTL,
	})
	loops := []api.LoopStatusProvider{streams}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfigFrom(&cfg.Supervisor))
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}
	tree.AddPollerService(services.NewPollerService(sync.StreamLoopName, streams))

	if cfg.Chat.Enabled {
		chat := sync.NewChatPoller(sourceFor(twitch.ChatBreaker), sinks.out, sync.ChatPollerConfig{
			Interval:        cfg.Chat.Interval,
			EventName:       cfg.Poller.EventName,
			Prefix:          cfg.Warp10.Prefix,
			VideoIDs:        cfg.Chat.VideoIDs,
			MaxPagesPerTick: cfg.Chat.MaxPagesPerTick,
			DedupCapacity:   cfg.Chat.DedupCapacity,
			DedupTTL:        cfg.Chat.DedupTTL,
		})
		tree.AddPollerService(services.NewPollerService(sync.ChatLoopName, chat))
		loops = append(loops, chat)
		logging.Info().Strs("video_ids", cfg.Chat.VideoIDs).Msg("Chat loop enabled")
	}

	if cfg.Server.Enabled {
		deps := api.Dependencies{
			Version:    version,
			EventName:  cfg.Poller.EventName,
			Sinks:      sinks.names,
			Loops:      loops,
			Categories: streams,
			Breakers:   breakers,
		}
		// The interface stays nil unless the archive exists.
		if sinks.archive != nil {
			deps.Archive = sinks.archive
		}

		router := api.NewRouter(api.NewHandler(deps), api.RateLimitConfig{
			Requests: cfg.Server.RateLimitReqs,
			Window:   cfg.Server.RateLimitWindow,
		})
		server := api.NewServer(&cfg.Server, router)
		tree.AddAPIService(services.NewAPIService(server, cfg.Supervisor.ShutdownTimeout))
		logging.Info().Str("addr", server.Addr).Msg("HTTP server enabled")
	}

	err = tree.Serve(ctx)

	if report, reportErr := tree.UnstoppedServiceReport(); reportErr == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop within the shutdown timeout")
		}
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor tree: %w", err)
	}
	logging.Info().Msg("Streamwatch stopped")
	return nil
}
