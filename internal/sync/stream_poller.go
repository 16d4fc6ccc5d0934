// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

package sync

import (
	"context"
	"time"

	"github.com/tomtom215/streamwatch/internal/logging"
	"github.com/tomtom215/streamwatch/internal/metrics"
	"github.com/tomtom215/streamwatch/internal/models"
	"github.com/tomtom215/streamwatch/internal/sink"
)

// StreamLoopName labels the viewer loop in logs, metrics and status.
const StreamLoopName = "streams"

// StreamPollerConfig holds the immutable settings of the viewer loop.
type StreamPollerConfig struct {
	Interval         time.Duration
	EventName        string
	Class            string // see StreamClass
	MinimumViewers   int
	CategoryCacheTTL time.Duration // 0 = never expire
}

// StreamSourceAPI is what the viewer loop needs from Twitch.
type StreamSourceAPI interface {
	StreamSource
	GameSource
}

// StreamPoller emits one viewer datapoint per live stream matching the
// planned shards, every interval.
type StreamPoller struct {
	config    StreamPollerConfig
	shards    []models.StreamFilter
	paginator *Paginator
	resolver  *CategoryResolver
	sink      sink.Sink

	now func() time.Time

	loop *loop
}

// NewStreamPoller creates the viewer loop. shards come from PlanShards.
func NewStreamPoller(api StreamSourceAPI, out sink.Sink, shards []models.StreamFilter, config StreamPollerConfig) *StreamPoller {
	p := &StreamPoller{
		config:    config,
		shards:    shards,
		paginator: NewPaginator(api, config.MinimumViewers),
		resolver:  NewCategoryResolver(api, config.CategoryCacheTTL),
		sink:      out,
		now:       time.Now,
	}
	p.loop = &loop{name: StreamLoopName, interval: config.Interval, tick: p.tick}
	return p
}

// Start begins the polling loop. The first tick runs immediately.
func (p *StreamPoller) Start(ctx context.Context) error {
	return p.loop.start(ctx)
}

// Stop stops the polling loop and waits for the current tick to finish.
func (p *StreamPoller) Stop() {
	p.loop.stop()
}

// Status reports tick counters and the last tick's stats.
func (p *StreamPoller) Status() LoopStatus {
	return p.loop.status()
}

// Categories returns the resolver cache.
func (p *StreamPoller) Categories() map[string]string {
	return p.resolver.Snapshot()
}

// tick drains every shard in order. All datapoints share one timestamp.
func (p *StreamPoller) tick(ctx context.Context) TickStats {
	ctx = logging.ContextWithNewCorrelationID(ctx)
	log := logging.Ctx(ctx)

	timestamp := p.now().UTC()
	stats := TickStats{StartedAt: timestamp}

	for i := range p.shards {
		if ctx.Err() != nil {
			break
		}
		shard := &p.shards[i]
		stats.Units++

		drained, err := p.paginator.Drain(ctx, *shard, func(page []models.Stream) {
			p.submitPage(ctx, page, timestamp, &stats)
		})

		stats.Pages += drained.Pages
		stats.SortViolations += drained.SortViolations
		if drained.EarlyStopped {
			stats.EarlyStops++
		}

		if err != nil {
			stats.UnitErrors++
			metrics.ShardErrors.Inc()
			log.Warn().Err(err).
				Int("shard", i).
				Int("user_logins", len(shard.UserLogins)).
				Strs("game_ids", shard.GameIDs).
				Strs("languages", shard.Languages).
				Msg("Shard aborted for this tick")
		}
	}

	log.Info().
		Time("timestamp", timestamp).
		Int("shards", stats.Units).
		Int("pages", stats.Pages).
		Int("datapoints", stats.Datapoints).
		Int("lost", stats.Lost).
		Msg("Stream tick complete")
	return stats
}

// submitPage resolves categories, assembles and submits one page.
func (p *StreamPoller) submitPage(ctx context.Context, page []models.Stream, timestamp time.Time, stats *TickStats) {
	batch := make([]models.Datapoint, 0, len(page))
	for i := range page {
		stream := &page[i]
		category := p.resolver.ResolveStream(ctx, stream)
		batch = append(batch, Assemble(stream, category, timestamp, p.config.EventName, p.config.Class))
	}

	accepted, err := p.sink.Submit(ctx, batch)
	stats.Datapoints += accepted
	if err != nil {
		lost := sink.LostCount(err, len(batch))
		stats.Lost += lost
		logging.Ctx(ctx).Error().Err(err).
			Int("batch", len(batch)).
			Int("lost", lost).
			Msg("Failed to submit datapoints")
		return
	}
	logging.Ctx(ctx).Debug().Int("datapoints", accepted).Msg("Datapoints submitted")
}
