// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

package sync

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/streamwatch/internal/logging"
	"github.com/tomtom215/streamwatch/internal/metrics"
)

// TickStats summarizes one tick of a polling loop.
type TickStats struct {
	StartedAt      time.Time     `json:"started_at"`
	Duration       time.Duration `json:"duration_ns"`
	Units          int           `json:"units"`       // shards or videos processed
	UnitErrors     int           `json:"unit_errors"` // shards or videos aborted
	Pages          int           `json:"pages"`
	Datapoints     int           `json:"datapoints"`
	Lost           int           `json:"lost"`
	EarlyStops     int           `json:"early_stops,omitempty"`
	SortViolations int           `json:"sort_violations,omitempty"`
	Duplicates     int           `json:"duplicates,omitempty"`
}

// LoopStatus is the externally visible state of a polling loop.
type LoopStatus struct {
	Loop     string        `json:"loop"`
	Running  bool          `json:"running"`
	Interval time.Duration `json:"interval_ns"`
	Ticks    uint64        `json:"ticks"`
	LastTick *TickStats    `json:"last_tick,omitempty"`
}

// loop is the Start/Stop lifecycle shared by the pollers: one goroutine,
// an immediate first tick, then one tick per interval until stopped.
type loop struct {
	name     string
	interval time.Duration
	tick     func(ctx context.Context) TickStats

	mu       sync.RWMutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup

	ticks    uint64
	lastTick *TickStats
}

func (l *loop) start(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return nil
	}
	l.running = true
	l.stopChan = make(chan struct{})
	l.mu.Unlock()

	logging.Info().Str("loop", l.name).Dur("interval", l.interval).Msg("Starting poller")

	l.wg.Add(1)
	go l.pollLoop(ctx)

	return nil
}

func (l *loop) stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.running = false
	close(l.stopChan)
	l.mu.Unlock()

	l.wg.Wait()
	logging.Info().Str("loop", l.name).Msg("Poller stopped")
}

func (l *loop) pollLoop(ctx context.Context) {
	defer l.wg.Done()

	l.runTick(ctx)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.stopChan:
			return
		case <-ticker.C:
			l.runTick(ctx)
		}
	}
}

func (l *loop) runTick(ctx context.Context) {
	start := time.Now()
	stats := l.tick(ctx)
	stats.Duration = time.Since(start)
	metrics.RecordTick(l.name, stats.Duration)

	l.mu.Lock()
	l.ticks++
	l.lastTick = &stats
	l.mu.Unlock()
}

func (l *loop) status() LoopStatus {
	l.mu.RLock()
	defer l.mu.RUnlock()

	status := LoopStatus{
		Loop:     l.name,
		Running:  l.running,
		Interval: l.interval,
		Ticks:    l.ticks,
	}
	if l.lastTick != nil {
		last := *l.lastTick
		status.LastTick = &last
	}
	return status
}
