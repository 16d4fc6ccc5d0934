// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/streamwatch/internal/models"
	"github.com/tomtom215/streamwatch/internal/sync"
)

const archivePingTimeout = 2 * time.Second

// Health reports whether the process is doing its job. It is degraded (503)
// when a polling loop is not running, the archive does not answer or the
// Twitch circuit breaker of a loop is open.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	health := models.HealthStatus{
		Status:         "healthy",
		Version:        h.deps.Version,
		Uptime:         time.Since(h.startTime).Seconds(),
		EventName:      h.deps.EventName,
		Sinks:          h.deps.Sinks,
		ArchiveEnabled: h.deps.Archive != nil,
		LoopsRunning:   make(map[string]bool, len(h.deps.Loops)),
	}

	for _, l := range h.deps.Loops {
		status := l.Status()
		health.LoopsRunning[status.Loop] = status.Running
		if !status.Running {
			health.Status = "degraded"
		}
		if status.Loop == sync.StreamLoopName && status.LastTick != nil {
			at := status.LastTick.StartedAt
			health.LastStreamsTick = &at
		}
	}

	if h.deps.Archive != nil {
		ctx, cancel := context.WithTimeout(r.Context(), archivePingTimeout)
		health.ArchiveHealthy = h.deps.Archive.Ping(ctx) == nil
		cancel()
		if !health.ArchiveHealthy {
			health.Status = "degraded"
		}
	}

	if len(h.deps.Breakers) > 0 {
		health.TwitchBreakers = make(map[string]string, len(h.deps.Breakers))
		for _, b := range h.deps.Breakers {
			state := b.State()
			health.TwitchBreakers[b.Name()] = state
			if state == "open" {
				health.Status = "degraded"
			}
		}
	}

	status := http.StatusOK
	if health.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	respondData(w, status, health, started)
}
