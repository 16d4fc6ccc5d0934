// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

package api

import (
	"context"
	"time"

	"github.com/tomtom215/streamwatch/internal/database"
	"github.com/tomtom215/streamwatch/internal/sync"
)

// LoopStatusProvider is implemented by the polling loops.
type LoopStatusProvider interface {
	Status() sync.LoopStatus
}

// CategoryProvider exposes the category memo of the stream loop.
type CategoryProvider interface {
	Categories() map[string]string
}

// ArchiveReader is the read side of the DuckDB archive.
type ArchiveReader interface {
	Ping(ctx context.Context) error
	Summaries(ctx context.Context) ([]database.ClassSummary, error)
}

// BreakerStateProvider reports the state of one Twitch circuit breaker.
type BreakerStateProvider interface {
	Name() string
	State() string
}

// Dependencies are the components the handlers read from. Categories,
// Archive and Breakers are optional.
type Dependencies struct {
	Version    string
	EventName  string
	Sinks      []string
	Loops      []LoopStatusProvider
	Categories CategoryProvider
	Archive    ArchiveReader
	Breakers   []BreakerStateProvider
}

// Handler serves the API endpoints.
type Handler struct {
	deps      Dependencies
	startTime time.Time
}

// NewHandler creates a handler over deps.
func NewHandler(deps Dependencies) *Handler {
	if deps.Version == "" {
		deps.Version = "dev"
	}
	return &Handler{
		deps:      deps,
		startTime: time.Now(),
	}
}
