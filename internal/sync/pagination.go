// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

package sync

import (
	"context"
	"fmt"

	"github.com/tomtom215/streamwatch/internal/logging"
	"github.com/tomtom215/streamwatch/internal/metrics"
	"github.com/tomtom215/streamwatch/internal/models"
)

// Phase is the pagination state of one shard.
type Phase int

const (
	PhaseRequesting Phase = iota
	PhaseContinuing
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseRequesting:
		return "requesting"
	case PhaseContinuing:
		return "continuing"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// PaginationState is the cursor and phase of one shard within a tick.
type PaginationState struct {
	After string
	Phase Phase
}

// Advance applies one page response to state. A full page continues with
// nextCursor when there is one; a short page, or a full page without a
// cursor, ends the shard and clears the cursor.
func Advance(state PaginationState, recordCount, pageSize int, nextCursor string) PaginationState {
	switch {
	case nextCursor == "":
		return PaginationState{Phase: PhaseDone}
	case recordCount > pageSize:
		// Helix ignored first. The page still counts as full.
	case recordCount < pageSize:
		return PaginationState{Phase: PhaseDone}
	}
	state.After = nextCursor
	state.Phase = PhaseContinuing
	return state
}

// StreamSource fetches pages of live streams.
type StreamSource interface {
	GetStreams(ctx context.Context, filter models.StreamFilter) (*models.StreamsPage, error)
}

// DrainStats summarizes one shard drain.
type DrainStats struct {
	Pages          int
	Records        int  // records received
	Emitted        int  // records handed to onPage
	EarlyStopped   bool // a record fell below the minimum viewer count
	SortViolations int
}

// Paginator drains a shard page by page with minimum-viewer early stop.
type Paginator struct {
	source         StreamSource
	minimumViewers int
}

// NewPaginator creates a paginator. minimumViewers <= 0 disables early stop.
func NewPaginator(source StreamSource, minimumViewers int) *Paginator {
	return &Paginator{source: source, minimumViewers: minimumViewers}
}

// Drain requests shard until the Done phase, calling onPage with the
// surviving records of each page that has any. Records are never buffered
// across pages.
//
// Early stop relies on Helix ordering streams by descending viewer count:
// the first record below the minimum drops itself and the rest of its page
// and ends the shard. An ordering violation is logged and counted but does
// not change that behavior.
//
// A fetch error ends the shard and is returned; pages already delivered to
// onPage stay delivered.
func (p *Paginator) Drain(ctx context.Context, shard models.StreamFilter, onPage func([]models.Stream)) (DrainStats, error) {
	var stats DrainStats

	pageSize := shard.First
	if pageSize <= 0 {
		pageSize = models.MaxFilterValues
	}

	state := PaginationState{After: shard.After, Phase: PhaseRequesting}
	request := shard
	previousViewers := -1

	for state.Phase != PhaseDone {
		request.After = state.After
		// Helix rejects after and before together, and a continuation
		// cursor already encodes the window.
		if state.Phase == PhaseContinuing {
			request.Before = ""
		}
		page, err := p.source.GetStreams(ctx, request)
		if err != nil {
			return stats, fmt.Errorf("page %d (after=%q): %w", stats.Pages+1, state.After, err)
		}
		stats.Pages++
		stats.Records += len(page.Data)
		metrics.PagesFetched.Inc()

		kept := page.Data
		stopped := false
		for i := range page.Data {
			stream := &page.Data[i]
			if previousViewers >= 0 && stream.ViewerCount > previousViewers {
				stats.SortViolations++
				metrics.SortOrderViolations.Inc()
				logging.Ctx(ctx).Warn().
					Str("stream_id", stream.ID).
					Str("user_login", stream.UserLogin).
					Int("viewer_count", stream.ViewerCount).
					Int("previous_viewer_count", previousViewers).
					Msg("Streams not in descending viewer order")
			}
			previousViewers = stream.ViewerCount

			if p.minimumViewers > 0 && stream.ViewerCount < p.minimumViewers {
				kept = page.Data[:i]
				stopped = true
				break
			}
		}

		state = Advance(state, len(page.Data), pageSize, page.Pagination.Cursor)
		if stopped {
			state = PaginationState{Phase: PhaseDone}
			stats.EarlyStopped = true
			metrics.EarlyStops.Inc()
		}

		if len(kept) > 0 {
			stats.Emitted += len(kept)
			onPage(kept)
		}
	}

	return stats, nil
}
