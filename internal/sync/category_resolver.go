// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

package sync

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/streamwatch/internal/cache"
	"github.com/tomtom215/streamwatch/internal/logging"
	"github.com/tomtom215/streamwatch/internal/metrics"
	"github.com/tomtom215/streamwatch/internal/models"
)

// FallbackCategory names streams whose category could not be resolved.
const FallbackCategory = "Pas de catégorie"

// GameSource looks up categories by id.
type GameSource interface {
	GetGames(ctx context.Context, ids []string) (*models.GamesPage, error)
}

// CategoryResolver maps category ids to display names. Every answer,
// including the fallback for unknown ids and failed lookups, is memoized,
// so each id costs at most one lookup per cache lifetime.
//
// One resolver belongs to one polling loop.
type CategoryResolver struct {
	source GameSource
	cache  *cache.Store[string]
	group  singleflight.Group
}

// NewCategoryResolver creates a resolver. ttl 0 keeps names for the life of
// the process.
func NewCategoryResolver(source GameSource, ttl time.Duration) *CategoryResolver {
	return &CategoryResolver{
		source: source,
		cache:  cache.NewStore[string](ttl),
	}
}

// Resolve returns the display name for gameID. It never fails.
func (r *CategoryResolver) Resolve(ctx context.Context, gameID string) string {
	return r.resolve(ctx, gameID, nil)
}

// ResolveStream resolves the category of stream, logging the record when
// the fallback is used.
func (r *CategoryResolver) ResolveStream(ctx context.Context, stream *models.Stream) string {
	return r.resolve(ctx, stream.GameID, stream)
}

func (r *CategoryResolver) resolve(ctx context.Context, gameID string, stream *models.Stream) string {
	if gameID == "" {
		return FallbackCategory
	}

	if name, ok := r.cache.Get(gameID); ok {
		metrics.CategoryCacheHits.Inc()
		return name
	}
	metrics.CategoryCacheMisses.Inc()

	v, _, _ := r.group.Do(gameID, func() (interface{}, error) {
		// A concurrent caller may have filled the cache while we queued.
		if name, ok := r.cache.Get(gameID); ok {
			return name, nil
		}
		name, ok := r.lookup(ctx, gameID, stream)
		// A lookup cut short by shutdown is not memoized.
		if ok || ctx.Err() == nil {
			r.cache.Set(gameID, name)
		}
		return name, nil
	})
	return v.(string)
}

// lookup queries the API once. ok is false when the fallback was used
// because of an error.
func (r *CategoryResolver) lookup(ctx context.Context, gameID string, stream *models.Stream) (string, bool) {
	page, err := r.source.GetGames(ctx, []string{gameID})
	if err != nil {
		metrics.CategoryLookups.WithLabelValues("error").Inc()
		event := logging.Ctx(ctx).Warn().Err(err).Str("game_id", gameID)
		if stream != nil {
			event = event.Interface("stream", stream)
		}
		event.Msg("Category lookup failed, using fallback")
		return FallbackCategory, false
	}

	if len(page.Data) > 0 {
		metrics.CategoryLookups.WithLabelValues("found").Inc()
		return page.Data[0].Name, true
	}

	metrics.CategoryLookups.WithLabelValues("unknown").Inc()
	event := logging.Ctx(ctx).Warn().Str("game_id", gameID)
	if stream != nil {
		event = event.Interface("stream", stream)
	}
	event.Msg("Unknown category, using fallback")
	return FallbackCategory, true
}

// Snapshot returns the cached id to name mapping.
func (r *CategoryResolver) Snapshot() map[string]string {
	return r.cache.Snapshot()
}

// Len returns the number of cached categories.
func (r *CategoryResolver) Len() int {
	return r.cache.Len()
}
