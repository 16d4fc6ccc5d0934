// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// RateLimitConfig configures the per-IP limiter of /api/v1.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// RateLimit returns an httprate limiter keyed by client IP. Requests <= 0
// disables limiting.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	if cfg.Requests <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}

	return httprate.Limit(
		cfg.Requests,
		cfg.Window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			respondError(w, http.StatusTooManyRequests, CodeRateLimited, "Rate limit exceeded", nil)
		}),
	)
}
