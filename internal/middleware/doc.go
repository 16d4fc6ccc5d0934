// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

/*
Package middleware provides the HTTP middleware of the Streamwatch API.

  - RequestID: X-Request-ID propagation, also used as logging correlation ID
  - PrometheusMetrics: request count and latency by chi route pattern

Both have the func(http.Handler) http.Handler shape and plug into chi:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
*/
package middleware
