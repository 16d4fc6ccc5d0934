// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

// Package metrics holds the Prometheus self-instrumentation of Streamwatch.
// Collectors are registered on the default registry through promauto and
// exposed by the HTTP service on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Poller Metrics
	PollerTicks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamwatch_poller_ticks_total",
			Help: "Total number of poller ticks",
		},
		[]string{"loop"}, // "streams", "chat"
	)

	PollerTickDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "streamwatch_poller_tick_duration_seconds",
			Help:    "Duration of one poller tick in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30, 60},
		},
		[]string{"loop"},
	)

	PollerLastTick = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "streamwatch_poller_last_tick_timestamp_seconds",
			Help: "Unix timestamp of the last completed tick",
		},
		[]string{"loop"},
	)

	PagesFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "streamwatch_pages_fetched_total",
			Help: "Total number of stream pages fetched",
		},
	)

	ShardErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "streamwatch_shard_errors_total",
			Help: "Total number of shards aborted for a tick by a transport or decode error",
		},
	)

	EarlyStops = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "streamwatch_early_stops_total",
			Help: "Total number of shards stopped early by the minimum viewer threshold",
		},
	)

	SortOrderViolations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "streamwatch_sort_order_violations_total",
			Help: "Total number of stream pages not sorted by descending viewer count",
		},
	)

	// Sink Metrics
	DatapointsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamwatch_datapoints_submitted_total",
			Help: "Total number of datapoints accepted by a sink",
		},
		[]string{"sink"},
	)

	DatapointsLost = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamwatch_datapoints_lost_total",
			Help: "Total number of datapoints lost to a failed submission",
		},
		[]string{"sink"},
	)

	SinkSubmitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "streamwatch_sink_submit_duration_seconds",
			Help:    "Duration of one batch submission in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"sink"},
	)

	SinkRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamwatch_sink_retries_total",
			Help: "Total number of batch resubmissions by the retry policy",
		},
		[]string{"sink"},
	)

	// Category Cache Metrics
	CategoryCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "streamwatch_category_cache_hits_total",
			Help: "Total number of category names served from the cache",
		},
	)

	CategoryCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "streamwatch_category_cache_misses_total",
			Help: "Total number of category cache misses",
		},
	)

	CategoryLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamwatch_category_lookups_total",
			Help: "Total number of category lookups by outcome",
		},
		[]string{"result"}, // "found", "unknown", "error"
	)

	// Chat Metrics
	ChatCommentsSeen = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamwatch_chat_comments_total",
			Help: "Total number of chat comments fetched by dedup outcome",
		},
		[]string{"result"}, // "new", "duplicate"
	)

	// Twitch API Metrics
	TwitchRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "streamwatch_twitch_request_duration_seconds",
			Help:    "Duration of Twitch API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "status"},
	)

	TwitchRateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamwatch_twitch_rate_limited_total",
			Help: "Total number of HTTP 429 responses from the Twitch API",
		},
		[]string{"endpoint"},
	)

	// Archive Metrics
	ArchiveWriteDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "streamwatch_archive_write_duration_seconds",
			Help:    "Duration of DuckDB archive writes in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ArchiveWriteErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "streamwatch_archive_write_errors_total",
			Help: "Total number of failed DuckDB archive writes",
		},
	)

	// HTTP API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamwatch_api_requests_total",
			Help: "Total number of HTTP API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "streamwatch_api_request_duration_seconds",
			Help:    "Duration of HTTP API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordTick records one completed poller tick.
func RecordTick(loop string, duration time.Duration) {
	PollerTicks.WithLabelValues(loop).Inc()
	PollerTickDuration.WithLabelValues(loop).Observe(duration.Seconds())
	PollerLastTick.WithLabelValues(loop).Set(float64(time.Now().Unix()))
}

// RecordSubmission records the outcome of one batch submission.
func RecordSubmission(sink string, accepted, lost int, duration time.Duration) {
	SinkSubmitDuration.WithLabelValues(sink).Observe(duration.Seconds())
	if accepted > 0 {
		DatapointsSubmitted.WithLabelValues(sink).Add(float64(accepted))
	}
	if lost > 0 {
		DatapointsLost.WithLabelValues(sink).Add(float64(lost))
	}
}

// RecordTwitchRequest records a Twitch API call.
func RecordTwitchRequest(endpoint string, statusCode int, duration time.Duration) {
	status := "error"
	if statusCode > 0 {
		status = strconv.Itoa(statusCode)
	}
	TwitchRequestDuration.WithLabelValues(endpoint, status).Observe(duration.Seconds())
}

// RecordAPIRequest records an HTTP API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordArchiveWrite records a DuckDB archive write.
func RecordArchiveWrite(duration time.Duration, err error) {
	ArchiveWriteDuration.Observe(duration.Seconds())
	if err != nil {
		ArchiveWriteErrors.Inc()
	}
}
