// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

// Package config loads the Streamwatch configuration.
//
// One Config struct feeds every component. It is built once at startup in
// layers, each overriding the previous one:
//
//  1. Built-in defaults
//  2. YAML file (--config flag, CONFIG_PATH, ./config.yaml, /etc/streamwatch/config.yaml)
//  3. Environment variables (TWITCH_CLIENT_ID, WARP10_URL, EVENT_NAME, FILTERS, ...)
//  4. Command line flags
//
// Config is immutable after Load and safe for concurrent reads.
package config

import (
	"time"

	"github.com/tomtom215/streamwatch/internal/models"
)

// Config is the complete Streamwatch configuration.
type Config struct {
	Twitch     TwitchConfig        `koanf:"twitch"`
	Warp10     Warp10Config        `koanf:"warp10"`
	Poller     PollerConfig        `koanf:"poller"`
	Filters    models.StreamFilter `koanf:"filters"`
	Chat       ChatConfig          `koanf:"chat"`
	Sink       SinkConfig          `koanf:"sink"`
	NATS       NATSConfig          `koanf:"nats"`
	Archive    ArchiveConfig       `koanf:"archive"`
	Server     ServerConfig        `koanf:"server"`
	Supervisor SupervisorConfig    `koanf:"supervisor"`
	Logging    LoggingConfig       `koanf:"logging"`
}

// TwitchConfig holds the Twitch API credentials and client tuning.
//
// Environment Variables:
//   - TWITCH_CLIENT_ID, TWITCH_CLIENT_SECRET: application credentials (required)
//   - TWITCH_HELIX_URL, TWITCH_AUTH_URL, TWITCH_V5_URL: endpoint overrides
//   - TWITCH_REQUESTS_PER_SECOND, TWITCH_BURST: client-side pacing
//   - TWITCH_TIMEOUT: per-request timeout
type TwitchConfig struct {
	ClientID          string               `koanf:"client_id"`
	ClientSecret      string               `koanf:"client_secret"`
	HelixURL          string               `koanf:"helix_url"`
	AuthURL           string               `koanf:"auth_url"`
	V5URL             string               `koanf:"v5_url"`
	RequestsPerSecond float64              `koanf:"requests_per_second"`
	Burst             int                  `koanf:"burst"`
	Timeout           time.Duration        `koanf:"timeout"`
	MaxRateLimitWaits int                  `koanf:"max_rate_limit_waits"` // 429 responses tolerated per call
	CircuitBreaker    CircuitBreakerConfig `koanf:"circuit_breaker"`
}

// CircuitBreakerConfig tunes the breaker in front of the Twitch API.
type CircuitBreakerConfig struct {
	Enabled          bool          `koanf:"enabled"`
	MaxRequests      uint32        `koanf:"max_requests"`      // allowed in half-open state
	Interval         time.Duration `koanf:"interval"`          // closed-state counter reset
	Timeout          time.Duration `koanf:"timeout"`           // open -> half-open
	FailureThreshold uint32        `koanf:"failure_threshold"` // consecutive failures to trip
}

// Warp10Config holds the metrics store connection.
//
// Environment Variables:
//   - WARP10_URL: base URL of the Warp 10 instance
//   - WARP10_WRITE_TOKEN: write token
//   - WARP10_PREFIX: class prefix, datapoints go to {prefix}.viewers
type Warp10Config struct {
	URL        string        `koanf:"url"`
	WriteToken string        `koanf:"write_token"`
	Prefix     string        `koanf:"prefix"`
	Timeout    time.Duration `koanf:"timeout"`
}

// PollerConfig drives the stream metrics loop.
//
// Environment Variables:
//   - EVENT_NAME: value of the event_name label (required)
//   - MINIMUM_VIEWERS: early stop threshold (default: 0)
//   - POLL_INTERVAL: tick interval (default: 15s)
//   - CATEGORY_CACHE_TTL: category memo lifetime, 0 keeps names for the process lifetime
//   - LEGACY_SHARD_PLANNING: emit no shard for filters without user logins
type PollerConfig struct {
	EventName           string        `koanf:"event_name"`
	MinimumViewers      int           `koanf:"minimum_viewers"`
	Interval            time.Duration `koanf:"interval"`
	CategoryCacheTTL    time.Duration `koanf:"category_cache_ttl"`
	LegacyShardPlanning bool          `koanf:"legacy_shard_planning"`
}

// ChatConfig drives the optional chat statistics loop.
type ChatConfig struct {
	Enabled         bool          `koanf:"enabled"`
	VideoIDs        []string      `koanf:"video_ids"`
	Interval        time.Duration `koanf:"interval"`
	MaxPagesPerTick int           `koanf:"max_pages_per_tick"`
	DedupCapacity   int           `koanf:"dedup_capacity"`
	DedupTTL        time.Duration `koanf:"dedup_ttl"`
}

// SinkConfig selects where datapoints go.
//
// Outputs is any combination of "warp10", "nats", "archive" and
// "prometheus". Every batch is fanned out to all of them.
type SinkConfig struct {
	Outputs []string    `koanf:"outputs"`
	Retry   RetryConfig `koanf:"retry"`
}

// RetryConfig enables resubmission of failed batches. Off by default:
// a failed submission is logged and its datapoints are dropped.
type RetryConfig struct {
	Enabled    bool          `koanf:"enabled"`
	MaxRetries int           `koanf:"max_retries"`
	BaseDelay  time.Duration `koanf:"base_delay"`
	MaxDelay   time.Duration `koanf:"max_delay"`
}

// NATSConfig configures the NATS sink.
//
// With Embedded set, an in-process NATS server is started and the sink
// connects to it instead of URL, for single-host deployments.
type NATSConfig struct {
	URL            string        `koanf:"url"`
	Subject        string        `koanf:"subject"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
	Embedded       bool          `koanf:"embedded"`
	EmbeddedHost   string        `koanf:"embedded_host"`
	EmbeddedPort   int           `koanf:"embedded_port"`
}

// ArchiveConfig configures the DuckDB archive sink.
type ArchiveConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// SupervisorConfig tunes the suture supervisor tree.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig holds logging settings.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false - include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Sink output names.
const (
	OutputWarp10     = "warp10"
	OutputNATS       = "nats"
	OutputArchive    = "archive"
	OutputPrometheus = "prometheus"
)

// HasOutput reports whether the named sink output is enabled.
func (c *Config) HasOutput(name string) bool {
	for _, o := range c.Sink.Outputs {
		if o == name {
			return true
		}
	}
	return false
}

// StreamClass returns the class name of the stream viewers metric.
func (c *Config) StreamClass() string {
	return c.Warp10.Prefix + ".viewers"
}

// Load reads the configuration from all layers and validates it.
func Load(opts LoadOptions) (*Config, error) {
	return LoadWithKoanf(opts)
}
