// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/streamwatch/internal/models"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/streamwatch/config.yaml",
	"/etc/streamwatch/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// filtersJSONKey holds the raw FILTERS variable until it is expanded
// into the filters section.
const filtersJSONKey = "filters_json"

// LoadOptions carries the command line layer.
type LoadOptions struct {
	// ConfigPath is an explicit config file. When set it must exist.
	ConfigPath string

	// Overrides maps koanf paths (e.g. "poller.minimum_viewers") to values
	// set on the command line. They win over every other layer.
	Overrides map[string]interface{}
}

// defaultConfig returns a Config struct with all default values.
func defaultConfig() *Config {
	return &Config{
		Twitch: TwitchConfig{
			HelixURL:          "https://api.twitch.tv/helix",
			AuthURL:           "https://id.twitch.tv/oauth2/token",
			V5URL:             "https://api.twitch.tv/v5",
			RequestsPerSecond: 10, // Helix allows 800 points per minute
			Burst:             10,
			Timeout:           10 * time.Second,
			MaxRateLimitWaits: 3,
			CircuitBreaker: CircuitBreakerConfig{
				Enabled:          true,
				MaxRequests:      3,
				Interval:         time.Minute,
				Timeout:          30 * time.Second,
				FailureThreshold: 5,
			},
		},
		Warp10: Warp10Config{
			Prefix:  "twitch",
			Timeout: 10 * time.Second,
		},
		Poller: PollerConfig{
			MinimumViewers:      0,
			Interval:            15 * time.Second,
			CategoryCacheTTL:    0,
			LegacyShardPlanning: false,
		},
		Filters: models.StreamFilter{
			First: models.MaxFilterValues,
		},
		Chat: ChatConfig{
			Enabled:         false,
			Interval:        15 * time.Second,
			MaxPagesPerTick: 50,
			DedupCapacity:   100000,
			DedupTTL:        24 * time.Hour,
		},
		Sink: SinkConfig{
			Outputs: []string{OutputWarp10},
			Retry: RetryConfig{
				Enabled:    false,
				MaxRetries: 3,
				BaseDelay:  500 * time.Millisecond,
				MaxDelay:   5 * time.Second,
			},
		},
		NATS: NATSConfig{
			URL:            "nats://127.0.0.1:4222",
			Subject:        "streamwatch.datapoints",
			ConnectTimeout: 5 * time.Second,
			Embedded:       false,
			EmbeddedHost:   "127.0.0.1",
			EmbeddedPort:   4222,
		},
		Archive: ArchiveConfig{
			Path:      "/data/streamwatch.duckdb",
			MaxMemory: "512MB",
			Threads:   0,
		},
		Server: ServerConfig{
			Enabled:         true,
			Host:            "0.0.0.0",
			Port:            8080,
			Timeout:         30 * time.Second,
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5.0,
			FailureDecay:     30.0,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf with layered sources.
func LoadWithKoanf(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file (optional unless given explicitly)
	configPath, err := resolveConfigPath(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	if err := processFiltersJSON(k); err != nil {
		return nil, err
	}
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	// Layer 4: command line
	for path, val := range opts.Overrides {
		if err := k.Set(path, val); err != nil {
			return nil, fmt.Errorf("failed to apply flag %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// resolveConfigPath picks the config file: explicit path, then CONFIG_PATH,
// then the default locations. An explicit path that does not exist is an
// error; everything else falls through silently.
func resolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file %s: %w", explicit, err)
		}
		return explicit, nil
	}
	return findConfigFile(), nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// processFiltersJSON expands the FILTERS variable, a JSON object using the
// StreamFilter field names, into the filters section. It replaces any
// filters from the config file.
func processFiltersJSON(k *koanf.Koanf) error {
	raw, ok := k.Get(filtersJSONKey).(string)
	k.Delete(filtersJSONKey)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}

	var filter models.StreamFilter
	if err := json.Unmarshal([]byte(raw), &filter); err != nil {
		return fmt.Errorf("FILTERS is not a valid filter object: %w", err)
	}

	wrapper := struct {
		Filters models.StreamFilter `koanf:"filters"`
	}{Filters: filter}

	k.Delete("filters")
	if err := k.Load(structs.Provider(wrapper, "koanf"), nil); err != nil {
		return fmt.Errorf("failed to load FILTERS: %w", err)
	}
	return nil
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"filters.game_ids",
	"filters.languages",
	"filters.user_ids",
	"filters.user_logins",
	"chat.video_ids",
	"sink.outputs",
}

// processSliceFields converts comma-separated string values to slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// Unmapped variables are ignored so unrelated environment does not leak
// into the configuration.
var envMappings = map[string]string{
	// Twitch
	"twitch_client_id":                    "twitch.client_id",
	"twitch_client_secret":                "twitch.client_secret",
	"twitch_helix_url":                    "twitch.helix_url",
	"twitch_auth_url":                     "twitch.auth_url",
	"twitch_v5_url":                       "twitch.v5_url",
	"twitch_requests_per_second":          "twitch.requests_per_second",
	"twitch_burst":                        "twitch.burst",
	"twitch_timeout":                      "twitch.timeout",
	"twitch_max_rate_limit_waits":         "twitch.max_rate_limit_waits",
	"twitch_circuit_breaker_enabled":      "twitch.circuit_breaker.enabled",
	"twitch_circuit_breaker_max_requests": "twitch.circuit_breaker.max_requests",
	"twitch_circuit_breaker_interval":     "twitch.circuit_breaker.interval",
	"twitch_circuit_breaker_timeout":      "twitch.circuit_breaker.timeout",
	"twitch_circuit_breaker_failures":     "twitch.circuit_breaker.failure_threshold",

	// Warp 10
	"warp10_url":         "warp10.url",
	"warp10_write_token": "warp10.write_token",
	"warp10_prefix":      "warp10.prefix",
	"warp10_timeout":     "warp10.timeout",

	// Stream poller
	"event_name":            "poller.event_name",
	"minimum_viewers":       "poller.minimum_viewers",
	"poll_interval":         "poller.interval",
	"category_cache_ttl":    "poller.category_cache_ttl",
	"legacy_shard_planning": "poller.legacy_shard_planning",

	// Filters
	"filters":             filtersJSONKey,
	"filter_game_ids":     "filters.game_ids",
	"filter_languages":    "filters.languages",
	"filter_user_ids":     "filters.user_ids",
	"filter_user_logins":  "filters.user_logins",
	"filter_page_size":    "filters.first",
	"filter_after_cursor": "filters.after",

	// Chat
	"chat_enabled":            "chat.enabled",
	"chat_video_ids":          "chat.video_ids",
	"chat_interval":           "chat.interval",
	"chat_max_pages_per_tick": "chat.max_pages_per_tick",
	"chat_dedup_capacity":     "chat.dedup_capacity",
	"chat_dedup_ttl":          "chat.dedup_ttl",

	// Sinks
	"sink_outputs":           "sink.outputs",
	"sink_retry_enabled":     "sink.retry.enabled",
	"sink_retry_max_retries": "sink.retry.max_retries",
	"sink_retry_base_delay":  "sink.retry.base_delay",
	"sink_retry_max_delay":   "sink.retry.max_delay",
	"nats_url":               "nats.url",
	"nats_subject":           "nats.subject",
	"nats_connect_timeout":   "nats.connect_timeout",
	"nats_embedded":          "nats.embedded",
	"nats_embedded_host":     "nats.embedded_host",
	"nats_embedded_port":     "nats.embedded_port",
	"archive_path":           "archive.path",
	"archive_max_memory":     "archive.max_memory",
	"archive_threads":        "archive.threads",

	// HTTP server
	"http_enabled":      "server.enabled",
	"http_host":         "server.host",
	"http_port":         "server.port",
	"http_timeout":      "server.timeout",
	"rate_limit_reqs":   "server.rate_limit_reqs",
	"rate_limit_window": "server.rate_limit_window",

	// Supervisor
	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_decay":     "supervisor.failure_decay",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf paths.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
