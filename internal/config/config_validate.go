// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tomtom215/streamwatch/internal/models"
)

// Validate checks that required configuration is present and valid.
// Filter list limits are enforced by the shard planner, which owns the
// InvalidFilter error.
func (c *Config) Validate() error {
	if err := c.validateTwitch(); err != nil {
		return err
	}
	if err := c.validatePoller(); err != nil {
		return err
	}
	if err := c.validateFilters(); err != nil {
		return err
	}
	if err := c.validateChat(); err != nil {
		return err
	}
	if err := c.validateSink(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateTwitch() error {
	if c.Twitch.ClientID == "" {
		return fmt.Errorf("TWITCH_CLIENT_ID is required")
	}
	if c.Twitch.ClientSecret == "" {
		return fmt.Errorf("TWITCH_CLIENT_SECRET is required")
	}
	for name, raw := range map[string]string{
		"TWITCH_HELIX_URL": c.Twitch.HelixURL,
		"TWITCH_AUTH_URL":  c.Twitch.AuthURL,
		"TWITCH_V5_URL":    c.Twitch.V5URL,
	} {
		if err := validateEndpointURL(raw, name); err != nil {
			return err
		}
	}
	if c.Twitch.RequestsPerSecond <= 0 {
		return fmt.Errorf("TWITCH_REQUESTS_PER_SECOND must be positive")
	}
	if c.Twitch.Burst < 1 {
		return fmt.Errorf("TWITCH_BURST must be at least 1")
	}
	if c.Twitch.Timeout <= 0 {
		return fmt.Errorf("TWITCH_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validatePoller() error {
	if c.Poller.EventName == "" {
		return fmt.Errorf("EVENT_NAME is required")
	}
	if c.Poller.MinimumViewers < 0 {
		return fmt.Errorf("MINIMUM_VIEWERS must be >= 0, got %d", c.Poller.MinimumViewers)
	}
	if c.Poller.Interval < time.Second {
		return fmt.Errorf("POLL_INTERVAL must be at least 1s, got %s", c.Poller.Interval)
	}
	if c.Poller.CategoryCacheTTL < 0 {
		return fmt.Errorf("CATEGORY_CACHE_TTL must be >= 0")
	}
	if c.Warp10.Prefix == "" {
		return fmt.Errorf("WARP10_PREFIX is required")
	}
	return nil
}

// validateFilters only rejects shapes no planner mode can serve; list
// sizes are checked later.
func (c *Config) validateFilters() error {
	if c.Filters.First < 0 || c.Filters.First > models.MaxFilterValues {
		return fmt.Errorf("filters.first must be between 1 and %d, got %d", models.MaxFilterValues, c.Filters.First)
	}
	if c.Filters.After != "" && c.Filters.Before != "" {
		return fmt.Errorf("filters.after and filters.before are mutually exclusive")
	}
	return nil
}

func (c *Config) validateChat() error {
	if !c.Chat.Enabled {
		return nil
	}
	if len(c.Chat.VideoIDs) == 0 {
		return fmt.Errorf("CHAT_VIDEO_IDS is required when CHAT_ENABLED=true")
	}
	if c.Chat.Interval < time.Second {
		return fmt.Errorf("CHAT_INTERVAL must be at least 1s, got %s", c.Chat.Interval)
	}
	if c.Chat.MaxPagesPerTick < 1 {
		return fmt.Errorf("CHAT_MAX_PAGES_PER_TICK must be at least 1")
	}
	return nil
}

func (c *Config) validateSink() error {
	if len(c.Sink.Outputs) == 0 {
		return fmt.Errorf("SINK_OUTPUTS must name at least one output")
	}

	seen := make(map[string]bool, len(c.Sink.Outputs))
	for _, o := range c.Sink.Outputs {
		switch o {
		case OutputWarp10:
			if err := c.validateWarp10(); err != nil {
				return err
			}
		case OutputNATS:
			if err := validateNATSURL(c.NATS.URL); err != nil {
				return fmt.Errorf("NATS_URL: %w", err)
			}
			if c.NATS.Subject == "" {
				return fmt.Errorf("NATS_SUBJECT is required for the nats output")
			}
			if c.NATS.Embedded && (c.NATS.EmbeddedPort < -1 || c.NATS.EmbeddedPort > 65535) {
				return fmt.Errorf("NATS_EMBEDDED_PORT must be between -1 and 65535, got %d", c.NATS.EmbeddedPort)
			}
		case OutputArchive:
			if c.Archive.Path == "" {
				return fmt.Errorf("ARCHIVE_PATH is required for the archive output")
			}
		case OutputPrometheus:
		default:
			return fmt.Errorf("unknown sink output %q (valid: warp10, nats, archive, prometheus)", o)
		}
		if seen[o] {
			return fmt.Errorf("sink output %q listed twice", o)
		}
		seen[o] = true
	}

	if c.Sink.Retry.Enabled {
		if c.Sink.Retry.MaxRetries < 1 {
			return fmt.Errorf("SINK_RETRY_MAX_RETRIES must be at least 1 when retries are enabled")
		}
		if c.Sink.Retry.BaseDelay <= 0 || c.Sink.Retry.MaxDelay < c.Sink.Retry.BaseDelay {
			return fmt.Errorf("SINK_RETRY_BASE_DELAY must be positive and not exceed SINK_RETRY_MAX_DELAY")
		}
	}
	return nil
}

func (c *Config) validateWarp10() error {
	if c.Warp10.URL == "" {
		return fmt.Errorf("WARP10_URL is required for the warp10 output")
	}
	if err := validateEndpointURL(c.Warp10.URL, "WARP10_URL"); err != nil {
		return err
	}
	if c.Warp10.WriteToken == "" {
		return fmt.Errorf("WARP10_WRITE_TOKEN is required for the warp10 output")
	}
	return nil
}

func (c *Config) validateServer() error {
	if !c.Server.Enabled {
		return nil
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.RateLimitReqs < 0 {
		return fmt.Errorf("RATE_LIMIT_REQS must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error; got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console; got %q", c.Logging.Format)
	}
	return nil
}

// validateEndpointURL validates an http(s) URL with a host. Paths are
// allowed since Twitch endpoints carry them.
func validateEndpointURL(rawURL, fieldName string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %q", fieldName, parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}
	if parsedURL.RawQuery != "" {
		return fmt.Errorf("%s should not contain query parameters", fieldName)
	}
	return nil
}

// validateNATSURL validates that the NATS URL is properly formatted.
func validateNATSURL(rawURL string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}

	validSchemes := map[string]bool{"nats": true, "tls": true, "ws": true, "wss": true}
	if !validSchemes[parsedURL.Scheme] {
		return fmt.Errorf("scheme must be nats, tls, ws, or wss, got: %s", parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("host is required (e.g., localhost:4222)")
	}
	return nil
}
