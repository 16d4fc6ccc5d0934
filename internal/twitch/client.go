// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

/*
Package twitch is the HTTP client for the Twitch APIs Streamwatch reads.

Endpoints:
  - POST {auth_url}                       client-credentials grant (Authorize)
  - GET  {helix_url}/streams              live streams (GetStreams)
  - GET  {helix_url}/games                category names (GetGames)
  - GET  {v5_url}/videos/{id}/comments    replayed chat (GetComments)

Resilience:
  - Client-side pacing with a token bucket (golang.org/x/time/rate)
  - HTTP 429 handling with exponential backoff, honoring Retry-After and
    Ratelimit-Reset
  - Optional circuit breaker (CircuitBreakerClient)

The token obtained by Authorize is used for the whole process lifetime.
*/
package twitch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/streamwatch/internal/config"
	"github.com/tomtom215/streamwatch/internal/metrics"
	"github.com/tomtom215/streamwatch/internal/models"
)

// maxErrorBodySize limits the maximum amount of response body read for error reporting
const maxErrorBodySize = 64 * 1024 // 64KB

// API is the subset of Twitch calls the polling loops make.
// Implemented by *Client and *CircuitBreakerClient.
type API interface {
	GetStreams(ctx context.Context, filter models.StreamFilter) (*models.StreamsPage, error)
	GetGames(ctx context.Context, ids []string) (*models.GamesPage, error)
	GetComments(ctx context.Context, videoID, cursor string) (*models.CommentsPage, error)
}

// Client talks to the Twitch APIs.
type Client struct {
	helixURL     string
	authURL      string
	v5URL        string
	clientID     string
	clientSecret string

	client  *http.Client
	limiter *rate.Limiter

	maxRateLimitWaits int           // 429 responses tolerated per call
	retryBaseDelay    time.Duration // base delay for exponential backoff

	mu    sync.RWMutex
	token string
}

// NewClient creates a Twitch client. Call Authorize before any other method.
func NewClient(cfg *config.TwitchConfig) *Client {
	limit := rate.Limit(cfg.RequestsPerSecond)
	if cfg.RequestsPerSecond <= 0 {
		limit = rate.Inf
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		helixURL:          strings.TrimRight(cfg.HelixURL, "/"),
		authURL:           cfg.AuthURL,
		v5URL:             strings.TrimRight(cfg.V5URL, "/"),
		clientID:          cfg.ClientID,
		clientSecret:      cfg.ClientSecret,
		client:            &http.Client{Timeout: timeout},
		limiter:           rate.NewLimiter(limit, burst),
		maxRateLimitWaits: cfg.MaxRateLimitWaits,
		retryBaseDelay:    time.Second,
	}
}

// accessToken returns the bearer token obtained by Authorize.
func (c *Client) accessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// doRequestWithRateLimit paces the request through the limiter and retries
// HTTP 429 responses with exponential backoff (1s, 2s, 4s, ...). Any other
// response, successful or not, is returned to the caller.
func (c *Client) doRequestWithRateLimit(ctx context.Context, method, reqURL, endpoint string) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, method, reqURL, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Client-ID", c.clientID)
		if token := c.accessToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		start := time.Now()
		resp, err := c.client.Do(req)
		if err != nil {
			metrics.RecordTwitchRequest(endpoint, 0, time.Since(start))
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: %s: %v", ErrTransport, endpoint, err)
		}
		metrics.RecordTwitchRequest(endpoint, resp.StatusCode, time.Since(start))

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		metrics.TwitchRateLimited.WithLabelValues(endpoint).Inc()
		_ = resp.Body.Close()

		if attempt >= c.maxRateLimitWaits {
			return nil, &StatusError{
				Endpoint:   endpoint,
				StatusCode: http.StatusTooManyRequests,
				Body:       fmt.Sprintf("rate limit exceeded after %d retries", attempt),
			}
		}

		delay := rateLimitDelay(resp.Header, c.retryBaseDelay*time.Duration(1<<uint(attempt)), time.Now())
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}
}

// rateLimitDelay picks the wait before retrying a 429: Retry-After seconds,
// else the Helix Ratelimit-Reset epoch, else the exponential fallback.
func rateLimitDelay(h http.Header, fallback time.Duration, now time.Time) time.Duration {
	if v := h.Get("Retry-After"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil && seconds >= 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	if v := h.Get("Ratelimit-Reset"); v != "" {
		if epoch, err := strconv.ParseInt(v, 10, 64); err == nil {
			if d := time.Unix(epoch, 0).Sub(now); d > 0 && d < time.Minute {
				return d
			}
		}
	}
	return fallback
}

// getJSON performs a GET and decodes a 200 response into result.
func (c *Client) getJSON(ctx context.Context, reqURL, endpoint string, result interface{}) error {
	resp, err := c.doRequestWithRateLimit(ctx, http.MethodGet, reqURL, endpoint)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       string(readBodyForError(resp.Body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDecode, endpoint, err)
	}
	return nil
}

// readBodyForError reads the response body for error reporting (max 64KB)
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}
