// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

package twitch

import (
	"context"
	"errors"
	"fmt"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/streamwatch/internal/config"
	"github.com/tomtom215/streamwatch/internal/logging"
	"github.com/tomtom215/streamwatch/internal/metrics"
	"github.com/tomtom215/streamwatch/internal/models"
)

// Breaker names, one per polling loop. They label the breaker metrics.
const (
	StreamsBreaker = "twitch-streams"
	ChatBreaker    = "twitch-chat"
)

// CircuitBreakerClient wraps Client with a circuit breaker so a failing
// Twitch API is not hammered every tick. Rejected calls fail fast with
// gobreaker.ErrOpenState, which the pollers treat like any transport error.
//
// Each loop gets its own breaker over the shared Client: the rate limiter
// is shared (it is the API quota) but failures of one endpoint family do
// not reject the calls of the other loop.
type CircuitBreakerClient struct {
	client *Client
	cb     *gobreaker.CircuitBreaker[interface{}]
	name   string
}

// NewCircuitBreakerClient wraps client in a breaker called name. The breaker
// opens after cfg.FailureThreshold consecutive failures and probes again
// after cfg.Timeout.
func NewCircuitBreakerClient(name string, client *Client, cfg *config.CircuitBreakerConfig) *CircuitBreakerClient {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			shouldTrip := counts.ConsecutiveFailures >= threshold
			if shouldTrip {
				logging.Warn().
					Str("breaker", name).
					Uint32("consecutive_failures", counts.ConsecutiveFailures).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},

		// Cancellation is our own doing, not an API failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})

	return &CircuitBreakerClient{
		client: client,
		cb:     cb,
		name:   name,
	}
}

// Name returns the breaker name.
func (cbc *CircuitBreakerClient) Name() string {
	return cbc.name
}

// State reports the breaker state ("closed", "half-open", "open").
func (cbc *CircuitBreakerClient) State() string {
	return stateToString(cbc.cb.State())
}

func (cbc *CircuitBreakerClient) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := cbc.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "rejected").Inc()
			logging.Warn().Str("breaker", cbc.name).Err(err).Msg("[CIRCUIT BREAKER] Request rejected")
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "failure").Inc()
			counts := cbc.cb.Counts()
			metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbc.name).Set(float64(counts.ConsecutiveFailures))
		}
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbc.name).Set(0)
	return result, nil
}

// castResult type-asserts a breaker result back to the wrapped call's type.
func castResult[T any](result interface{}, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	typed, ok := result.(*T)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// GetStreams fetches one page of live streams with circuit breaker protection.
func (cbc *CircuitBreakerClient) GetStreams(ctx context.Context, filter models.StreamFilter) (*models.StreamsPage, error) {
	return castResult[models.StreamsPage](cbc.execute(func() (interface{}, error) {
		return cbc.client.GetStreams(ctx, filter)
	}))
}

// GetGames looks up categories with circuit breaker protection.
func (cbc *CircuitBreakerClient) GetGames(ctx context.Context, ids []string) (*models.GamesPage, error) {
	return castResult[models.GamesPage](cbc.execute(func() (interface{}, error) {
		return cbc.client.GetGames(ctx, ids)
	}))
}

// GetComments fetches replayed chat with circuit breaker protection.
func (cbc *CircuitBreakerClient) GetComments(ctx context.Context, videoID, cursor string) (*models.CommentsPage, error) {
	return castResult[models.CommentsPage](cbc.execute(func() (interface{}, error) {
		return cbc.client.GetComments(ctx, videoID, cursor)
	}))
}

var (
	_ API = (*Client)(nil)
	_ API = (*CircuitBreakerClient)(nil)
)
