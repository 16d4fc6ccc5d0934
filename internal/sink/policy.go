// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

package sink

import (
	"context"
	"errors"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"

	"github.com/tomtom215/streamwatch/internal/config"
	"github.com/tomtom215/streamwatch/internal/logging"
	"github.com/tomtom215/streamwatch/internal/metrics"
	"github.com/tomtom215/streamwatch/internal/models"
)

// Policy is a Sink that decides what happens when its target fails.
type Policy interface {
	Sink
	// Target returns the wrapped sink.
	Target() Sink
}

// FireAndForget makes exactly one attempt. A failed batch is dropped and
// its size reported as lost.
type FireAndForget struct {
	target Sink
}

// NewFireAndForget wraps target.
func NewFireAndForget(target Sink) *FireAndForget {
	return &FireAndForget{target: target}
}

// Name implements Sink.
func (p *FireAndForget) Name() string { return p.target.Name() }

// Target implements Policy.
func (p *FireAndForget) Target() Sink { return p.target }

// Submit implements Sink.
func (p *FireAndForget) Submit(ctx context.Context, batch []models.Datapoint) (int, error) {
	start := time.Now()
	accepted, err := p.target.Submit(ctx, batch)
	return record(ctx, p.target.Name(), batch, accepted, err, time.Since(start))
}

// RetryPolicy resubmits a failed batch with exponential backoff and
// jitter. Cancellation and schema errors are never retried.
type RetryPolicy struct {
	target   Sink
	executor failsafe.Executor[int]
}

// NewRetryPolicy wraps target with the retry settings in cfg.
func NewRetryPolicy(target Sink, cfg config.RetryConfig) *RetryPolicy {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 500 * time.Millisecond
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		cfg.MaxDelay = cfg.BaseDelay
	}

	name := target.Name()
	retry := retrypolicy.NewBuilder[int]().
		WithBackoff(cfg.BaseDelay, cfg.MaxDelay).
		WithMaxRetries(cfg.MaxRetries).
		WithJitterFactor(0.1).
		HandleIf(func(_ int, err error) bool {
			return isRetryable(err)
		}).
		OnRetry(func(e failsafe.ExecutionEvent[int]) {
			metrics.SinkRetries.WithLabelValues(name).Inc()
			logging.Warn().
				Err(e.LastError()).
				Str("sink", name).
				Int("attempt", e.Attempts()).
				Msg("Retrying datapoint submission")
		}).
		ReturnLastFailure().
		Build()

	return &RetryPolicy{
		target:   target,
		executor: failsafe.With[int](retry),
	}
}

// Name implements Sink.
func (p *RetryPolicy) Name() string { return p.target.Name() }

// Target implements Policy.
func (p *RetryPolicy) Target() Sink { return p.target }

// Submit implements Sink.
func (p *RetryPolicy) Submit(ctx context.Context, batch []models.Datapoint) (int, error) {
	start := time.Now()
	accepted, err := p.executor.WithContext(ctx).Get(func() (int, error) {
		return p.target.Submit(ctx, batch)
	})
	return record(ctx, p.target.Name(), batch, accepted, err, time.Since(start))
}

// NewPolicy returns a RetryPolicy when retries are enabled and
// FireAndForget otherwise.
func NewPolicy(target Sink, cfg config.RetryConfig) Policy {
	if cfg.Enabled && cfg.MaxRetries > 0 {
		return NewRetryPolicy(target, cfg)
	}
	return NewFireAndForget(target)
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrUnknownSchema) || errors.Is(err, ErrSinkClosed) {
		return false
	}
	return true
}

// record normalizes the error to a *Error, updates the sink metrics and
// logs the loss.
func record(ctx context.Context, name string, batch []models.Datapoint, accepted int, err error, elapsed time.Duration) (int, error) {
	lost := 0
	if err != nil {
		lost = LostCount(err, len(batch))
		var sinkErr *Error
		if !errors.As(err, &sinkErr) {
			err = &Error{Sink: name, Lost: lost, Err: err}
		}
		logging.Ctx(ctx).Warn().
			Err(err).
			Str("sink", name).
			Int("batch", len(batch)).
			Int("lost", lost).
			Msg("Datapoints dropped")
	}
	metrics.RecordSubmission(name, accepted, lost, elapsed)
	return accepted, err
}
