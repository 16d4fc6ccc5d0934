// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

/*
Package sink delivers datapoint batches to metrics stores.

Every destination implements Sink. Submit returns the number of datapoints
accepted; on failure the error is a *Error carrying the number lost.

Destinations:
  - Warp10Sink: GTS input format over HTTP (the default)
  - NATSSink: JSON batches on a NATS subject through Watermill
  - ArchiveSink: DuckDB table for offline analysis
  - PrometheusSink: latest value per label set on /metrics
  - Multi: fan-out to several of the above

Submission behavior is a policy wrapped around a Sink. FireAndForget makes
one attempt and reports the loss; RetryPolicy retries with exponential
backoff. Pollers only ever see the Sink interface.
*/
package sink

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/streamwatch/internal/models"
)

// Sink accepts batches of datapoints.
type Sink interface {
	// Name identifies the sink in logs and metrics.
	Name() string

	// Submit delivers batch and returns how many datapoints were accepted.
	// A non-nil error is a *Error.
	Submit(ctx context.Context, batch []models.Datapoint) (int, error)
}

// Error reports a failed submission and how many datapoints were lost.
type Error struct {
	Sink string
	Lost int
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("sink %s: %d datapoints lost: %v", e.Sink, e.Lost, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// LostCount extracts the lost count from a Submit error. Errors that are
// not a *Error count the whole batch as lost.
func LostCount(err error, batchSize int) int {
	if err == nil {
		return 0
	}
	var sinkErr *Error
	if errors.As(err, &sinkErr) {
		return sinkErr.Lost
	}
	return batchSize
}
