// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

package sink

import (
	"context"
	"errors"
	"strings"

	"github.com/tomtom215/streamwatch/internal/models"
)

// MultiName is the sink name used in logs and metrics.
const MultiName = "multi"

// Multi fans a batch out to several sinks in order. Every sink receives
// the batch even if an earlier one failed.
type Multi struct {
	sinks []Sink
}

// NewMulti fans out to sinks.
func NewMulti(sinks ...Sink) *Multi {
	return &Multi{sinks: sinks}
}

// Name implements Sink.
func (m *Multi) Name() string {
	names := make([]string, len(m.sinks))
	for i, s := range m.sinks {
		names[i] = s.Name()
	}
	return MultiName + "(" + strings.Join(names, ",") + ")"
}

// Sinks returns the fan-out targets.
func (m *Multi) Sinks() []Sink {
	return m.sinks
}

// Submit implements Sink. A datapoint counts as lost when at least one
// sink lost it, so the reported loss is the largest loss of any sink. The
// returned error joins every sink error.
func (m *Multi) Submit(ctx context.Context, batch []models.Datapoint) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	var errs []error
	lost := 0
	for _, s := range m.sinks {
		_, err := s.Submit(ctx, batch)
		if err == nil {
			continue
		}
		errs = append(errs, err)
		if n := LostCount(err, len(batch)); n > lost {
			lost = n
		}
	}

	if len(errs) == 0 {
		return len(batch), nil
	}
	return len(batch) - lost, &Error{Sink: MultiName, Lost: lost, Err: errors.Join(errs...)}
}
