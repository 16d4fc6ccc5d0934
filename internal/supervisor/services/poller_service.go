// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

package services

import (
	"context"
	"fmt"
)

// Poller is the lifecycle of the polling loops. *sync.StreamPoller and
// *sync.ChatPoller satisfy it.
type Poller interface {
	Start(ctx context.Context) error
	Stop()
}

// PollerService runs a Poller under supervision: Start, wait for the
// context, Stop. Stop blocks until the in-flight tick has finished.
type PollerService struct {
	poller Poller
	name   string
}

// NewPollerService wraps poller. The name identifies it in supervisor logs.
func NewPollerService(name string, poller Poller) *PollerService {
	return &PollerService{
		poller: poller,
		name:   name,
	}
}

// Serve implements suture.Service. A Start error is returned so the
// supervisor restarts the service with backoff.
func (s *PollerService) Serve(ctx context.Context) error {
	if err := s.poller.Start(ctx); err != nil {
		return fmt.Errorf("%s start failed: %w", s.name, err)
	}

	<-ctx.Done()
	s.poller.Stop()

	return ctx.Err()
}

// String implements fmt.Stringer for suture's logs.
func (s *PollerService) String() string {
	return s.name
}
