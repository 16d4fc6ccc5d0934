// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

type fakePoller struct {
	startErr error
	starts   atomic.Int32
	stops    atomic.Int32
}

func (f *fakePoller) Start(context.Context) error {
	f.starts.Add(1)
	return f.startErr
}

func (f *fakePoller) Stop() {
	f.stops.Add(1)
}

var _ suture.Service = (*PollerService)(nil)

func TestPollerService_Lifecycle(t *testing.T) {
	t.Parallel()

	poller := &fakePoller{}
	svc := NewPollerService("stream-poller", poller)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	deadline := time.Now().Add(time.Second)
	for poller.starts.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if poller.starts.Load() != 1 {
		t.Fatal("poller was not started")
	}
	if poller.stops.Load() != 0 {
		t.Error("poller stopped before cancellation")
	}

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve() did not return")
	}
	if poller.stops.Load() != 1 {
		t.Errorf("stops = %d, want 1", poller.stops.Load())
	}
}

func TestPollerService_StartError(t *testing.T) {
	t.Parallel()

	poller := &fakePoller{startErr: errors.New("no shards")}
	svc := NewPollerService("chat-poller", poller)

	err := svc.Serve(context.Background())
	if !errors.Is(err, poller.startErr) {
		t.Errorf("Serve() error = %v, want the start error", err)
	}
	if poller.stops.Load() != 0 {
		t.Error("a poller that failed to start should not be stopped")
	}
	if svc.String() != "chat-poller" {
		t.Errorf("String() = %q", svc.String())
	}
}
