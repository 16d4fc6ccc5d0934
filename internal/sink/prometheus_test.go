// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

package sink

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/streamwatch/internal/models"
)

func TestPrometheusSink_SetsLatestValue(t *testing.T) {
	t.Parallel()

	s := NewPrometheusSink(prometheus.NewRegistry(), 0)
	ctx := context.Background()

	if _, err := s.Submit(ctx, []models.Datapoint{streamPoint("alice", 10)}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if _, err := s.Submit(ctx, []models.Datapoint{streamPoint("alice", 25)}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	gauge := s.viewers.WithLabelValues("zevent", "s-alice", "33214", "Fortnite", "u-alice", "alice")
	if got := testutil.ToFloat64(gauge); got != 25 {
		t.Errorf("viewers = %v, want 25", got)
	}
	if got := testutil.CollectAndCount(s.viewers); got != 1 {
		t.Errorf("series = %d, want 1", got)
	}
}

func TestPrometheusSink_ChatSeries(t *testing.T) {
	t.Parallel()

	s := NewPrometheusSink(prometheus.NewRegistry(), 0)
	batch := []models.Datapoint{
		chatPoint("stream.chat.messages", 12),
		chatPoint("stream.chat.commenters", 4),
	}
	n, err := s.Submit(context.Background(), batch)
	if err != nil || n != 2 {
		t.Fatalf("Submit() = %d, %v", n, err)
	}

	gauge := s.chat.WithLabelValues("stream.chat.commenters", "zevent", "v1", "c1")
	if got := testutil.ToFloat64(gauge); got != 4 {
		t.Errorf("commenters = %v, want 4", got)
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}

func TestPrometheusSink_UnknownSchema(t *testing.T) {
	t.Parallel()

	s := NewPrometheusSink(prometheus.NewRegistry(), 0)
	odd := models.Datapoint{
		Class:  "stream.other",
		Labels: []models.Label{{Key: "foo", Value: "bar"}},
		Value:  1,
	}

	n, err := s.Submit(context.Background(), []models.Datapoint{streamPoint("alice", 1), odd})
	if n != 1 {
		t.Errorf("accepted = %d, want 1", n)
	}
	if !errors.Is(err, ErrUnknownSchema) {
		t.Fatalf("error = %v, want ErrUnknownSchema", err)
	}
	if LostCount(err, 2) != 1 {
		t.Errorf("LostCount() = %d, want 1", LostCount(err, 2))
	}
}

func TestPrometheusSink_PrunesStaleSeries(t *testing.T) {
	t.Parallel()

	s := NewPrometheusSink(prometheus.NewRegistry(), time.Minute)
	now := testTick
	s.now = func() time.Time { return now }
	ctx := context.Background()

	if _, err := s.Submit(ctx, []models.Datapoint{streamPoint("alice", 10), streamPoint("bob", 3)}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	now = now.Add(30 * time.Second)
	if _, err := s.Submit(ctx, []models.Datapoint{streamPoint("bob", 4)}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 before expiry", s.Len())
	}

	now = now.Add(45 * time.Second)
	if _, err := s.Submit(ctx, []models.Datapoint{streamPoint("bob", 5)}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after alice expired", s.Len())
	}
	if got := testutil.CollectAndCount(s.viewers); got != 1 {
		t.Errorf("series = %d, want 1", got)
	}
}
