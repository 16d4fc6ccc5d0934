// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/streamwatch/internal/models"
)

func newTestStreamPoller(api *fakeTwitch, out *recordingSink, shards []models.StreamFilter, minimumViewers int) *StreamPoller {
	return NewStreamPoller(api, out, shards, StreamPollerConfig{
		Interval:       time.Hour,
		EventName:      "zevent",
		Class:          StreamClass("twitch"),
		MinimumViewers: minimumViewers,
	})
}

func TestStreamPoller_MinimumViewersEndToEnd(t *testing.T) {
	t.Parallel()

	api := newFakeTwitch()
	api.games["g1"] = "Minecraft"
	api.addStreamPage("a", "", "cursor", stream("s1", "a", "g1", 50), stream("s2", "b", "g1", 10))
	out := &recordingSink{}

	shards, err := PlanShards(models.StreamFilter{First: 100, UserLogins: []string{"a", "b"}}, PlanOptions{})
	if err != nil {
		t.Fatalf("PlanShards() error = %v", err)
	}
	p := newTestStreamPoller(api, out, shards, 20)

	stats := p.tick(context.Background())

	batches := out.submitted()
	if len(batches) != 1 || len(batches[0]) != 1 {
		t.Fatalf("sink calls = %d, want exactly one batch of one", len(batches))
	}
	if got := batches[0][0].LabelMap()["user_name"]; got != "a" {
		t.Errorf("datapoint for %q, want a", got)
	}
	if n := len(api.streamRequests()); n != 1 {
		t.Errorf("stream requests = %d, want 1", n)
	}
	if stats.Datapoints != 1 || stats.EarlyStops != 1 || stats.Pages != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestStreamPoller_CategoryFailureUsesFallbackWithOneLookup(t *testing.T) {
	t.Parallel()

	api := newFakeTwitch()
	api.gameErrs["X"] = errUpstream
	api.addStreamPage("", "", "c1", stream("s1", "a", "X", 90), stream("s2", "b", "X", 80))
	api.addStreamPage("", "c1", "", stream("s3", "c", "X", 70))
	out := &recordingSink{}

	p := newTestStreamPoller(api, out, []models.StreamFilter{{First: 2}}, 0)
	p.tick(context.Background())
	p.tick(context.Background())

	var total int
	for _, batch := range out.submitted() {
		for _, dp := range batch {
			total++
			if got := dp.LabelMap()["game_name"]; got != FallbackCategory {
				t.Errorf("game_name = %q, want fallback", got)
			}
		}
	}
	if total != 6 {
		t.Errorf("datapoints = %d, want 6", total)
	}
	if n := api.lookups("X"); n != 1 {
		t.Errorf("lookups = %d, want 1", n)
	}
	if p.Categories()["X"] != FallbackCategory {
		t.Errorf("Categories() = %v", p.Categories())
	}
}

func TestStreamPoller_OneSubmissionPerPageSharedTimestamp(t *testing.T) {
	t.Parallel()

	api := newFakeTwitch()
	api.games["g"] = "Chess"
	api.addStreamPage("a", "", "c1", stream("s1", "a", "g", 90), stream("s2", "b", "g", 80))
	api.addStreamPage("a", "c1", "", stream("s3", "c", "g", 70))
	api.addStreamPage("x", "", "", stream("s4", "x", "g", 60))
	out := &recordingSink{}

	shards := []models.StreamFilter{
		{First: 2, UserLogins: []string{"a", "b", "c"}},
		{First: 2, UserLogins: []string{"x"}},
	}
	p := newTestStreamPoller(api, out, shards, 0)
	fixed := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	p.tick(context.Background())

	batches := out.submitted()
	if len(batches) != 3 {
		t.Fatalf("submissions = %d, want 3 (one per page)", len(batches))
	}
	for _, batch := range batches {
		for _, dp := range batch {
			if !dp.Timestamp.Equal(fixed) {
				t.Errorf("timestamp = %v, want %v", dp.Timestamp, fixed)
			}
		}
	}

	// Shards run in order, each drained before the next.
	calls := api.streamRequests()
	if len(calls) != 3 || calls[2].UserLogins[0] != "x" {
		t.Errorf("unexpected request order: %+v", calls)
	}
}

func TestStreamPoller_EmptyPageNotSubmitted(t *testing.T) {
	t.Parallel()

	api := newFakeTwitch()
	out := &recordingSink{}

	p := newTestStreamPoller(api, out, []models.StreamFilter{{First: 100}}, 0)
	p.tick(context.Background())

	if n := len(out.submitted()); n != 0 {
		t.Errorf("submissions = %d, want 0", n)
	}
}

func TestStreamPoller_ShardErrorDoesNotStopOtherShards(t *testing.T) {
	t.Parallel()

	api := newFakeTwitch()
	api.games["g"] = "Chess"
	api.streamErrs["a|"] = errUpstream
	api.addStreamPage("x", "", "", stream("s4", "x", "g", 60))
	out := &recordingSink{}

	shards := []models.StreamFilter{
		{First: 100, UserLogins: []string{"a"}},
		{First: 100, UserLogins: []string{"x"}},
	}
	stats := newTestStreamPoller(api, out, shards, 0).tick(context.Background())

	if stats.UnitErrors != 1 || stats.Units != 2 || stats.Datapoints != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if n := len(out.submitted()); n != 1 {
		t.Errorf("submissions = %d, want 1", n)
	}
}

func TestStreamPoller_SinkErrorCountsLoss(t *testing.T) {
	t.Parallel()

	api := newFakeTwitch()
	api.games["g"] = "Chess"
	api.addStreamPage("", "", "", stream("s1", "a", "g", 90), stream("s2", "b", "g", 80))
	out := &recordingSink{err: errors.New("warp10 down")}

	p := newTestStreamPoller(api, out, []models.StreamFilter{{First: 100}}, 0)
	stats := p.tick(context.Background())
	if stats.Lost != 2 || stats.Datapoints != 0 {
		t.Errorf("stats = %+v", stats)
	}

	// The loop keeps going on the next tick.
	out.err = nil
	stats = p.tick(context.Background())
	if stats.Datapoints != 2 {
		t.Errorf("second tick stats = %+v", stats)
	}
}

func TestStreamPoller_StartStop(t *testing.T) {
	t.Parallel()

	api := newFakeTwitch()
	api.games["g"] = "Chess"
	api.addStreamPage("", "", "", stream("s1", "a", "g", 90))
	out := &recordingSink{}

	p := NewStreamPoller(api, out, []models.StreamFilter{{First: 100}}, StreamPollerConfig{
		Interval:  10 * time.Millisecond,
		EventName: "ev",
		Class:     StreamClass("twitch"),
	})

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	// Starting twice is a no-op.
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for p.Status().Ticks < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	p.Stop()
	p.Stop()

	status := p.Status()
	if status.Ticks < 3 {
		t.Fatalf("ticks = %d, want at least 3", status.Ticks)
	}
	if status.Running || status.Loop != StreamLoopName || status.LastTick == nil {
		t.Errorf("status = %+v", status)
	}

	ticks := status.Ticks
	time.Sleep(30 * time.Millisecond)
	if got := p.Status().Ticks; got != ticks {
		t.Errorf("ticks advanced after Stop: %d -> %d", ticks, got)
	}
}

func TestStreamPoller_ImmediateFirstTick(t *testing.T) {
	t.Parallel()

	api := newFakeTwitch()
	out := &recordingSink{}

	p := newTestStreamPoller(api, out, []models.StreamFilter{{First: 100}}, 0) // hour-long interval
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer p.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for p.Status().Ticks == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if p.Status().Ticks != 1 {
		t.Errorf("ticks = %d, want 1 before the first interval elapses", p.Status().Ticks)
	}
}
