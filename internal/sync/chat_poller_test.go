// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

package sync

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/streamwatch/internal/models"
)

func comment(id, channelID, commenterID string) models.Comment {
	return models.Comment{
		ID:        id,
		ChannelID: channelID,
		Commenter: models.Commenter{ID: commenterID, Name: "user-" + commenterID},
		Message:   models.CommentMessage{Body: "gg"},
	}
}

func newTestChatPoller(api *fakeTwitch, out *recordingSink, videos ...string) *ChatPoller {
	return NewChatPoller(api, out, ChatPollerConfig{
		Interval:      time.Hour,
		EventName:     "zevent",
		Prefix:        "twitch",
		VideoIDs:      videos,
		DedupCapacity: 1000,
		DedupTTL:      time.Hour,
	})
}

// valuesByClass flattens one batch into class -> value.
func valuesByClass(batch []models.Datapoint) map[string]int64 {
	out := make(map[string]int64, len(batch))
	for _, dp := range batch {
		out[dp.Class] = dp.Value
	}
	return out
}

func TestChatPoller_CountsAndDeduplicates(t *testing.T) {
	t.Parallel()

	api := newFakeTwitch()
	api.commentPages["v1|"] = &models.CommentsPage{
		Comments: []models.Comment{
			comment("c1", "ch1", "u1"),
			comment("c2", "ch1", "u2"),
			comment("c3", "ch1", "u1"),
		},
	}
	out := &recordingSink{}
	p := newTestChatPoller(api, out, "v1")

	first := p.tick(context.Background())
	second := p.tick(context.Background())

	batches := out.submitted()
	if len(batches) != 2 {
		t.Fatalf("submissions = %d, want 2", len(batches))
	}

	got := valuesByClass(batches[0])
	if got["twitch.chat.messages"] != 3 || got["twitch.chat.commenters"] != 2 {
		t.Errorf("first tick values = %v", got)
	}
	if labels := batches[0][0].LabelMap(); labels["channel_id"] != "ch1" || labels["video_id"] != "v1" || labels["event_name"] != "zevent" {
		t.Errorf("labels = %v", labels)
	}

	got = valuesByClass(batches[1])
	if got["twitch.chat.messages"] != 0 || got["twitch.chat.commenters"] != 0 {
		t.Errorf("second tick re-counted comments: %v", got)
	}
	if first.Duplicates != 0 || second.Duplicates != 3 {
		t.Errorf("duplicates = %d, %d", first.Duplicates, second.Duplicates)
	}
}

func TestChatPoller_FollowsAndKeepsCursor(t *testing.T) {
	t.Parallel()

	api := newFakeTwitch()
	api.commentPages["v1|"] = &models.CommentsPage{Comments: []models.Comment{comment("c1", "ch", "u1")}, Next: "n1"}
	api.commentPages["v1|n1"] = &models.CommentsPage{Comments: []models.Comment{comment("c2", "ch", "u2")}}
	out := &recordingSink{}
	p := newTestChatPoller(api, out, "v1")

	stats := p.tick(context.Background())
	if stats.Pages != 2 {
		t.Errorf("pages = %d, want 2", stats.Pages)
	}
	if got := valuesByClass(out.submitted()[0])["twitch.chat.messages"]; got != 2 {
		t.Errorf("messages = %d, want 2", got)
	}

	p.tick(context.Background())
	api.mu.Lock()
	calls := append([]string(nil), api.commentCalls...)
	api.mu.Unlock()

	want := []string{"v1|", "v1|n1", "v1|n1"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, calls[i], want[i])
		}
	}
}

func TestChatPoller_PageLimit(t *testing.T) {
	t.Parallel()

	api := newFakeTwitch()
	api.commentPages["v1|"] = &models.CommentsPage{Next: "a"}
	api.commentPages["v1|a"] = &models.CommentsPage{Next: "b"}
	api.commentPages["v1|b"] = &models.CommentsPage{Next: "c"}
	out := &recordingSink{}

	p := NewChatPoller(api, out, ChatPollerConfig{
		Interval:        time.Hour,
		Prefix:          "twitch",
		VideoIDs:        []string{"v1"},
		MaxPagesPerTick: 2,
	})
	if stats := p.tick(context.Background()); stats.Pages != 2 {
		t.Errorf("pages = %d, want 2", stats.Pages)
	}
	if p.cursors["v1"] != "b" {
		t.Errorf("cursor = %q, want b", p.cursors["v1"])
	}
}

func TestChatPoller_ErrorSkipsOnlyThatVideo(t *testing.T) {
	t.Parallel()

	api := newFakeTwitch()
	api.commentErrs["bad|"] = errUpstream
	api.commentPages["good|"] = &models.CommentsPage{Comments: []models.Comment{comment("c1", "ch", "u1")}}
	out := &recordingSink{}

	stats := newTestChatPoller(api, out, "bad", "good").tick(context.Background())

	if stats.UnitErrors != 1 || stats.Units != 2 {
		t.Errorf("stats = %+v", stats)
	}
	batches := out.submitted()
	if len(batches) != 1 || batches[0][0].LabelMap()["video_id"] != "good" {
		t.Errorf("batches = %+v", batches)
	}
}

func TestChatPoller_FailedLaterPageStillCountsEarlierPages(t *testing.T) {
	t.Parallel()

	api := newFakeTwitch()
	api.commentPages["v1|"] = &models.CommentsPage{
		Comments: []models.Comment{comment("c1", "ch", "u1"), comment("c2", "ch", "u2")},
		Next:     "p2",
	}
	api.commentErrs["v1|p2"] = errUpstream
	out := &recordingSink{}
	p := newTestChatPoller(api, out, "v1")

	first := p.tick(context.Background())
	if first.UnitErrors != 1 || first.Pages != 1 {
		t.Errorf("first tick stats = %+v", first)
	}

	api.mu.Lock()
	delete(api.commentErrs, "v1|p2")
	api.commentPages["v1|p2"] = &models.CommentsPage{Comments: []models.Comment{comment("c3", "ch", "u1")}}
	api.mu.Unlock()

	p.tick(context.Background())

	batches := out.submitted()
	if len(batches) != 2 {
		t.Fatalf("submissions = %d, want 2", len(batches))
	}
	var messages int64
	for _, batch := range batches {
		messages += valuesByClass(batch)["twitch.chat.messages"]
	}
	if messages != 3 {
		t.Errorf("messages over both ticks = %d, want 3", messages)
	}
	if got := valuesByClass(batches[0]); got["twitch.chat.messages"] != 2 || got["twitch.chat.commenters"] != 2 {
		t.Errorf("first tick values = %v", got)
	}
}
