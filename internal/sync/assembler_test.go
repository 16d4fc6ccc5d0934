// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

package sync

import (
	"reflect"
	"testing"
	"time"

	"github.com/tomtom215/streamwatch/internal/models"
)

func TestAssemble(t *testing.T) {
	t.Parallel()

	tick := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	s := models.Stream{
		ID:          "40952121085",
		UserID:      "101051819",
		UserLogin:   "afro",
		UserName:    "Afro",
		GameID:      "32982",
		ViewerCount: 1490,
	}

	dp := Assemble(&s, "Grand Theft Auto V", tick, "zevent", StreamClass("twitch"))

	if !reflect.DeepEqual(dp.LabelKeys(), models.StreamLabelKeys) {
		t.Fatalf("label keys = %v, want %v", dp.LabelKeys(), models.StreamLabelKeys)
	}
	want := map[string]string{
		"event_name": "zevent",
		"stream_id":  "40952121085",
		"game_id":    "32982",
		"game_name":  "Grand Theft Auto V",
		"user_id":    "101051819",
		"user_name":  "afro",
	}
	if got := dp.LabelMap(); !reflect.DeepEqual(got, want) {
		t.Errorf("labels = %v, want %v", got, want)
	}
	if dp.Value != 1490 || dp.Class != "twitch.viewers" || !dp.Timestamp.Equal(tick) {
		t.Errorf("unexpected datapoint: %+v", dp)
	}
}

func TestClassNames(t *testing.T) {
	t.Parallel()

	if got := StreamClass("zevent"); got != "zevent.viewers" {
		t.Errorf("StreamClass() = %q", got)
	}
	if got := ChatMessagesClass("zevent"); got != "zevent.chat.messages" {
		t.Errorf("ChatMessagesClass() = %q", got)
	}
	if got := ChatCommentersClass("zevent"); got != "zevent.chat.commenters" {
		t.Errorf("ChatCommentersClass() = %q", got)
	}
}

func TestAssembleChat(t *testing.T) {
	t.Parallel()

	tick := time.Now()
	dp := AssembleChat("v1", "c1", tick, "ev", ChatMessagesClass("p"), 12)
	want := []models.Label{
		{Key: models.LabelEventName, Value: "ev"},
		{Key: models.LabelVideoID, Value: "v1"},
		{Key: models.LabelChannelID, Value: "c1"},
	}
	if !reflect.DeepEqual(dp.Labels, want) || dp.Value != 12 {
		t.Errorf("AssembleChat() = %+v", dp)
	}
}
