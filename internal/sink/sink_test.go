// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

package sink

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/streamwatch/internal/models"
)

var errDown = errors.New("store unavailable")

// funcSink is a Sink whose behavior is supplied per test.
type funcSink struct {
	name  string
	calls atomic.Int32
	fn    func(call int, batch []models.Datapoint) (int, error)
}

func (s *funcSink) Name() string { return s.name }

func (s *funcSink) Submit(_ context.Context, batch []models.Datapoint) (int, error) {
	call := int(s.calls.Add(1))
	return s.fn(call, batch)
}

func okSink(name string) *funcSink {
	return &funcSink{name: name, fn: func(_ int, batch []models.Datapoint) (int, error) {
		return len(batch), nil
	}}
}

func failingSink(name string, lost int) *funcSink {
	return &funcSink{name: name, fn: func(_ int, _ []models.Datapoint) (int, error) {
		return 0, &Error{Sink: name, Lost: lost, Err: errDown}
	}}
}

var testTick = time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)

func streamPoint(login string, viewers int64) models.Datapoint {
	return models.Datapoint{
		Timestamp: testTick,
		Class:     "stream.viewers",
		Labels: []models.Label{
			{Key: models.LabelEventName, Value: "zevent"},
			{Key: models.LabelStreamID, Value: "s-" + login},
			{Key: models.LabelGameID, Value: "33214"},
			{Key: models.LabelGameName, Value: "Fortnite"},
			{Key: models.LabelUserID, Value: "u-" + login},
			{Key: models.LabelUserName, Value: login},
		},
		Value: viewers,
	}
}

func chatPoint(class string, value int64) models.Datapoint {
	return models.Datapoint{
		Timestamp: testTick,
		Class:     class,
		Labels: []models.Label{
			{Key: models.LabelEventName, Value: "zevent"},
			{Key: models.LabelVideoID, Value: "v1"},
			{Key: models.LabelChannelID, Value: "c1"},
		},
		Value: value,
	}
}

func TestError(t *testing.T) {
	t.Parallel()

	err := &Error{Sink: "warp10", Lost: 3, Err: errDown}
	if got, want := err.Error(), "sink warp10: 3 datapoints lost: store unavailable"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, errDown) {
		t.Error("Error should unwrap to the cause")
	}
}

func TestLostCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"sink error", &Error{Lost: 2, Err: errDown}, 2},
		{"wrapped sink error", errors.Join(errDown, &Error{Lost: 1, Err: errDown}), 1},
		{"plain error", errDown, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := LostCount(tt.err, 5); got != tt.want {
				t.Errorf("LostCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMulti_AllSucceed(t *testing.T) {
	t.Parallel()

	a, b := okSink("a"), okSink("b")
	m := NewMulti(a, b)

	n, err := m.Submit(context.Background(), []models.Datapoint{streamPoint("alice", 1), streamPoint("bob", 2)})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if n != 2 {
		t.Errorf("accepted = %d, want 2", n)
	}
	if a.calls.Load() != 1 || b.calls.Load() != 1 {
		t.Errorf("calls = %d/%d, want 1/1", a.calls.Load(), b.calls.Load())
	}
	if got := m.Name(); got != "multi(a,b)" {
		t.Errorf("Name() = %q", got)
	}
}

func TestMulti_FailureDoesNotStopFanOut(t *testing.T) {
	t.Parallel()

	first := failingSink("first", 2)
	second := okSink("second")
	third := failingSink("third", 1)
	m := NewMulti(first, second, third)

	batch := []models.Datapoint{streamPoint("a", 1), streamPoint("b", 2), streamPoint("c", 3)}
	n, err := m.Submit(context.Background(), batch)
	if err == nil {
		t.Fatal("Submit() should fail when a sink fails")
	}
	if second.calls.Load() != 1 || third.calls.Load() != 1 {
		t.Error("every sink should receive the batch")
	}

	var sinkErr *Error
	if !errors.As(err, &sinkErr) {
		t.Fatalf("error %T is not a *Error", err)
	}
	if sinkErr.Lost != 2 {
		t.Errorf("Lost = %d, want the largest loss 2", sinkErr.Lost)
	}
	if n != 1 {
		t.Errorf("accepted = %d, want 1", n)
	}
	if !errors.Is(err, errDown) {
		t.Error("joined error should unwrap to the sink causes")
	}
}

func TestMulti_EmptyBatch(t *testing.T) {
	t.Parallel()

	a := okSink("a")
	n, err := NewMulti(a).Submit(context.Background(), nil)
	if err != nil || n != 0 {
		t.Errorf("Submit(nil) = %d, %v", n, err)
	}
	if a.calls.Load() != 0 {
		t.Error("empty batch should not reach the sinks")
	}
}
