// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

package twitch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/streamwatch/internal/config"
	"github.com/tomtom215/streamwatch/internal/models"
)

func testBreakerConfig() *config.CircuitBreakerConfig {
	return &config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 3,
	}
}

// The breaker shares prometheus labels across instances, so these tests
// stay serial.

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cbc := NewCircuitBreakerClient(StreamsBreaker, newTestClient(t, srv.URL), testBreakerConfig())
	if cbc.State() != "closed" {
		t.Fatalf("initial state = %s, want closed", cbc.State())
	}

	for i := 0; i < 3; i++ {
		_, err := cbc.GetStreams(context.Background(), models.StreamFilter{First: 100})
		if !errors.Is(err, ErrTransport) {
			t.Fatalf("call %d: error = %v, want ErrTransport", i, err)
		}
	}
	if cbc.State() != "open" {
		t.Fatalf("state = %s, want open", cbc.State())
	}

	_, err := cbc.GetGames(context.Background(), []string{"1"})
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("error = %v, want ErrOpenState", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("upstream calls = %d, want 3 (open circuit must not reach upstream)", got)
	}
}

func TestCircuitBreaker_SuccessPassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"id":"1","name":"Just Chatting"}]}`))
	}))
	defer srv.Close()

	cbc := NewCircuitBreakerClient(StreamsBreaker, newTestClient(t, srv.URL), testBreakerConfig())
	page, err := cbc.GetGames(context.Background(), []string{"1"})
	if err != nil {
		t.Fatalf("GetGames() error = %v", err)
	}
	if len(page.Data) != 1 || page.Data[0].Name != "Just Chatting" {
		t.Errorf("unexpected page: %+v", page)
	}
}

func TestCircuitBreaker_CancellationDoesNotTrip(t *testing.T) {
	cbc := NewCircuitBreakerClient(StreamsBreaker, newTestClient(t, "http://127.0.0.1:1"), testBreakerConfig())

	for i := 0; i < 5; i++ {
		_, _ = cbc.execute(func() (interface{}, error) {
			return nil, context.Canceled
		})
	}
	if cbc.State() != "closed" {
		t.Errorf("state = %s, want closed", cbc.State())
	}
}

func TestCastResult(t *testing.T) {
	t.Parallel()

	if _, err := castResult[models.GamesPage]("wrong", nil); err == nil {
		t.Error("expected error for wrong result type")
	}
	sentinel := errors.New("boom")
	if _, err := castResult[models.GamesPage](nil, sentinel); !errors.Is(err, sentinel) {
		t.Errorf("error = %v, want sentinel", err)
	}
	page := &models.GamesPage{}
	if got, err := castResult[models.GamesPage](page, nil); err != nil || got != page {
		t.Errorf("castResult() = %v, %v", got, err)
	}
}

func TestCircuitBreaker_PerLoopBreakersAreIndependent(t *testing.T) {
	var streamCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v5/videos/v1/comments":
			w.WriteHeader(http.StatusGone)
		case "/helix/streams":
			streamCalls.Add(1)
			_, _ = w.Write([]byte(`{"data":[],"pagination":{}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	streams := NewCircuitBreakerClient(StreamsBreaker, client, testBreakerConfig())
	chat := NewCircuitBreakerClient(ChatBreaker, client, testBreakerConfig())

	for i := 0; i < 5; i++ {
		if _, err := chat.GetComments(context.Background(), "v1", ""); err == nil {
			t.Fatalf("call %d: expected an error from the gone comments endpoint", i)
		}
	}
	if chat.State() != "open" {
		t.Fatalf("chat breaker = %s, want open", chat.State())
	}

	if _, err := streams.GetStreams(context.Background(), models.StreamFilter{First: 100}); err != nil {
		t.Fatalf("GetStreams() error = %v, want the streams breaker unaffected", err)
	}
	if streams.State() != "closed" {
		t.Errorf("streams breaker = %s, want closed", streams.State())
	}
	if streamCalls.Load() != 1 {
		t.Errorf("stream calls = %d, want 1", streamCalls.Load())
	}
	if streams.Name() != StreamsBreaker || chat.Name() != ChatBreaker {
		t.Errorf("names = %q, %q", streams.Name(), chat.Name())
	}
}
