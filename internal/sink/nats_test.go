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

	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/streamwatch/internal/config"
	"github.com/tomtom215/streamwatch/internal/models"
)

func startTestServer(t *testing.T) *EmbeddedServer {
	t.Helper()

	srv, err := StartEmbeddedServer("127.0.0.1", -1)
	if err != nil {
		t.Fatalf("StartEmbeddedServer() error = %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv
}

func TestEmbeddedServer(t *testing.T) {
	srv := startTestServer(t)

	if !srv.IsRunning() {
		t.Error("server should be running")
	}
	if srv.ClientURL() == "" {
		t.Error("ClientURL() should not be empty")
	}
}

func TestNATSSink_PublishesBatch(t *testing.T) {
	srv := startTestServer(t)

	nc, err := natsgo.Connect(srv.ClientURL())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer nc.Close()

	sub, err := nc.SubscribeSync("streamwatch.datapoints")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := nc.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	s, err := NewNATSSink(&config.NATSConfig{
		URL:     srv.ClientURL(),
		Subject: "streamwatch.datapoints",
	})
	if err != nil {
		t.Fatalf("NewNATSSink() error = %v", err)
	}
	defer func() { _ = s.Close() }()

	batch := []models.Datapoint{streamPoint("alice", 10), streamPoint("bob", 5)}
	n, err := s.Submit(context.Background(), batch)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if n != 2 {
		t.Errorf("accepted = %d, want 2", n)
	}

	msg, err := sub.NextMsg(5 * time.Second)
	if err != nil {
		t.Fatalf("NextMsg() error = %v", err)
	}

	var got Batch
	if err := json.Unmarshal(msg.Data, &got); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if len(got.Datapoints) != 2 {
		t.Fatalf("datapoints = %d, want 2", len(got.Datapoints))
	}
	if got.Datapoints[0].Class != "stream.viewers" || got.Datapoints[1].Value != 5 {
		t.Errorf("datapoints = %+v", got.Datapoints)
	}
	if !got.Datapoints[0].Timestamp.Equal(testTick) {
		t.Errorf("timestamp = %v, want %v", got.Datapoints[0].Timestamp, testTick)
	}
	if got.Datapoints[0].LabelMap()[models.LabelUserName] != "alice" {
		t.Errorf("labels = %+v", got.Datapoints[0].Labels)
	}
}

func TestNATSSink_Closed(t *testing.T) {
	srv := startTestServer(t)

	s, err := NewNATSSink(&config.NATSConfig{URL: srv.ClientURL(), Subject: "closed"})
	if err != nil {
		t.Fatalf("NewNATSSink() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	_, err = s.Submit(context.Background(), []models.Datapoint{streamPoint("alice", 1)})
	if !errors.Is(err, ErrSinkClosed) {
		t.Errorf("Submit() after Close error = %v, want ErrSinkClosed", err)
	}
	if LostCount(err, 1) != 1 {
		t.Error("closed sink should report the batch as lost")
	}
}
