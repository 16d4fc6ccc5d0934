// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

package database

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/streamwatch/internal/config"
	"github.com/tomtom215/streamwatch/internal/models"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(&config.ArchiveConfig{Path: MemoryPath, Threads: 1})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func viewerDatapoint(ts time.Time, login string, viewers int64) models.Datapoint {
	return models.Datapoint{
		Timestamp: ts,
		Class:     "twitch.viewers",
		Labels: []models.Label{
			{Key: models.LabelEventName, Value: "zevent"},
			{Key: models.LabelStreamID, Value: "s-" + login},
			{Key: models.LabelGameID, Value: "1"},
			{Key: models.LabelGameName, Value: "Pas de catégorie"},
			{Key: models.LabelUserID, Value: "u-" + login},
			{Key: models.LabelUserName, Value: login},
		},
		Value: viewers,
	}
}

func TestConnectionString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cfg      config.ArchiveConfig
		contains []string
		excludes []string
	}{
		{
			name:     "file",
			cfg:      config.ArchiveConfig{Path: "/data/a.duckdb", MaxMemory: "512MB", Threads: 2},
			contains: []string{"/data/a.duckdb?", "access_mode=read_write", "threads=2", "max_memory=512MB", "autoload_known_extensions=false"},
		},
		{
			name:     "memory",
			cfg:      config.ArchiveConfig{Path: MemoryPath, Threads: 1},
			contains: []string{":memory:?", "threads=1"},
			excludes: []string{"access_mode", "max_memory"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dsn := connectionString(&tt.cfg)
			for _, want := range tt.contains {
				if !strings.Contains(dsn, want) {
					t.Errorf("dsn %q missing %q", dsn, want)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(dsn, unwanted) {
					t.Errorf("dsn %q should not contain %q", dsn, unwanted)
				}
			}
		})
	}
}

func TestInsertAndCount(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	batch := []models.Datapoint{
		viewerDatapoint(now, "alice", 1200),
		viewerDatapoint(now, "bob", 300),
	}
	n, err := db.InsertDatapoints(ctx, batch)
	if err != nil {
		t.Fatalf("InsertDatapoints() error = %v", err)
	}
	if n != 2 {
		t.Errorf("inserted = %d, want 2", n)
	}

	chat := models.Datapoint{Timestamp: now, Class: "twitch.chat.messages", Value: 7}
	if _, err := db.InsertDatapoints(ctx, []models.Datapoint{chat}); err != nil {
		t.Fatalf("InsertDatapoints(chat) error = %v", err)
	}

	total, err := db.CountDatapoints(ctx, "")
	if err != nil || total != 3 {
		t.Errorf("CountDatapoints(all) = %d, %v", total, err)
	}
	viewers, err := db.CountDatapoints(ctx, "twitch.viewers")
	if err != nil || viewers != 2 {
		t.Errorf("CountDatapoints(viewers) = %d, %v", viewers, err)
	}
}

func TestInsertEmptyBatch(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	n, err := db.InsertDatapoints(context.Background(), nil)
	if err != nil || n != 0 {
		t.Errorf("InsertDatapoints(nil) = %d, %v", n, err)
	}
}

func TestSummaries(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	t0 := time.Date(2026, 4, 1, 20, 0, 0, 0, time.UTC)
	t1 := t0.Add(15 * time.Second)

	if _, err := db.InsertDatapoints(ctx, []models.Datapoint{
		viewerDatapoint(t0, "alice", 100),
		viewerDatapoint(t1, "alice", 250),
	}); err != nil {
		t.Fatalf("InsertDatapoints() error = %v", err)
	}

	summaries, err := db.Summaries(ctx)
	if err != nil {
		t.Fatalf("Summaries() error = %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("got %d summaries, want 1", len(summaries))
	}
	s := summaries[0]
	if s.Class != "twitch.viewers" || s.Count != 2 || s.Max != 250 {
		t.Errorf("summary = %+v", s)
	}
	if !s.First.Equal(t0) || !s.Last.Equal(t1) {
		t.Errorf("range = %v..%v, want %v..%v", s.First, s.Last, t0, t1)
	}
}

func TestClosedArchive(t *testing.T) {
	t.Parallel()

	db, err := Open(&config.ArchiveConfig{Path: MemoryPath, Threads: 1})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := db.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	if _, err := db.InsertDatapoints(context.Background(), []models.Datapoint{viewerDatapoint(time.Now(), "a", 1)}); !errors.Is(err, ErrClosed) {
		t.Errorf("InsertDatapoints() after close error = %v, want ErrClosed", err)
	}
	if err := db.Ping(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Ping() after close error = %v, want ErrClosed", err)
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "archive.duckdb")
	db, err := Open(&config.ArchiveConfig{Path: path, Threads: 1})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	if db.Path() != path {
		t.Errorf("Path() = %q, want %q", db.Path(), path)
	}
	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}
