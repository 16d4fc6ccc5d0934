// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/streamwatch/internal/logging"
	"github.com/tomtom215/streamwatch/internal/models"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS datapoints (
		ts         TIMESTAMP NOT NULL,
		class      VARCHAR   NOT NULL,
		event_name VARCHAR,
		labels     VARCHAR   NOT NULL,
		value      BIGINT    NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_datapoints_class_ts ON datapoints (class, ts)`,
}

// ClassSummary describes the archived datapoints of one class.
type ClassSummary struct {
	Class string    `json:"class"`
	Count int64     `json:"count"`
	First time.Time `json:"first"`
	Last  time.Time `json:"last"`
	Max   int64     `json:"max"`
}

// InsertDatapoints appends batch in one transaction. It returns the number
// of rows written: all of batch, or zero on error.
func (db *DB) InsertDatapoints(ctx context.Context, batch []models.Datapoint) (inserted int, err error) {
	if len(batch) == 0 {
		return 0, nil
	}

	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.closed {
		return 0, ErrClosed
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error().Err(rbErr).AnErr("original_error", err).Msg("Transaction rollback failed")
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO datapoints (ts, class, event_name, labels, value) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer closeWithLog(stmt, "prepared statement")

	for i := range batch {
		dp := &batch[i]
		labelMap := dp.LabelMap()
		labels, mErr := json.Marshal(labelMap)
		if mErr != nil {
			err = fmt.Errorf("failed to encode labels: %w", mErr)
			return 0, err
		}
		var eventName interface{}
		if name, ok := labelMap[models.LabelEventName]; ok {
			eventName = name
		}
		if _, err = stmt.ExecContext(ctx, dp.Timestamp.UTC(), dp.Class, eventName, string(labels), dp.Value); err != nil {
			if isTransactionConflict(err) {
				err = fmt.Errorf("transaction conflict inserting datapoint %d: %w", i, err)
			} else {
				err = fmt.Errorf("failed to insert datapoint %d: %w", i, err)
			}
			return 0, err
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return len(batch), nil
}

// CountDatapoints counts archived datapoints, optionally for one class.
func (db *DB) CountDatapoints(ctx context.Context, class string) (int64, error) {
	if db.isClosed() {
		return 0, ErrClosed
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var count int64
	var err error
	if class == "" {
		err = db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM datapoints").Scan(&count)
	} else {
		err = db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM datapoints WHERE class = ?", class).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count datapoints: %w", err)
	}
	return count, nil
}

// Summaries returns per-class counts, time range and peak value.
func (db *DB) Summaries(ctx context.Context) ([]ClassSummary, error) {
	if db.isClosed() {
		return nil, ErrClosed
	}
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT class, COUNT(*), MIN(ts), MAX(ts), MAX(value)
		FROM datapoints
		GROUP BY class
		ORDER BY class`)
	if err != nil {
		return nil, fmt.Errorf("failed to query summaries: %w", err)
	}
	defer closeWithLog(rows, "rows")

	var out []ClassSummary
	for rows.Next() {
		var s ClassSummary
		if err := rows.Scan(&s.Class, &s.Count, &s.First, &s.Last, &s.Max); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read summaries: %w", err)
	}
	return out, nil
}
