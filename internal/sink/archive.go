// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

package sink

import (
	"context"
	"time"

	"github.com/tomtom215/streamwatch/internal/metrics"
	"github.com/tomtom215/streamwatch/internal/models"
)

// ArchiveName is the sink name used in logs and metrics.
const ArchiveName = "archive"

// DatapointWriter is the archive storage. *database.DB implements it.
type DatapointWriter interface {
	InsertDatapoints(ctx context.Context, batch []models.Datapoint) (int, error)
}

// ArchiveSink appends every batch to the local DuckDB archive in one
// transaction.
type ArchiveSink struct {
	db DatapointWriter
}

// NewArchiveSink wraps an open archive.
func NewArchiveSink(db DatapointWriter) *ArchiveSink {
	return &ArchiveSink{db: db}
}

// Name implements Sink.
func (s *ArchiveSink) Name() string { return ArchiveName }

// Submit implements Sink.
func (s *ArchiveSink) Submit(ctx context.Context, batch []models.Datapoint) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	start := time.Now()
	n, err := s.db.InsertDatapoints(ctx, batch)
	metrics.RecordArchiveWrite(time.Since(start), err)
	if err != nil {
		// the insert runs in a transaction: nothing is kept on failure
		return 0, &Error{Sink: ArchiveName, Lost: len(batch), Err: err}
	}
	return n, nil
}
