// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

// Package database is the local DuckDB archive of emitted datapoints.
//
// The archive keeps every datapoint the pollers produce so audiences can be
// analyzed offline with plain SQL, independently of the metrics store:
//
//	SELECT event_name, class, max(value) FROM datapoints GROUP BY ALL;
//
// Files:
//   - database.go: lifecycle (Open, Ping, Close)
//   - database_connection.go: connection string and pool settings
//   - database_utils.go: context timeouts, checkpoints
//   - datapoints.go: inserts and summaries
//
// Labels are stored as a JSON object in a VARCHAR column so the archive
// does not depend on DuckDB extensions being installed.
package database
