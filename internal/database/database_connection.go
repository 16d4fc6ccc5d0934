// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

package database

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/tomtom215/streamwatch/internal/config"
)

// MemoryPath opens a throwaway in-memory archive.
const MemoryPath = ":memory:"

// connectionString builds the DuckDB DSN. Extension autoloading is off so
// startup never blocks on a download.
func connectionString(cfg *config.ArchiveConfig) string {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	params := []string{
		fmt.Sprintf("threads=%d", threads),
		"autoinstall_known_extensions=false",
		"autoload_known_extensions=false",
	}
	if cfg.MaxMemory != "" {
		params = append(params, "max_memory="+cfg.MaxMemory)
	}
	if cfg.Path != MemoryPath && cfg.Path != "" {
		params = append([]string{"access_mode=read_write"}, params...)
	}

	return cfg.Path + "?" + strings.Join(params, "&")
}

// configureConnectionPool tunes database/sql for a single-writer archive.
func (db *DB) configureConnectionPool() {
	db.conn.SetMaxOpenConns(runtime.NumCPU())
	db.conn.SetMaxIdleConns(2)
	db.conn.SetConnMaxLifetime(time.Hour)
	db.conn.SetConnMaxIdleTime(5 * time.Minute)
}

// isTransactionConflict checks if an error is a DuckDB transaction conflict.
func isTransactionConflict(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "Transaction conflict") ||
		strings.Contains(errStr, "Conflict on update")
}
