// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

// Package cache provides the in-memory caches owned by the polling loops.
//
//   - Store is a keyed memo with optional TTL. The stream loop keeps its
//     category names in one.
//   - Deduper remembers recently seen keys in LRU order. The chat loop
//     uses it to count each comment once across ticks.
//
// Neither type is shared between loops; each loop constructs its own.
package cache
