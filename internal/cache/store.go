// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time // zero means never expires
}

// Store is a thread-safe keyed cache with optional TTL.
//
// With a zero TTL entries never expire and the store grows monotonically,
// which is what a per-loop memo of category names needs. A positive TTL
// turns it into a bounded-staleness cache; expired entries are dropped
// lazily on access.
//
// A Store has no background goroutine and needs no Close.
type Store[V any] struct {
	mu      sync.RWMutex
	entries map[string]entry[V]
	ttl     time.Duration
	now     func() time.Time
	stats   Stats
}

// Stats tracks cache performance metrics.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	TotalKeys int64
}

// NewStore creates a store. ttl <= 0 disables expiry.
func NewStore[V any](ttl time.Duration) *Store[V] {
	if ttl < 0 {
		ttl = 0
	}
	return &Store[V]{
		entries: make(map[string]entry[V]),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached value for key. Expired entries count as misses
// and are removed.
func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		s.stats.Misses++
		var zero V
		return zero, false
	}
	if s.expired(e) {
		delete(s.entries, key)
		s.stats.Misses++
		s.stats.Evictions++
		var zero V
		return zero, false
	}

	s.stats.Hits++
	return e.value, true
}

// Set stores value under key, replacing any previous entry.
func (s *Store[V]) Set(key string, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := entry[V]{value: value}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}
	s.entries[key] = e
}

// Len returns the number of stored entries, including any not yet
// lazily expired.
func (s *Store[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Snapshot returns a copy of all live entries.
func (s *Store[V]) Snapshot() map[string]V {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]V, len(s.entries))
	for k, e := range s.entries {
		if !s.expired(e) {
			out[k] = e.value
		}
	}
	return out
}

// CleanupExpired removes every expired entry and returns how many were removed.
func (s *Store[V]) CleanupExpired() int {
	if s.ttl == 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k, e := range s.entries {
		if s.expired(e) {
			delete(s.entries, k)
			removed++
		}
	}
	s.stats.Evictions += int64(removed)
	return removed
}

// GetStats returns a snapshot of the counters.
func (s *Store[V]) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := s.stats
	st.TotalKeys = int64(len(s.entries))
	return st
}

// HitRate returns the hit rate as a percentage.
func (s *Store[V]) HitRate() float64 {
	st := s.GetStats()
	total := st.Hits + st.Misses
	if total == 0 {
		return 0.0
	}
	return float64(st.Hits) / float64(total) * 100.0
}

// must be called with mu held
func (s *Store[V]) expired(e entry[V]) bool {
	return !e.expiresAt.IsZero() && s.now().After(e.expiresAt)
}
