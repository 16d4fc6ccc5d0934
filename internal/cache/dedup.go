// Streamwatch - Live Stream Audience Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamwatch

package cache

import (
	"sync"
	"time"
)

type seenEntry struct {
	key        string
	seenAt     time.Time
	prev, next *seenEntry
}

// Deduper remembers recently seen keys with a bounded capacity and TTL.
// Once full, the least recently seen key is forgotten first.
//
// Get/Add/IsDuplicate are O(1): a map indexes a doubly-linked list whose
// head is the most recently seen key.
type Deduper struct {
	mu sync.Mutex

	capacity int
	ttl      time.Duration
	now      func() time.Time

	items map[string]*seenEntry
	head  *seenEntry // sentinel; head.next is newest
	tail  *seenEntry // sentinel; tail.prev is oldest

	hits   int64
	misses int64
}

// NewDeduper creates a Deduper. Non-positive arguments fall back to
// 10000 keys and a 24h TTL.
func NewDeduper(capacity int, ttl time.Duration) *Deduper {
	if capacity <= 0 {
		capacity = 10000
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	d := &Deduper{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		items:    make(map[string]*seenEntry, capacity),
		head:     &seenEntry{},
		tail:     &seenEntry{},
	}
	d.head.next = d.tail
	d.tail.prev = d.head
	return d
}

// IsDuplicate reports whether key was seen within the TTL. Keys not seen
// before are recorded, so a second call with the same key returns true.
// A duplicate refreshes the key's TTL.
func (d *Deduper) IsDuplicate(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if e, ok := d.items[key]; ok {
		if now.Sub(e.seenAt) <= d.ttl {
			e.seenAt = now
			d.unlink(e)
			d.pushFront(e)
			d.hits++
			return true
		}
		d.remove(e)
	}

	e := &seenEntry{key: key, seenAt: now}
	d.pushFront(e)
	d.items[key] = e
	for len(d.items) > d.capacity {
		d.remove(d.tail.prev)
	}

	d.misses++
	return false
}

// Contains reports whether key is remembered, without touching recency.
func (d *Deduper) Contains(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.items[key]
	return ok && d.now().Sub(e.seenAt) <= d.ttl
}

// Len returns the number of remembered keys.
func (d *Deduper) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.items)
}

// CleanupExpired forgets every key older than the TTL and returns how
// many were dropped. Walks from the oldest end and stops at the first
// live key.
func (d *Deduper) CleanupExpired() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	removed := 0
	for e := d.tail.prev; e != d.head && now.Sub(e.seenAt) > d.ttl; e = d.tail.prev {
		d.remove(e)
		removed++
	}
	return removed
}

// Stats returns duplicate/new counts and the current size.
func (d *Deduper) Stats() (duplicates, fresh int64, size int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.hits, d.misses, len(d.items)
}

// list helpers, mu held

func (d *Deduper) pushFront(e *seenEntry) {
	e.prev = d.head
	e.next = d.head.next
	d.head.next.prev = e
	d.head.next = e
}

func (d *Deduper) unlink(e *seenEntry) {
	e.prev.next = e.next
	e.next.prev = e.prev
}

func (d *Deduper) remove(e *seenEntry) {
	d.unlink(e)
	delete(d.items, e.key)
}
