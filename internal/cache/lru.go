// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package cache

import (
	"sync"
	"time"
)

type node[V any] struct {
	key       string
	value     V
	prev      *node[V]
	next      *node[V]
	expiresAt time.Time
}

// LRU is a bounded, thread-safe least recently used map with optional TTL.
//
// Get, Add and Remove are O(1). When Len would exceed the capacity the
// least recently used entry is evicted. A zero TTL disables expiry.
type LRU[V any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	now      func() time.Time

	items map[string]*node[V]

	// head.next is the most recently used, tail.prev the least.
	head *node[V]
	tail *node[V]

	hits      int64
	misses    int64
	evictions int64
}

// NewLRU creates an LRU holding at most capacity entries.
func NewLRU[V any](capacity int, ttl time.Duration) *LRU[V] {
	if capacity <= 0 {
		capacity = 1024
	}
	c := &LRU[V]{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		items:    make(map[string]*node[V], capacity),
		head:     &node[V]{},
		tail:     &node[V]{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// WithClock replaces the time source. Intended for tests.
func (c *LRU[V]) WithClock(now func() time.Time) *LRU[V] {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
	return c
}

// Get returns the value for key and marks it most recently used.
func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.live(key)
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.moveToFront(n)
	c.hits++
	return n.value, true
}

// Contains reports whether key is present without touching recency.
func (c *LRU[V]) Contains(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.live(key)
	return ok
}

// Add inserts or replaces key, evicting the least recently used entry when
// the cache is full.
func (c *LRU[V]) Add(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.put(key, value)
}

// Remove deletes key and reports whether it was present.
func (c *LRU[V]) Remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.items[key]
	if ok {
		c.unlink(n)
	}
	return ok
}

// Len returns the number of entries, including any not yet lazily expired.
func (c *LRU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Clear removes every entry.
func (c *LRU[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*node[V], c.capacity)
	c.head.next = c.tail
	c.tail.prev = c.head
}

// CleanupExpired drops expired entries and returns how many were removed.
func (c *LRU[V]) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ttl <= 0 {
		return 0
	}
	now := c.now()
	removed := 0
	for n := c.tail.prev; n != c.head; {
		prev := n.prev
		if now.After(n.expiresAt) {
			c.unlink(n)
			removed++
		}
		n = prev
	}
	return removed
}

// Stats reports lookups and evictions since creation.
func (c *LRU[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Hits: c.hits, Misses: c.misses, Evictions: c.evictions, Size: len(c.items)}
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
}

// Internal methods (must be called with lock held)

func (c *LRU[V]) live(key string) (*node[V], bool) {
	n, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && c.now().After(n.expiresAt) {
		c.unlink(n)
		return nil, false
	}
	return n, true
}

func (c *LRU[V]) put(key string, value V) {
	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = c.now().Add(c.ttl)
	}
	if n, ok := c.items[key]; ok {
		n.value = value
		n.expiresAt = expiresAt
		c.moveToFront(n)
		return
	}
	n := &node[V]{key: key, value: value, expiresAt: expiresAt}
	c.pushFront(n)
	c.items[key] = n
	for len(c.items) > c.capacity {
		c.unlink(c.tail.prev)
		c.evictions++
	}
}

func (c *LRU[V]) pushFront(n *node[V]) {
	n.prev = c.head
	n.next = c.head.next
	c.head.next.prev = n
	c.head.next = n
}

func (c *LRU[V]) moveToFront(n *node[V]) {
	n.prev.next = n.next
	n.next.prev = n.prev
	c.pushFront(n)
}

func (c *LRU[V]) unlink(n *node[V]) {
	n.prev.next = n.next
	n.next.prev = n.prev
	delete(c.items, n.key)
}

// LRUCache is a bounded recency set for deduplication: it remembers when
// each key was first seen.
type LRUCache struct {
	lru *LRU[time.Time]
}

// NewLRUCache creates a recency set of the given capacity. A zero TTL keeps
// keys until they are evicted.
func NewLRUCache(capacity int, ttl time.Duration) *LRUCache {
	return &LRUCache{lru: NewLRU[time.Time](capacity, ttl)}
}

// WithClock replaces the time source. Intended for tests.
func (c *LRUCache) WithClock(now func() time.Time) *LRUCache {
	c.lru.WithClock(now)
	return c
}

// IsDuplicate reports whether key was seen recently. A key that was not
// seen is recorded, so the next call with it returns true.
func (c *LRUCache) IsDuplicate(key string) bool {
	c.lru.mu.Lock()
	defer c.lru.mu.Unlock()

	if n, ok := c.lru.live(key); ok {
		c.lru.moveToFront(n)
		c.lru.hits++
		return true
	}
	c.lru.misses++
	c.lru.put(key, c.lru.now())
	return false
}

// Forget removes key so it is no longer considered a duplicate.
func (c *LRUCache) Forget(key string) bool {
	return c.lru.Remove(key)
}

// FirstSeen returns when key was recorded. It does not count as a lookup.
func (c *LRUCache) FirstSeen(key string) (time.Time, bool) {
	c.lru.mu.Lock()
	defer c.lru.mu.Unlock()
	if n, ok := c.lru.live(key); ok {
		return n.value, true
	}
	return time.Time{}, false
}

// Len returns the number of remembered keys.
func (c *LRUCache) Len() int {
	return c.lru.Len()
}

// Stats returns the underlying counters. Hits are duplicates.
func (c *LRUCache) Stats() Stats {
	return c.lru.Stats()
}
