// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

/*
Package cache provides bounded in-memory structures with LRU eviction.

LRU is a generic map with O(1) lookups and least recently used eviction.
LRUCache builds a recency set on top of it, which the client reconciler
uses to drop events it has already applied:

	seen := cache.NewLRUCache(512, 0)
	if seen.IsDuplicate(env.DedupKey()) {
	    return // redelivered
	}

All types are safe for concurrent use.
*/
package cache
