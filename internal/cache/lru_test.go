// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func TestLRU_Eviction(t *testing.T) {
	c := NewLRU[int](3, 0)
	c.Add("a", 1)
	c.Add("b", 2)
	c.Add("c", 3)

	// Touch a so b becomes least recently used.
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("Get(a) = %d, %v", v, ok)
	}
	c.Add("d", 4)

	if c.Contains("b") {
		t.Error("expected b to be evicted")
	}
	for _, k := range []string{"a", "c", "d"} {
		if !c.Contains(k) {
			t.Errorf("expected %s to be present", k)
		}
	}
	if s := c.Stats(); s.Evictions != 1 || s.Size != 3 {
		t.Errorf("stats = %+v", s)
	}
}

func TestLRU_AddReplaces(t *testing.T) {
	c := NewLRU[string](2, 0)
	c.Add("k", "old")
	c.Add("k", "new")
	if v, _ := c.Get("k"); v != "new" || c.Len() != 1 {
		t.Errorf("Get = %q, Len = %d", v, c.Len())
	}
	if !c.Remove("k") || c.Remove("k") {
		t.Error("Remove should succeed exactly once")
	}
}

func TestLRU_TTL(t *testing.T) {
	clock := newClock()
	c := NewLRU[int](10, time.Minute).WithClock(clock.Now)
	c.Add("a", 1)
	clock.Advance(30 * time.Second)
	c.Add("b", 2)

	clock.Advance(45 * time.Second)
	if c.Contains("a") {
		t.Error("a should have expired")
	}
	if !c.Contains("b") {
		t.Error("b should still be live")
	}

	clock.Advance(time.Minute)
	if n := c.CleanupExpired(); n != 1 {
		t.Errorf("CleanupExpired = %d, want 1", n)
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d", c.Len())
	}
}

func TestLRU_Clear(t *testing.T) {
	c := NewLRU[int](4, 0)
	for i := range 4 {
		c.Add(fmt.Sprint(i), i)
	}
	c.Clear()
	if c.Len() != 0 || c.Contains("0") {
		t.Error("Clear left entries behind")
	}
	c.Add("x", 1)
	if !c.Contains("x") {
		t.Error("cache unusable after Clear")
	}
}

func TestLRUCache_IsDuplicate(t *testing.T) {
	tests := []struct {
		name string
		keys []string
		want []bool
	}{
		{"first sighting", []string{"a"}, []bool{false}},
		{"repeat", []string{"a", "a", "a"}, []bool{false, true, true}},
		{"distinct", []string{"a", "b", "a"}, []bool{false, false, true}},
		// Capacity 2: c evicts a, so a is new again.
		{"evicted key is new", []string{"a", "b", "c", "a"}, []bool{false, false, false, false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen := NewLRUCache(2, 0)
			for i, k := range tt.keys {
				if got := seen.IsDuplicate(k); got != tt.want[i] {
					t.Errorf("IsDuplicate(%s) #%d = %v, want %v", k, i, got, tt.want[i])
				}
			}
		})
	}
}

func TestLRUCache_TTLAndForget(t *testing.T) {
	clock := newClock()
	seen := NewLRUCache(8, time.Second).WithClock(clock.Now)

	seen.IsDuplicate("k")
	first, ok := seen.FirstSeen("k")
	if !ok || !first.Equal(clock.Now()) {
		t.Errorf("FirstSeen = %v, %v", first, ok)
	}
	clock.Advance(2 * time.Second)
	if seen.IsDuplicate("k") {
		t.Error("expired key reported as duplicate")
	}
	if !seen.Forget("k") || seen.IsDuplicate("k") {
		t.Error("Forget did not clear the key")
	}
	if s := seen.Stats(); s.Hits != 0 || s.Misses != 3 {
		t.Errorf("stats = %+v", s)
	}
}

func TestLRUCache_Concurrent(t *testing.T) {
	seen := NewLRUCache(1000, 0)
	var wg sync.WaitGroup
	var mu sync.Mutex
	firsts := 0
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				if !seen.IsDuplicate(fmt.Sprint(i)) {
					mu.Lock()
					firsts++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()
	if firsts != 100 {
		t.Errorf("first sightings = %d, want 100", firsts)
	}
}
