// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

//go:build integration

package store

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/corkboard/internal/testinfra"
)

func TestRedisConcurrentMoves_Integration(t *testing.T) {
	testinfra.SkipIfNoDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	rc, err := testinfra.NewRedisContainer(ctx)
	if err != nil {
		t.Fatalf("start redis: %v", err)
	}
	testinfra.CleanupContainer(t, rc)

	s := NewRedisStore(redis.NewClient(&redis.Options{Addr: rc.Addr}), "it")
	t.Cleanup(func() { s.Close() })

	f := seed(t, s, map[string][]string{"To Do": {"A", "B", "C", "D"}}, "To Do", "Doing")
	todo, doing := f.cols["To Do"].ID, f.cols["Doing"].ID

	// Every card moves once in parallel; each move names the right source
	// so all of them must eventually commit.
	var wg sync.WaitGroup
	for _, title := range []string{"A", "B", "C", "D"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for attempt := 0; attempt < 20; attempt++ {
				_, err := s.MoveCard(ctx, MoveRequest{
					CardID:              f.cards[title].ID,
					SourceColumnID:      todo,
					DestinationColumnID: doing,
					TargetIndex:         AppendIndex,
				})
				if err == nil {
					return
				}
				if !errors.Is(err, ErrConflict) {
					t.Errorf("move %s: %v", title, err)
					return
				}
			}
			t.Errorf("move %s kept conflicting", title)
		}()
	}
	wg.Wait()

	if got := titles(t, s, todo); len(got) != 0 {
		t.Errorf("To Do = %v, want empty", got)
	}
	got := titles(t, s, doing)
	slices.Sort(got)
	if !slices.Equal(got, []string{"A", "B", "C", "D"}) {
		t.Errorf("Doing = %v", got)
	}
	assertInvariants(t, s)
}
