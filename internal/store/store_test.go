// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package store

import (
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"slices"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/corkboard/internal/logging"
	"github.com/tomtom215/corkboard/internal/models"
)

func init() {
	logging.Init(logging.Config{Level: "error", Output: io.Discard})
}

func newBadgerTestStore(t *testing.T) *DocumentStore {
	t.Helper()
	s, err := OpenBadger("", true)
	if err != nil {
		t.Fatalf("OpenBadger: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newRedisTestStore(t *testing.T) *DocumentStore {
	t.Helper()
	mr := miniredis.NewMiniRedis()
	if err := mr.Start(); err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	s := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test")
	t.Cleanup(func() { s.Close() })
	return s
}

// forEachBackend runs fn against a fresh store of every backend.
func forEachBackend(t *testing.T, fn func(t *testing.T, s *DocumentStore)) {
	t.Helper()
	backends := []struct {
		name string
		open func(*testing.T) *DocumentStore
	}{
		{"badger", newBadgerTestStore},
		{"redis", newRedisTestStore},
	}
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			fn(t, b.open(t))
		})
	}
}

// fixture is a board with named columns and cards.
type fixture struct {
	board models.Board
	cols  map[string]models.Column
	cards map[string]models.Card
}

// seed creates a board whose columns hold the given card titles, in order.
func seed(t *testing.T, s *DocumentStore, layout map[string][]string, columnOrder ...string) fixture {
	t.Helper()
	ctx := context.Background()
	f := fixture{cols: map[string]models.Column{}, cards: map[string]models.Card{}}

	var err error
	f.board, err = s.CreateBoard(ctx, models.Board{Title: "Sprint"})
	if err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}
	for _, name := range columnOrder {
		col, err := s.CreateColumn(ctx, models.Column{BoardID: f.board.ID, Title: name}, AppendIndex)
		if err != nil {
			t.Fatalf("CreateColumn(%s): %v", name, err)
		}
		f.cols[name] = col
		for _, title := range layout[name] {
			card, err := s.CreateCard(ctx, models.Card{ColumnID: col.ID, Title: title}, AppendIndex)
			if err != nil {
				t.Fatalf("CreateCard(%s): %v", title, err)
			}
			f.cards[title] = card
		}
	}
	return f
}

// titles returns card titles of a column in position order, checking density.
func titles(t *testing.T, s *DocumentStore, columnID string) []string {
	t.Helper()
	cards, err := s.ListCards(context.Background(), columnID)
	if err != nil {
		t.Fatalf("ListCards: %v", err)
	}
	out := make([]string, 0, len(cards))
	for i, c := range cards {
		if c.Position != i {
			t.Errorf("card %s position = %d, want %d", c.Title, c.Position, i)
		}
		if c.ColumnID != columnID {
			t.Errorf("card %s columnID = %s, want %s", c.Title, c.ColumnID, columnID)
		}
		out = append(out, c.Title)
	}
	return out
}

// assertInvariants checks density and single-parent over the whole database.
func assertInvariants(t *testing.T, s *DocumentStore) {
	t.Helper()
	var snap *snapshot
	err := s.b.update(context.Background(), func(tx txn) error {
		var err error
		snap, err = tx.scan()
		return err
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	holders := make(map[string][]string)
	for col, cards := range snap.colCards {
		for _, id := range cards {
			holders[id] = append(holders[id], col)
		}
	}
	byCol := make(map[string][]int)
	for _, c := range snap.cards {
		if h := holders[c.ID]; len(h) != 1 || h[0] != c.ColumnID {
			t.Errorf("card %s: indexed under %v, columnID %s", c.ID, h, c.ColumnID)
		}
		byCol[c.ColumnID] = append(byCol[c.ColumnID], c.Position)
	}
	for col, positions := range byCol {
		slices.Sort(positions)
		for i, p := range positions {
			if p != i {
				t.Errorf("column %s positions %v are not dense", col, positions)
				break
			}
		}
	}
}

func TestCreateColumnAtIndex(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *DocumentStore) {
		ctx := context.Background()
		f := seed(t, s, nil, "To Do", "Done")

		if _, err := s.CreateColumn(ctx, models.Column{BoardID: f.board.ID, Title: "Doing"}, 1); err != nil {
			t.Fatalf("CreateColumn: %v", err)
		}
		cols, err := s.ListColumns(ctx, f.board.ID)
		if err != nil {
			t.Fatalf("ListColumns: %v", err)
		}
		var got []string
		for i, c := range cols {
			if c.Position != i {
				t.Errorf("column %s position = %d, want %d", c.Title, c.Position, i)
			}
			got = append(got, c.Title)
		}
		if want := []string{"To Do", "Doing", "Done"}; !slices.Equal(got, want) {
			t.Errorf("columns = %v, want %v", got, want)
		}
	})
}

func TestCreateCardClampsIndex(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *DocumentStore) {
		ctx := context.Background()
		f := seed(t, s, map[string][]string{"To Do": {"A", "B"}}, "To Do")
		col := f.cols["To Do"].ID

		if _, err := s.CreateCard(ctx, models.Card{ColumnID: col, Title: "Z"}, 99); err != nil {
			t.Fatalf("CreateCard: %v", err)
		}
		if _, err := s.CreateCard(ctx, models.Card{ColumnID: col, Title: "First"}, 0); err != nil {
			t.Fatalf("CreateCard: %v", err)
		}
		if got, want := titles(t, s, col), []string{"First", "A", "B", "Z"}; !slices.Equal(got, want) {
			t.Errorf("cards = %v, want %v", got, want)
		}
	})
}

func TestCreateCardMissingColumn(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *DocumentStore) {
		_, err := s.CreateCard(context.Background(), models.Card{ColumnID: "nope", Title: "x"}, AppendIndex)
		var nf *NotFoundError
		if !errors.As(err, &nf) || nf.Entity != EntityColumn || nf.ID != "nope" {
			t.Fatalf("err = %v, want column not found", err)
		}
	})
}

func TestMoveCardCrossColumn(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *DocumentStore) {
		f := seed(t, s, map[string][]string{"To Do": {"A", "B"}}, "To Do", "Done")
		todo, done := f.cols["To Do"].ID, f.cols["Done"].ID

		res, err := s.MoveCard(context.Background(), MoveRequest{
			CardID:              f.cards["A"].ID,
			SourceColumnID:      todo,
			DestinationColumnID: done,
			TargetIndex:         0,
		})
		if err != nil {
			t.Fatalf("MoveCard: %v", err)
		}
		if res.Card.ColumnID != done || res.Card.Position != 0 {
			t.Errorf("moved card = (%s, %d), want (%s, 0)", res.Card.ColumnID, res.Card.Position, done)
		}
		if res.BoardID != f.board.ID || res.SameColumn() {
			t.Errorf("result board=%s same=%v", res.BoardID, res.SameColumn())
		}
		if len(res.Source) != 1 || len(res.Destination) != 1 {
			t.Errorf("result sizes src=%d dst=%d", len(res.Source), len(res.Destination))
		}

		if got := titles(t, s, todo); !slices.Equal(got, []string{"B"}) {
			t.Errorf("To Do = %v, want [B]", got)
		}
		if got := titles(t, s, done); !slices.Equal(got, []string{"A"}) {
			t.Errorf("Done = %v, want [A]", got)
		}
		assertInvariants(t, s)
	})
}

func TestMoveCardSameColumnPostRemovalIndex(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *DocumentStore) {
		f := seed(t, s, map[string][]string{"To Do": {"a", "b", "c", "d"}}, "To Do")
		col := f.cols["To Do"].ID

		res, err := s.MoveCard(context.Background(), MoveRequest{
			CardID: f.cards["a"].ID, SourceColumnID: col, DestinationColumnID: col, TargetIndex: 2,
		})
		if err != nil {
			t.Fatalf("MoveCard: %v", err)
		}
		if !res.SameColumn() || res.Card.Position != 2 {
			t.Errorf("result same=%v pos=%d", res.SameColumn(), res.Card.Position)
		}
		if got, want := titles(t, s, col), []string{"b", "c", "a", "d"}; !slices.Equal(got, want) {
			t.Errorf("cards = %v, want %v", got, want)
		}
	})
}

func TestMoveCardAppendIndex(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *DocumentStore) {
		ctx := context.Background()
		f := seed(t, s, map[string][]string{"To Do": {"A", "B", "C"}, "Done": {"X"}}, "To Do", "Done")
		todo, done := f.cols["To Do"].ID, f.cols["Done"].ID

		if _, err := s.MoveCard(ctx, MoveRequest{CardID: f.cards["A"].ID, SourceColumnID: todo, DestinationColumnID: todo, TargetIndex: AppendIndex}); err != nil {
			t.Fatalf("same-column append: %v", err)
		}
		if got := titles(t, s, todo); !slices.Equal(got, []string{"B", "C", "A"}) {
			t.Errorf("To Do = %v", got)
		}
		if _, err := s.MoveCard(ctx, MoveRequest{CardID: f.cards["B"].ID, SourceColumnID: todo, DestinationColumnID: done, TargetIndex: AppendIndex}); err != nil {
			t.Fatalf("cross-column append: %v", err)
		}
		if got := titles(t, s, done); !slices.Equal(got, []string{"X", "B"}) {
			t.Errorf("Done = %v", got)
		}
	})
}

func TestMoveCardRoundTrip(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *DocumentStore) {
		ctx := context.Background()
		f := seed(t, s, map[string][]string{
			"A": {"a1", "a2", "a3"},
			"B": {"b1", "b2"},
		}, "A", "B")
		colA, colB := f.cols["A"].ID, f.cols["B"].ID
		beforeA, beforeB := titles(t, s, colA), titles(t, s, colB)

		card := f.cards["a2"].ID
		if _, err := s.MoveCard(ctx, MoveRequest{CardID: card, SourceColumnID: colA, DestinationColumnID: colB, TargetIndex: 1}); err != nil {
			t.Fatalf("move out: %v", err)
		}
		if _, err := s.MoveCard(ctx, MoveRequest{CardID: card, SourceColumnID: colB, DestinationColumnID: colA, TargetIndex: 1}); err != nil {
			t.Fatalf("move back: %v", err)
		}
		if got := titles(t, s, colA); !slices.Equal(got, beforeA) {
			t.Errorf("A = %v, want %v", got, beforeA)
		}
		if got := titles(t, s, colB); !slices.Equal(got, beforeB) {
			t.Errorf("B = %v, want %v", got, beforeB)
		}
	})
}

func TestMoveCardStaleSourceConflicts(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *DocumentStore) {
		ctx := context.Background()
		f := seed(t, s, map[string][]string{"To Do": {"A", "B"}}, "To Do", "Doing", "Done")
		todo, doing, done := f.cols["To Do"].ID, f.cols["Doing"].ID, f.cols["Done"].ID
		cardA := f.cards["A"].ID

		if _, err := s.MoveCard(ctx, MoveRequest{CardID: cardA, SourceColumnID: todo, DestinationColumnID: doing}); err != nil {
			t.Fatalf("first move: %v", err)
		}
		_, err := s.MoveCard(ctx, MoveRequest{CardID: cardA, SourceColumnID: todo, DestinationColumnID: done})
		if !errors.Is(err, ErrConflict) {
			t.Fatalf("err = %v, want ErrConflict", err)
		}
		var ce *ConflictError
		if !errors.As(err, &ce) || ce.Expected != todo || ce.Actual != doing {
			t.Errorf("conflict = %+v", ce)
		}

		if got := titles(t, s, done); len(got) != 0 {
			t.Errorf("Done = %v, want empty", got)
		}
		if got := titles(t, s, doing); !slices.Equal(got, []string{"A"}) {
			t.Errorf("Doing = %v, want [A]", got)
		}
	})
}

func TestMoveCardNotFound(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *DocumentStore) {
		ctx := context.Background()
		f := seed(t, s, map[string][]string{"To Do": {"A"}}, "To Do")
		todo := f.cols["To Do"].ID

		tests := []struct {
			name   string
			req    MoveRequest
			entity string
		}{
			{"missing card", MoveRequest{CardID: "ghost", SourceColumnID: todo, DestinationColumnID: todo}, EntityCard},
			{"missing source", MoveRequest{CardID: f.cards["A"].ID, SourceColumnID: "ghost", DestinationColumnID: todo}, EntityColumn},
			{"missing destination", MoveRequest{CardID: f.cards["A"].ID, SourceColumnID: todo, DestinationColumnID: "ghost"}, EntityColumn},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := s.MoveCard(ctx, tt.req)
				var nf *NotFoundError
				if !errors.As(err, &nf) || nf.Entity != tt.entity || nf.ID != "ghost" {
					t.Fatalf("err = %v, want %s ghost not found", err, tt.entity)
				}
			})
		}
		if got := titles(t, s, todo); !slices.Equal(got, []string{"A"}) {
			t.Errorf("To Do = %v, want [A]", got)
		}
	})
}

func TestMoveCardAcrossBoardsRejected(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *DocumentStore) {
		f1 := seed(t, s, map[string][]string{"To Do": {"A"}}, "To Do")
		f2 := seed(t, s, nil, "Elsewhere")

		_, err := s.MoveCard(context.Background(), MoveRequest{
			CardID:              f1.cards["A"].ID,
			SourceColumnID:      f1.cols["To Do"].ID,
			DestinationColumnID: f2.cols["Elsewhere"].ID,
		})
		if !errors.Is(err, ErrCrossBoardMove) {
			t.Fatalf("err = %v, want ErrCrossBoardMove", err)
		}
	})
}

func TestConcurrentMovesOneWinner(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *DocumentStore) {
		ctx := context.Background()
		f := seed(t, s, map[string][]string{"To Do": {"A", "B", "C"}}, "To Do", "Doing", "Done")
		todo := f.cols["To Do"].ID
		dests := []string{f.cols["Doing"].ID, f.cols["Done"].ID}

		const workers = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
		)
		for i := range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.MoveCard(ctx, MoveRequest{
					CardID:              f.cards["B"].ID,
					SourceColumnID:      todo,
					DestinationColumnID: dests[i%2],
				})
				switch {
				case err == nil:
					mu.Lock()
					successes++
					mu.Unlock()
				case errors.Is(err, ErrConflict):
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()

		if successes != 1 {
			t.Errorf("successes = %d, want 1", successes)
		}
		if got := titles(t, s, todo); !slices.Equal(got, []string{"A", "C"}) {
			t.Errorf("To Do = %v, want [A C]", got)
		}
		assertInvariants(t, s)
	})
}

func TestMoveColumn(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *DocumentStore) {
		f := seed(t, s, nil, "a", "b", "c", "d")

		cols, err := s.MoveColumn(context.Background(), f.cols["d"].ID, 0)
		if err != nil {
			t.Fatalf("MoveColumn: %v", err)
		}
		var got []string
		for i, c := range cols {
			if c.Position != i {
				t.Errorf("column %s position = %d, want %d", c.Title, c.Position, i)
			}
			got = append(got, c.Title)
		}
		if want := []string{"d", "a", "b", "c"}; !slices.Equal(got, want) {
			t.Errorf("columns = %v, want %v", got, want)
		}
	})
}

func TestDeleteCardResequences(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *DocumentStore) {
		ctx := context.Background()
		f := seed(t, s, map[string][]string{"To Do": {"A", "B", "C"}}, "To Do")

		if _, err := s.DeleteCard(ctx, f.cards["B"].ID); err != nil {
			t.Fatalf("DeleteCard: %v", err)
		}
		if got := titles(t, s, f.cols["To Do"].ID); !slices.Equal(got, []string{"A", "C"}) {
			t.Errorf("cards = %v, want [A C]", got)
		}
		if _, err := s.GetCard(ctx, f.cards["B"].ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetCard after delete: %v", err)
		}
	})
}

func TestDeleteColumnCascades(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *DocumentStore) {
		ctx := context.Background()
		f := seed(t, s, map[string][]string{"Doing": {"X", "Y"}, "Done": {"Z"}}, "To Do", "Doing", "Done")

		_, res, err := s.DeleteColumn(ctx, f.cols["Doing"].ID)
		if err != nil {
			t.Fatalf("DeleteColumn: %v", err)
		}
		if len(res.Columns) != 1 || len(res.Cards) != 2 {
			t.Errorf("cascade = %+v", res)
		}
		for _, title := range []string{"X", "Y"} {
			if _, err := s.GetCard(ctx, f.cards[title].ID); !errors.Is(err, ErrNotFound) {
				t.Errorf("card %s survived: %v", title, err)
			}
		}
		cols, err := s.ListColumns(ctx, f.board.ID)
		if err != nil {
			t.Fatalf("ListColumns: %v", err)
		}
		if len(cols) != 2 || cols[1].Title != "Done" || cols[1].Position != 1 {
			t.Errorf("columns after delete = %+v", cols)
		}
		if got := titles(t, s, f.cols["Done"].ID); !slices.Equal(got, []string{"Z"}) {
			t.Errorf("Done = %v", got)
		}
	})
}

func TestDeleteBoardCascades(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *DocumentStore) {
		ctx := context.Background()
		f := seed(t, s, map[string][]string{"To Do": {"A"}, "Done": {"B", "C"}}, "To Do", "Done")
		other := seed(t, s, map[string][]string{"Keep": {"K"}}, "Keep")

		res, err := s.DeleteBoard(ctx, f.board.ID)
		if err != nil {
			t.Fatalf("DeleteBoard: %v", err)
		}
		if len(res.Columns) != 2 || len(res.Cards) != 3 {
			t.Errorf("cascade = %+v", res)
		}
		if _, err := s.GetBoard(ctx, f.board.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("board survived: %v", err)
		}
		if _, err := s.GetColumn(ctx, f.cols["Done"].ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("column survived: %v", err)
		}
		if _, err := s.GetCard(ctx, f.cards["C"].ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("card survived: %v", err)
		}

		boards, err := s.ListBoards(ctx)
		if err != nil {
			t.Fatalf("ListBoards: %v", err)
		}
		if len(boards) != 1 || boards[0].ID != other.board.ID {
			t.Errorf("boards = %+v", boards)
		}
		if got := titles(t, s, other.cols["Keep"].ID); !slices.Equal(got, []string{"K"}) {
			t.Errorf("other board cards = %v", got)
		}
	})
}

func TestUpdateCardKeepsStructure(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *DocumentStore) {
		f := seed(t, s, map[string][]string{"To Do": {"A", "B"}}, "To Do", "Done")

		updated, err := s.UpdateCard(context.Background(), f.cards["B"].ID, func(c *models.Card) {
			c.Title = "B2"
			c.Description = "details"
			c.ColumnID = f.cols["Done"].ID
			c.Position = 0
		})
		if err != nil {
			t.Fatalf("UpdateCard: %v", err)
		}
		if updated.Title != "B2" || updated.Description != "details" {
			t.Errorf("fields not applied: %+v", updated)
		}
		if updated.ColumnID != f.cols["To Do"].ID || updated.Position != 1 {
			t.Errorf("structure changed: column=%s pos=%d", updated.ColumnID, updated.Position)
		}
		if !updated.CreatedAt.Equal(f.cards["B"].CreatedAt) {
			t.Errorf("CreatedAt changed")
		}
	})
}

func TestGetBoardTree(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *DocumentStore) {
		f := seed(t, s, map[string][]string{"To Do": {"A", "B"}}, "To Do", "Empty")

		tree, err := s.GetBoardTree(context.Background(), f.board.ID)
		if err != nil {
			t.Fatalf("GetBoardTree: %v", err)
		}
		if tree.ID != f.board.ID || len(tree.Columns) != 2 {
			t.Fatalf("tree = %+v", tree)
		}
		if got := tree.Columns[0].CardIDs(); !slices.Equal(got, []string{f.cards["A"].ID, f.cards["B"].ID}) {
			t.Errorf("card ids = %v", got)
		}
		if tree.Columns[1].Cards == nil {
			t.Error("empty column has nil cards")
		}
		if tree.CardCount() != 2 {
			t.Errorf("CardCount = %d", tree.CardCount())
		}

		if _, err := s.GetBoardTree(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
			t.Errorf("missing board: %v", err)
		}
	})
}

func TestRebuildIndexesRepairsDrift(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *DocumentStore) {
		ctx := context.Background()
		f := seed(t, s, map[string][]string{"To Do": {"A", "B", "C"}, "Done": {"D"}}, "To Do", "Done")
		todo, done := f.cols["To Do"].ID, f.cols["Done"].ID

		// Drop A's index entry, index C under the wrong column, leave a gap in
		// positions and plant an orphan card.
		err := s.b.update(ctx, func(tx txn) error {
			c := f.cards["C"]
			c.Position = 7
			if err := tx.putCard(c); err != nil {
				return err
			}
			if err := tx.unlinkCard(todo, f.cards["A"].ID); err != nil {
				return err
			}
			if err := tx.linkCard(done, f.cards["C"].ID); err != nil {
				return err
			}
			return tx.putCard(models.Card{ID: "orphan", ColumnID: "gone", Title: "lost"})
		})
		if err != nil {
			t.Fatalf("corrupt: %v", err)
		}

		report, err := s.RebuildIndexes(ctx)
		if err != nil {
			t.Fatalf("RebuildIndexes: %v", err)
		}
		if report.Clean() {
			t.Fatal("first repair reported clean")
		}
		if report.IndexEntriesAdded != 1 || report.IndexEntriesRemoved != 1 {
			t.Errorf("index changes = +%d -%d, want +1 -1", report.IndexEntriesAdded, report.IndexEntriesRemoved)
		}
		if report.PositionsFixed != 1 || report.OrphansRemoved != 1 {
			t.Errorf("positions=%d orphans=%d, want 1 and 1", report.PositionsFixed, report.OrphansRemoved)
		}

		if got := titles(t, s, todo); !slices.Equal(got, []string{"A", "B", "C"}) {
			t.Errorf("To Do = %v", got)
		}
		if got := titles(t, s, done); !slices.Equal(got, []string{"D"}) {
			t.Errorf("Done = %v", got)
		}
		assertInvariants(t, s)

		again, err := s.RebuildIndexes(ctx)
		if err != nil {
			t.Fatalf("second RebuildIndexes: %v", err)
		}
		if !again.Clean() {
			t.Errorf("second repair = %+v, want clean", again)
		}
	})
}

func TestMoveRelinksMissingIndexEntry(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *DocumentStore) {
		ctx := context.Background()
		f := seed(t, s, map[string][]string{"To Do": {"A", "B"}}, "To Do", "Done")
		todo, done := f.cols["To Do"].ID, f.cols["Done"].ID

		if err := s.b.update(ctx, func(tx txn) error { return tx.unlinkCard(todo, f.cards["A"].ID) }); err != nil {
			t.Fatalf("corrupt: %v", err)
		}
		if _, err := s.MoveCard(ctx, MoveRequest{CardID: f.cards["A"].ID, SourceColumnID: todo, DestinationColumnID: done}); err != nil {
			t.Fatalf("MoveCard: %v", err)
		}
		if got := titles(t, s, done); !slices.Equal(got, []string{"A"}) {
			t.Errorf("Done = %v", got)
		}
		assertInvariants(t, s)
	})
}

func TestRandomOperationsKeepInvariants(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *DocumentStore) {
		ctx := context.Background()
		f := seed(t, s, nil, "c0", "c1", "c2")
		colIDs := []string{f.cols["c0"].ID, f.cols["c1"].ID, f.cols["c2"].ID}
		rng := rand.New(rand.NewPCG(7, 11))

		var cards []models.Card
		for step := range 150 {
			switch op := rng.IntN(4); {
			case op == 0 || len(cards) == 0:
				c, err := s.CreateCard(ctx, models.Card{ColumnID: colIDs[rng.IntN(3)], Title: "k"}, rng.IntN(6)-1)
				if err != nil {
					t.Fatalf("step %d create: %v", step, err)
				}
				cards = append(cards, c)
			case op == 1:
				i := rng.IntN(len(cards))
				if _, err := s.DeleteCard(ctx, cards[i].ID); err != nil {
					t.Fatalf("step %d delete: %v", step, err)
				}
				cards = slices.Delete(cards, i, i+1)
			default:
				i := rng.IntN(len(cards))
				res, err := s.MoveCard(ctx, MoveRequest{
					CardID:              cards[i].ID,
					SourceColumnID:      cards[i].ColumnID,
					DestinationColumnID: colIDs[rng.IntN(3)],
					TargetIndex:         rng.IntN(8),
				})
				if err != nil {
					t.Fatalf("step %d move: %v", step, err)
				}
				cards[i] = res.Card
			}
		}
		assertInvariants(t, s)

		report, err := s.RebuildIndexes(ctx)
		if err != nil {
			t.Fatalf("RebuildIndexes: %v", err)
		}
		if !report.Clean() {
			t.Errorf("repair after clean run = %+v", report)
		}
	})
}

func TestStorePing(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *DocumentStore) {
		if err := s.Ping(context.Background()); err != nil {
			t.Errorf("Ping: %v", err)
		}
	})
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := Open(context.Background(), Options{Backend: "sqlite"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
