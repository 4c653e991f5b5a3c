// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package store

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/corkboard/internal/metrics"
	"github.com/tomtom215/corkboard/internal/models"
	"github.com/tomtom215/corkboard/internal/ordering"
)

// maxTxnAttempts bounds retries after an optimistic commit race.
const maxTxnAttempts = 3

// DocumentStore implements Store on top of a transactional backend.
type DocumentStore struct {
	b   backend
	now func() time.Time
}

func newDocumentStore(b backend) *DocumentStore {
	return &DocumentStore{b: b, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock overrides the timestamp source. Used by tests.
func (s *DocumentStore) WithClock(now func() time.Time) *DocumentStore {
	s.now = now
	return s
}

// Backend returns "badger" or "redis".
func (s *DocumentStore) Backend() string { return s.b.name() }

func (s *DocumentStore) view(ctx context.Context, op string, fn func(txn) error) error {
	start := time.Now()
	err := s.b.view(ctx, fn)
	metrics.RecordStoreOp(s.b.name(), op, outcome(err), time.Since(start))
	return err
}

// update runs fn in a read-write transaction, retrying when the backend
// reports contention. Semantic conflicts returned by fn are not retried.
func (s *DocumentStore) update(ctx context.Context, op string, fn func(txn) error) error {
	start := time.Now()
	var err error
	for attempt := 1; attempt <= maxTxnAttempts; attempt++ {
		if err = ctx.Err(); err != nil {
			break
		}
		err = s.b.update(ctx, fn)
		if !errors.Is(err, errContention) {
			break
		}
		metrics.StoreTxnRetries.WithLabelValues(s.b.name(), op).Inc()
		if attempt == maxTxnAttempts {
			err = fmt.Errorf("%w: %s lost %d commit races", ErrConflict, op, maxTxnAttempts)
		}
	}
	metrics.RecordStoreOp(s.b.name(), op, outcome(err), time.Since(start))
	return err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}

func newID() string { return uuid.NewString() }

// moveTarget maps AppendIndex to "after the last sibling"; other values are
// clamped by package ordering.
func moveTarget(idx int) int {
	if idx < 0 {
		return math.MaxInt
	}
	return idx
}

// --- boards ---

func (s *DocumentStore) CreateBoard(ctx context.Context, b models.Board) (models.Board, error) {
	now := s.now()
	if b.ID == "" {
		b.ID = newID()
	}
	b.CreatedAt, b.UpdatedAt = now, now
	err := s.update(ctx, "create_board", func(t txn) error {
		return t.putBoard(b)
	})
	return b, err
}

func (s *DocumentStore) GetBoard(ctx context.Context, id string) (models.Board, error) {
	var b models.Board
	err := s.view(ctx, "get_board", func(t txn) error {
		var err error
		b, err = t.getBoard(id)
		return err
	})
	return b, err
}

// ListBoards returns boards oldest first.
func (s *DocumentStore) ListBoards(ctx context.Context) ([]models.Board, error) {
	var boards []models.Board
	err := s.view(ctx, "list_boards", func(t txn) error {
		var err error
		boards, err = t.listBoards()
		return err
	})
	slices.SortFunc(boards, func(a, b models.Board) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return boards, err
}

func (s *DocumentStore) UpdateBoard(ctx context.Context, id string, fn func(*models.Board)) (models.Board, error) {
	var out models.Board
	err := s.update(ctx, "update_board", func(t txn) error {
		b, err := t.getBoard(id)
		if err != nil {
			return err
		}
		orig := b
		fn(&b)
		b.ID, b.CreatedAt, b.UpdatedAt = orig.ID, orig.CreatedAt, s.now()
		out = b
		return t.putBoard(b)
	})
	return out, err
}

// DeleteBoard removes the board, its columns and their cards.
func (s *DocumentStore) DeleteBoard(ctx context.Context, id string) (CascadeResult, error) {
	var res CascadeResult
	err := s.update(ctx, "delete_board", func(t txn) error {
		res = CascadeResult{}
		if _, err := t.getBoard(id); err != nil {
			return err
		}
		cols, err := sortedColumns(t, id)
		if err != nil {
			return err
		}
		cardsByCol := make(map[string][]models.Card, len(cols))
		for _, col := range cols {
			cards, err := sortedCards(t, col.ID)
			if err != nil {
				return err
			}
			cardsByCol[col.ID] = cards
		}

		for _, col := range cols {
			if err := deleteCards(t, col.ID, cardsByCol[col.ID], &res); err != nil {
				return err
			}
			if err := t.deleteColumn(col.ID); err != nil {
				return err
			}
			if err := t.unlinkColumn(id, col.ID); err != nil {
				return err
			}
			res.Columns = append(res.Columns, col.ID)
		}
		return t.deleteBoard(id)
	})
	return res, err
}

func deleteCards(t txn, columnID string, cards []models.Card, res *CascadeResult) error {
	for _, c := range cards {
		if err := t.deleteCard(c.ID); err != nil {
			return err
		}
		if err := t.unlinkCard(columnID, c.ID); err != nil {
			return err
		}
		res.Cards = append(res.Cards, c.ID)
	}
	return nil
}

// --- columns ---

// CreateColumn inserts c into its board at targetIndex (AppendIndex for the
// end) and re-sequences the board's columns.
func (s *DocumentStore) CreateColumn(ctx context.Context, c models.Column, targetIndex int) (models.Column, error) {
	now := s.now()
	if c.ID == "" {
		c.ID = newID()
	}
	c.CreatedAt, c.UpdatedAt = now, now

	var out models.Column
	err := s.update(ctx, "create_column", func(t txn) error {
		if _, err := t.getBoard(c.BoardID); err != nil {
			return err
		}
		cols, err := sortedColumns(t, c.BoardID)
		if err != nil {
			return err
		}
		idx := targetIndex
		if idx < 0 {
			idx = len(cols)
		}
		after := ordering.Insert(cols, c, idx)
		if err := writeChangedColumns(t, cols, after); err != nil {
			return err
		}
		out = after[ordering.IndexOf(after, c.ID)]
		return t.linkColumn(c.BoardID, c.ID)
	})
	return out, err
}

func (s *DocumentStore) GetColumn(ctx context.Context, id string) (models.Column, error) {
	var c models.Column
	err := s.view(ctx, "get_column", func(t txn) error {
		var err error
		c, err = t.getColumn(id)
		return err
	})
	return c, err
}

// ListColumns returns the board's columns by position.
func (s *DocumentStore) ListColumns(ctx context.Context, boardID string) ([]models.Column, error) {
	var cols []models.Column
	err := s.view(ctx, "list_columns", func(t txn) error {
		if _, err := t.getBoard(boardID); err != nil {
			return err
		}
		var err error
		cols, err = sortedColumns(t, boardID)
		return err
	})
	return cols, err
}

func (s *DocumentStore) UpdateColumn(ctx context.Context, id string, fn func(*models.Column)) (models.Column, error) {
	var out models.Column
	err := s.update(ctx, "update_column", func(t txn) error {
		c, err := t.getColumn(id)
		if err != nil {
			return err
		}
		orig := c
		fn(&c)
		c.ID, c.BoardID, c.Position, c.CreatedAt = orig.ID, orig.BoardID, orig.Position, orig.CreatedAt
		c.UpdatedAt = s.now()
		out = c
		return t.putColumn(c)
	})
	return out, err
}

// MoveColumn reorders a column within its board and returns the board's
// columns in their new order.
func (s *DocumentStore) MoveColumn(ctx context.Context, id string, targetIndex int) ([]models.Column, error) {
	var out []models.Column
	err := s.update(ctx, "move_column", func(t txn) error {
		col, err := t.getColumn(id)
		if err != nil {
			return err
		}
		cols, err := sortedColumns(t, col.BoardID)
		if err != nil {
			return err
		}
		relink := false
		if ordering.IndexOf(cols, id) < 0 {
			cols = append(cols, col)
			relink = true
		}

		after, _ := ordering.Move(cols, id, moveTarget(targetIndex))
		i := ordering.IndexOf(after, id)
		after[i].UpdatedAt = s.now()
		if err := writeChangedColumns(t, cols, after); err != nil {
			return err
		}
		if relink {
			if err := t.linkColumn(col.BoardID, id); err != nil {
				return err
			}
		}
		out = after
		return nil
	})
	return out, err
}

// DeleteColumn removes the column and its cards, then closes the gap in the
// board's column positions.
func (s *DocumentStore) DeleteColumn(ctx context.Context, id string) (models.Column, CascadeResult, error) {
	var (
		col models.Column
		res CascadeResult
	)
	err := s.update(ctx, "delete_column", func(t txn) error {
		res = CascadeResult{}
		var err error
		col, err = t.getColumn(id)
		if err != nil {
			return err
		}
		cards, err := sortedCards(t, id)
		if err != nil {
			return err
		}
		cols, err := sortedColumns(t, col.BoardID)
		if err != nil {
			return err
		}

		if err := deleteCards(t, id, cards, &res); err != nil {
			return err
		}
		if err := t.deleteColumn(id); err != nil {
			return err
		}
		if err := t.unlinkColumn(col.BoardID, id); err != nil {
			return err
		}
		res.Columns = append(res.Columns, id)
		rest, _, _ := ordering.Remove(cols, id)
		return writeChangedColumns(t, cols, rest)
	})
	return col, res, err
}

// --- cards ---

// CreateCard inserts c into its column at targetIndex (AppendIndex for the
// end) and re-sequences the column.
func (s *DocumentStore) CreateCard(ctx context.Context, c models.Card, targetIndex int) (models.Card, error) {
	now := s.now()
	if c.ID == "" {
		c.ID = newID()
	}
	c.CreatedAt, c.UpdatedAt = now, now

	var out models.Card
	err := s.update(ctx, "create_card", func(t txn) error {
		if _, err := t.getColumn(c.ColumnID); err != nil {
			return err
		}
		cards, err := sortedCards(t, c.ColumnID)
		if err != nil {
			return err
		}
		idx := targetIndex
		if idx < 0 {
			idx = len(cards)
		}
		after := ordering.Insert(cards, c, idx)
		if err := writeChangedCards(t, cards, after); err != nil {
			return err
		}
		out = after[ordering.IndexOf(after, c.ID)]
		return t.linkCard(c.ColumnID, c.ID)
	})
	return out, err
}

func (s *DocumentStore) GetCard(ctx context.Context, id string) (models.Card, error) {
	var c models.Card
	err := s.view(ctx, "get_card", func(t txn) error {
		var err error
		c, err = t.getCard(id)
		return err
	})
	return c, err
}

// ListCards returns the column's cards by position.
func (s *DocumentStore) ListCards(ctx context.Context, columnID string) ([]models.Card, error) {
	var cards []models.Card
	err := s.view(ctx, "list_cards", func(t txn) error {
		if _, err := t.getColumn(columnID); err != nil {
			return err
		}
		var err error
		cards, err = sortedCards(t, columnID)
		return err
	})
	return cards, err
}

func (s *DocumentStore) UpdateCard(ctx context.Context, id string, fn func(*models.Card)) (models.Card, error) {
	var out models.Card
	err := s.update(ctx, "update_card", func(t txn) error {
		c, err := t.getCard(id)
		if err != nil {
			return err
		}
		orig := c
		fn(&c)
		c.ID, c.ColumnID, c.Position, c.CreatedAt = orig.ID, orig.ColumnID, orig.Position, orig.CreatedAt
		c.UpdatedAt = s.now()
		out = c
		return t.putCard(c)
	})
	return out, err
}

// DeleteCard removes the card and closes the gap in its column.
func (s *DocumentStore) DeleteCard(ctx context.Context, id string) (models.Card, error) {
	var card models.Card
	err := s.update(ctx, "delete_card", func(t txn) error {
		var err error
		card, err = t.getCard(id)
		if err != nil {
			return err
		}
		cards, err := sortedCards(t, card.ColumnID)
		if err != nil {
			return err
		}

		if err := t.deleteCard(id); err != nil {
			return err
		}
		if err := t.unlinkCard(card.ColumnID, id); err != nil {
			return err
		}
		rest, _, _ := ordering.Remove(cards, id)
		return writeChangedCards(t, cards, rest)
	})
	return card, err
}

// MoveCard relocates a card as one conditional update. The stored
// card.ColumnID must equal req.SourceColumnID or the move fails with a
// *ConflictError and nothing is written. Both columns are re-sequenced and
// the child index entries swapped in the same commit.
func (s *DocumentStore) MoveCard(ctx context.Context, req MoveRequest) (MoveResult, error) {
	var res MoveResult
	err := s.update(ctx, "move_card", func(t txn) error {
		card, err := t.getCard(req.CardID)
		if err != nil {
			return err
		}
		src, err := t.getColumn(req.SourceColumnID)
		if err != nil {
			return err
		}
		dst := src
		if req.DestinationColumnID != req.SourceColumnID {
			if dst, err = t.getColumn(req.DestinationColumnID); err != nil {
				return err
			}
		}
		if card.ColumnID != src.ID {
			return &ConflictError{CardID: card.ID, Expected: src.ID, Actual: card.ColumnID}
		}
		if src.BoardID != dst.BoardID {
			return ErrCrossBoardMove
		}

		srcCards, err := sortedCards(t, src.ID)
		if err != nil {
			return err
		}
		relink := false
		if ordering.IndexOf(srcCards, card.ID) < 0 {
			srcCards = append(srcCards, card)
			relink = true
		}
		now := s.now()

		res = MoveResult{BoardID: src.BoardID, SourceColumnID: src.ID, DestinationColumnID: dst.ID}

		if src.ID == dst.ID {
			after, _ := ordering.Move(srcCards, card.ID, moveTarget(req.TargetIndex))
			i := ordering.IndexOf(after, card.ID)
			after[i].UpdatedAt = now
			if err := writeChangedCards(t, srcCards, after); err != nil {
				return err
			}
			if relink {
				if err := t.linkCard(src.ID, card.ID); err != nil {
					return err
				}
			}
			res.Card, res.Source, res.Destination = after[i], after, after
			return nil
		}

		dstCards, err := sortedCards(t, dst.ID)
		if err != nil {
			return err
		}

		moving := slices.Clone(srcCards)
		i := ordering.IndexOf(moving, card.ID)
		moving[i].ColumnID = dst.ID
		moving[i].UpdatedAt = now

		newSrc, newDst, moved, _ := ordering.Transfer(moving, dstCards, card.ID, moveTarget(req.TargetIndex))
		if err := writeChangedCards(t, srcCards, newSrc); err != nil {
			return err
		}
		if err := writeChangedCards(t, dstCards, newDst); err != nil {
			return err
		}
		if !relink {
			if err := t.unlinkCard(src.ID, card.ID); err != nil {
				return err
			}
		}
		if err := t.linkCard(dst.ID, card.ID); err != nil {
			return err
		}
		res.Card, res.Source, res.Destination = moved, newSrc, newDst
		return nil
	})
	return res, err
}

// --- reads ---

func (s *DocumentStore) BoardOf(ctx context.Context, columnID string) (string, error) {
	col, err := s.GetColumn(ctx, columnID)
	if err != nil {
		return "", err
	}
	return col.BoardID, nil
}

// GetBoardTree reads the board, its columns and their cards from one
// consistent snapshot.
func (s *DocumentStore) GetBoardTree(ctx context.Context, boardID string) (models.BoardTree, error) {
	var tree models.BoardTree
	err := s.view(ctx, "get_board_tree", func(t txn) error {
		b, err := t.getBoard(boardID)
		if err != nil {
			return err
		}
		cols, err := sortedColumns(t, boardID)
		if err != nil {
			return err
		}
		tree = models.BoardTree{Board: b, Columns: make([]models.ColumnTree, 0, len(cols))}
		for _, col := range cols {
			cards, err := sortedCards(t, col.ID)
			if err != nil {
				return err
			}
			if cards == nil {
				cards = []models.Card{}
			}
			tree.Columns = append(tree.Columns, models.ColumnTree{Column: col, Cards: cards})
		}
		return nil
	})
	return tree, err
}

func (s *DocumentStore) Ping(ctx context.Context) error { return s.b.ping(ctx) }

func (s *DocumentStore) Close() error { return s.b.close() }
