// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package reconcile

import (
	"errors"
	"fmt"
	"sync"

	"github.com/tomtom215/corkboard/internal/models"
	"github.com/tomtom215/corkboard/internal/ordering"
)

var (
	// ErrUnknownCard means the card is not in the local board.
	ErrUnknownCard = errors.New("card not in local state")

	// ErrUnknownColumn means the column is not in the local board.
	ErrUnknownColumn = errors.New("column not in local state")
)

// BoardState is a client's local mirror of one board. Every mutation keeps
// column and card positions dense.
type BoardState struct {
	mu      sync.RWMutex
	tree    models.BoardTree
	deleted bool
}

// NewBoardState copies tree into a new local state.
func NewBoardState(tree models.BoardTree) *BoardState {
	s := &BoardState{}
	s.Replace(tree)
	return s
}

// Replace discards local state in favour of tree.
func (s *BoardState) Replace(tree models.BoardTree) {
	tree = tree.Clone()
	ordering.SortByPosition(tree.Columns)
	ordering.Resequence(tree.Columns)
	for i := range tree.Columns {
		ordering.SortByPosition(tree.Columns[i].Cards)
		ordering.Resequence(tree.Columns[i].Cards)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tree = tree
	s.deleted = false
}

// Snapshot returns a deep copy of the current board.
func (s *BoardState) Snapshot() models.BoardTree {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Clone()
}

// BoardID returns the id of the mirrored board.
func (s *BoardState) BoardID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.ID
}

// Deleted reports whether a boardDeleted event has been applied.
func (s *BoardState) Deleted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deleted
}

// Locate returns the column holding cardID and the card's index in it.
func (s *BoardState) Locate(cardID string) (columnID string, index int, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return locate(&s.tree, cardID)
}

// Card returns the local copy of cardID.
func (s *BoardState) Card(cardID string) (models.Card, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	colID, idx, ok := locate(&s.tree, cardID)
	if !ok {
		return models.Card{}, false
	}
	return s.tree.Column(colID).Cards[idx], true
}

// ApplyMove moves cardID into dstColumnID at index, counted after the card
// is removed from its current column. A negative index appends.
func (s *BoardState) ApplyMove(cardID, dstColumnID string, index int) (models.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	srcID, _, ok := locate(&s.tree, cardID)
	if !ok {
		return models.Card{}, fmt.Errorf("%w: %s", ErrUnknownCard, cardID)
	}
	dst := s.tree.Column(dstColumnID)
	if dst == nil {
		return models.Card{}, fmt.Errorf("%w: %s", ErrUnknownColumn, dstColumnID)
	}
	if index < 0 {
		index = len(dst.Cards)
	}

	if srcID == dstColumnID {
		dst.Cards, _ = ordering.Move(dst.Cards, cardID, index)
		return dst.Cards[ordering.IndexOf(dst.Cards, cardID)], nil
	}

	src := s.tree.Column(srcID)
	var moved models.Card
	src.Cards, dst.Cards, moved, _ = ordering.Transfer(src.Cards, dst.Cards, cardID, index)
	moved.ColumnID = dstColumnID
	dst.Cards[moved.Position] = moved
	return moved, nil
}

// ApplyCard places card at card.ColumnID and card.Position, removing any
// other copy first. It reports whether local state changed. Unknown columns
// leave the state untouched.
func (s *BoardState) ApplyCard(card models.Card) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsertCard(card)
}

// ApplyCreate adds a card announced by the server. It is idempotent.
func (s *BoardState) ApplyCreate(card models.Card) (bool, error) {
	return s.ApplyCard(card)
}

// ApplyUpdate replaces the card's fields without changing its place.
func (s *BoardState) ApplyUpdate(card models.Card) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	colID, idx, ok := locate(&s.tree, card.ID)
	if !ok {
		return s.upsertCard(card)
	}
	if colID != card.ColumnID {
		return s.upsertCard(card)
	}
	col := s.tree.Column(colID)
	cur := col.Cards[idx]
	card.Position = idx
	if sameCard(cur, card) {
		return false, nil
	}
	col.Cards[idx] = card
	return true, nil
}

// ApplyDelete removes cardID. It reports false when the card was absent.
func (s *BoardState) ApplyDelete(cardID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	colID, _, ok := locate(&s.tree, cardID)
	if !ok {
		return false
	}
	col := s.tree.Column(colID)
	col.Cards, _, _ = ordering.Remove(col.Cards, cardID)
	return true
}

// ApplyColumn creates or updates col, moving it to col.Position. Cards of
// an existing column are kept.
func (s *BoardState) ApplyColumn(col models.Column) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := ordering.IndexOf(s.tree.Columns, col.ID)
	if idx >= 0 {
		cur := s.tree.Columns[idx]
		if cur.Title == col.Title && idx == ordering.ClampIndex(col.Position, len(s.tree.Columns)-1) {
			return false
		}
		rest, existing, _ := ordering.Remove(s.tree.Columns, col.ID)
		existing.Column = col
		s.tree.Columns = ordering.Insert(rest, existing, col.Position)
		return true
	}
	s.tree.Columns = ordering.Insert(s.tree.Columns, models.ColumnTree{Column: col, Cards: []models.Card{}}, col.Position)
	return true
}

// ApplyColumnDelete removes a column and its cards.
func (s *BoardState) ApplyColumnDelete(columnID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ok bool
	s.tree.Columns, _, ok = ordering.Remove(s.tree.Columns, columnID)
	return ok
}

// ApplyBoard updates board-level fields.
func (s *BoardState) ApplyBoard(b models.Board) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tree.Title == b.Title && s.tree.Description == b.Description {
		return false
	}
	s.tree.Board = b
	return true
}

// MarkDeleted records that the board no longer exists on the server.
func (s *BoardState) MarkDeleted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	was := s.deleted
	s.deleted = true
	s.tree.Columns = []models.ColumnTree{}
	return !was
}

// upsertCard must be called with the lock held.
func (s *BoardState) upsertCard(card models.Card) (bool, error) {
	dst := s.tree.Column(card.ColumnID)
	if dst == nil {
		return false, fmt.Errorf("%w: %s", ErrUnknownColumn, card.ColumnID)
	}

	if colID, idx, ok := locate(&s.tree, card.ID); ok {
		src := s.tree.Column(colID)
		if colID == card.ColumnID &&
			idx == ordering.ClampIndex(card.Position, len(src.Cards)-1) &&
			sameCard(src.Cards[idx], withPosition(card, idx)) {
			return false, nil
		}
		src.Cards, _, _ = ordering.Remove(src.Cards, card.ID)
	}

	dst.Cards = ordering.Insert(dst.Cards, card, card.Position)
	return true, nil
}

func locate(tree *models.BoardTree, cardID string) (string, int, bool) {
	for _, col := range tree.Columns {
		if i := ordering.IndexOf(col.Cards, cardID); i >= 0 {
			return col.ID, i, true
		}
	}
	return "", 0, false
}

func withPosition(c models.Card, p int) models.Card {
	c.Position = p
	return c
}

func sameCard(a, b models.Card) bool {
	return a.ID == b.ID &&
		a.ColumnID == b.ColumnID &&
		a.Title == b.Title &&
		a.Description == b.Description &&
		a.Position == b.Position
}
