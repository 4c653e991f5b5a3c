// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package store

import (
	"context"
	"errors"
	"slices"

	"github.com/tomtom215/corkboard/internal/models"
	"github.com/tomtom215/corkboard/internal/ordering"
)

// errContention is returned by a backend when its optimistic transaction
// lost a race. The engine retries; callers only ever see ErrConflict.
var errContention = errors.New("transaction contention")

// txn is the per-transaction view a backend hands to the engine.
//
// Operations must do all of their reads before their first write: the redis
// backend buffers writes into MULTI/EXEC and cannot read its own writes.
type txn interface {
	getBoard(id string) (models.Board, error)
	getColumn(id string) (models.Column, error)
	getCard(id string) (models.Card, error)
	listBoards() ([]models.Board, error)

	// columnsOf and cardsOf resolve the child index and load each child.
	// Order is unspecified.
	columnsOf(boardID string) ([]models.Column, error)
	cardsOf(columnID string) ([]models.Card, error)

	putBoard(b models.Board) error
	putColumn(c models.Column) error
	putCard(c models.Card) error
	deleteBoard(id string) error
	deleteColumn(id string) error
	deleteCard(id string) error

	linkColumn(boardID, columnID string) error
	unlinkColumn(boardID, columnID string) error
	linkCard(columnID, cardID string) error
	unlinkCard(columnID, cardID string) error

	// scan loads every document and every index entry.
	scan() (*snapshot, error)
}

// backend runs transactions against a concrete database.
type backend interface {
	name() string
	view(ctx context.Context, fn func(txn) error) error
	// update runs fn once and commits. Losing an optimistic race returns
	// errContention.
	update(ctx context.Context, fn func(txn) error) error
	ping(ctx context.Context) error
	close() error
}

// snapshot is the whole database as seen by one transaction.
type snapshot struct {
	boards    []models.Board
	columns   []models.Column
	cards     []models.Card
	boardCols map[string][]string
	colCards  map[string][]string
}

// sortedColumns lists a board's columns by position. Index entries whose
// document points at another board are skipped: the parent pointer wins.
func sortedColumns(t txn, boardID string) ([]models.Column, error) {
	cols, err := t.columnsOf(boardID)
	if err != nil {
		return nil, err
	}
	cols = slices.DeleteFunc(cols, func(c models.Column) bool { return c.BoardID != boardID })
	ordering.SortByPosition(cols)
	return cols, nil
}

// sortedCards lists a column's cards by position, trusting Card.ColumnID
// over the index.
func sortedCards(t txn, columnID string) ([]models.Card, error) {
	cards, err := t.cardsOf(columnID)
	if err != nil {
		return nil, err
	}
	cards = slices.DeleteFunc(cards, func(c models.Card) bool { return c.ColumnID != columnID })
	ordering.SortByPosition(cards)
	return cards, nil
}

// writeChangedColumns persists every column in after whose position differs
// from before, plus any column not present in before.
func writeChangedColumns(t txn, before, after []models.Column) error {
	prev := make(map[string]int, len(before))
	for _, c := range before {
		prev[c.ID] = c.Position
	}
	for _, c := range after {
		if p, ok := prev[c.ID]; ok && p == c.Position {
			continue
		}
		if err := t.putColumn(c); err != nil {
			return err
		}
	}
	return nil
}

func writeChangedCards(t txn, before, after []models.Card) error {
	prev := make(map[string]int, len(before))
	for _, c := range before {
		prev[c.ID] = c.Position
	}
	for _, c := range after {
		if p, ok := prev[c.ID]; ok && p == c.Position {
			continue
		}
		if err := t.putCard(c); err != nil {
			return err
		}
	}
	return nil
}
