// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

/*
Package models defines the board hierarchy shared by the server, the store
backends and the Go client.

Containment is expressed only by parent pointers: a Column carries BoardID and
a Card carries ColumnID. Ordered child lists (a board's columns, a column's
cards) are never stored; they are built on read by querying children of a
parent and sorting by Position. BoardTree and ColumnTree are those read views.
*/
package models

import (
	"slices"
	"time"
)

// Board is the root of the hierarchy.
type Board struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Column is an ordered lane within a board. Position is dense 0..N-1 among
// the board's columns.
type Column struct {
	ID        string    `json:"id"`
	BoardID   string    `json:"boardId"`
	Title     string    `json:"title"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c Column) OrderKey() string   { return c.ID }
func (c Column) GetPosition() int   { return c.Position }
func (c *Column) SetPosition(p int) { c.Position = p }

// Card is the leaf entity. ColumnID is the single authoritative record of
// which column holds the card.
type Card struct {
	ID          string    `json:"id"`
	ColumnID    string    `json:"columnId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Position    int       `json:"position"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (c Card) OrderKey() string   { return c.ID }
func (c Card) GetPosition() int   { return c.Position }
func (c *Card) SetPosition(p int) { c.Position = p }

// ColumnTree is a column with its cards sorted by position.
type ColumnTree struct {
	Column
	Cards []Card `json:"cards"`
}

// CardIDs returns the ordered card reference list of the column.
func (c ColumnTree) CardIDs() []string {
	ids := make([]string, len(c.Cards))
	for i, card := range c.Cards {
		ids[i] = card.ID
	}
	return ids
}

// BoardTree is the full hydration view returned by GET /boards/{id}.
type BoardTree struct {
	Board
	Columns []ColumnTree `json:"columns"`
}

// ColumnIDs returns the ordered column reference list of the board.
func (b BoardTree) ColumnIDs() []string {
	ids := make([]string, len(b.Columns))
	for i, col := range b.Columns {
		ids[i] = col.ID
	}
	return ids
}

// Column returns the column with the given id, or nil.
func (b *BoardTree) Column(id string) *ColumnTree {
	for i := range b.Columns {
		if b.Columns[i].ID == id {
			return &b.Columns[i]
		}
	}
	return nil
}

// CardCount is the number of cards across all columns.
func (b BoardTree) CardCount() int {
	n := 0
	for _, col := range b.Columns {
		n += len(col.Cards)
	}
	return n
}

// Clone returns a deep copy; the client keeps snapshots for revert.
func (b BoardTree) Clone() BoardTree {
	out := BoardTree{Board: b.Board, Columns: make([]ColumnTree, len(b.Columns))}
	for i, col := range b.Columns {
		out.Columns[i] = ColumnTree{Column: col.Column, Cards: slices.Clone(col.Cards)}
		if out.Columns[i].Cards == nil {
			out.Columns[i].Cards = []Card{}
		}
	}
	return out
}
