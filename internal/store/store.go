// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

// Package store persists boards, columns and cards.
//
// Each entity is one document. Containment is recorded only by the child's
// parent pointer (Column.BoardID, Card.ColumnID). Per-parent child indexes
// exist for fast hierarchical reads but are written in the same transaction
// as the pointer they mirror, and RebuildIndexes can always recompute them
// from the pointers alone.
//
// Structural mutations (create, delete, move) run in one optimistic
// transaction that re-sequences every affected sibling list, so positions
// stay dense 0..N-1 after each commit. Contention surfaces as ErrConflict.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/corkboard/internal/models"
)

// AppendIndex places a new column or card after its last sibling.
const AppendIndex = -1

var (
	// ErrNotFound is matched by every *NotFoundError.
	ErrNotFound = errors.New("not found")

	// ErrConflict means the stored state no longer matches the caller's
	// precondition, or a concurrent writer won the commit race.
	ErrConflict = errors.New("conflict")

	// ErrCrossBoardMove rejects moving a card into a column of another board.
	ErrCrossBoardMove = errors.New("source and destination columns belong to different boards")
)

// Entity names used in NotFoundError.
const (
	EntityBoard  = "board"
	EntityColumn = "column"
	EntityCard   = "card"
)

// NotFoundError names the entity type and id that did not resolve.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func notFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ConflictError carries what the caller expected and what was stored.
type ConflictError struct {
	CardID   string
	Expected string
	Actual   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("card %q is in column %q, not %q", e.CardID, e.Actual, e.Expected)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// MoveRequest describes a card relocation. TargetIndex uses post-removal
// indexing (see package ordering); AppendIndex moves the card to the end.
type MoveRequest struct {
	CardID              string
	SourceColumnID      string
	DestinationColumnID string
	TargetIndex         int
}

// MoveResult is the committed state of both affected columns.
type MoveResult struct {
	Card                models.Card
	BoardID             string
	SourceColumnID      string
	DestinationColumnID string
	Source              []models.Card
	Destination         []models.Card
}

// SameColumn reports whether the move only reordered one column.
func (r MoveResult) SameColumn() bool {
	return r.SourceColumnID == r.DestinationColumnID
}

// CascadeResult counts the children removed with a board or column.
type CascadeResult struct {
	Columns []string
	Cards   []string
}

// RepairReport summarises a RebuildIndexes run. A second run on repaired
// data reports all zeros.
type RepairReport struct {
	IndexEntriesAdded   int           `json:"indexEntriesAdded"`
	IndexEntriesRemoved int           `json:"indexEntriesRemoved"`
	PositionsFixed      int           `json:"positionsFixed"`
	OrphansRemoved      int           `json:"orphansRemoved"`
	Duration            time.Duration `json:"duration"`
}

// Clean reports whether nothing needed fixing.
func (r RepairReport) Clean() bool {
	return r.IndexEntriesAdded == 0 && r.IndexEntriesRemoved == 0 &&
		r.PositionsFixed == 0 && r.OrphansRemoved == 0
}

// Store is the entity store used by the board service.
//
// Update functions receive the current document and may change its
// descriptive fields; identity, parent pointer and position are restored
// after the callback so structural changes only happen through the
// dedicated operations.
type Store interface {
	CreateBoard(ctx context.Context, b models.Board) (models.Board, error)
	GetBoard(ctx context.Context, id string) (models.Board, error)
	ListBoards(ctx context.Context) ([]models.Board, error)
	UpdateBoard(ctx context.Context, id string, fn func(*models.Board)) (models.Board, error)
	DeleteBoard(ctx context.Context, id string) (CascadeResult, error)

	CreateColumn(ctx context.Context, c models.Column, targetIndex int) (models.Column, error)
	GetColumn(ctx context.Context, id string) (models.Column, error)
	ListColumns(ctx context.Context, boardID string) ([]models.Column, error)
	UpdateColumn(ctx context.Context, id string, fn func(*models.Column)) (models.Column, error)
	MoveColumn(ctx context.Context, id string, targetIndex int) ([]models.Column, error)
	DeleteColumn(ctx context.Context, id string) (models.Column, CascadeResult, error)

	CreateCard(ctx context.Context, c models.Card, targetIndex int) (models.Card, error)
	GetCard(ctx context.Context, id string) (models.Card, error)
	ListCards(ctx context.Context, columnID string) ([]models.Card, error)
	UpdateCard(ctx context.Context, id string, fn func(*models.Card)) (models.Card, error)
	DeleteCard(ctx context.Context, id string) (models.Card, error)
	MoveCard(ctx context.Context, req MoveRequest) (MoveResult, error)

	// BoardOf resolves the board owning a column.
	BoardOf(ctx context.Context, columnID string) (string, error)
	GetBoardTree(ctx context.Context, boardID string) (models.BoardTree, error)
	RebuildIndexes(ctx context.Context) (RepairReport, error)

	Ping(ctx context.Context) error
	Close() error
}
