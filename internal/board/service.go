// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

/*
Package board is the service layer between the HTTP API and the entity store.

It scopes every column and card operation to the board named in the request,
runs the structural change as one store transaction and, only after the
commit succeeds, publishes the matching realtime event to the board's room.

# Move coordination

MoveCard is a compare-and-swap on the card's column: the caller names the
column it believes holds the card, and the move fails with ErrConflict if the
stored card says otherwise. Both affected columns are re-sequenced in the same
commit, so a failed or racing move never leaves a card in zero or two
columns.

	card, err := svc.MoveCard(ctx, boardID, cardID, fromColumn, toColumn, 0)
	switch {
	case board.IsConflict(err):   // someone moved it first; re-fetch
	case board.IsNotFound(err):   // card or column is gone
	case board.IsValidation(err): // e.g. destination on another board
	}

# Events

Publish failures are logged and never returned: the write has already
committed and clients recover by re-reading the board.
*/
package board

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tomtom215/corkboard/internal/events"
	"github.com/tomtom215/corkboard/internal/logging"
	"github.com/tomtom215/corkboard/internal/metrics"
	"github.com/tomtom215/corkboard/internal/models"
	"github.com/tomtom215/corkboard/internal/store"
)

// Service implements board, column and card operations.
type Service struct {
	store store.Store
	pub   events.Publisher
	now   func() time.Time
}

// NewService creates a service. A nil publisher discards events.
func NewService(st store.Store, pub events.Publisher) *Service {
	if pub == nil {
		pub = events.PublisherFunc(func(context.Context, string, string, any) error { return nil })
	}
	return &Service{
		store: st,
		pub:   pub,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the event timestamp source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// publish runs detached from request cancellation: the write it reports has
// already committed.
func (s *Service) publish(ctx context.Context, boardID, event string, payload any) {
	if err := s.pub.Publish(context.WithoutCancel(ctx), boardID, event, payload); err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("event", event).
			Str("board_id", boardID).
			Msg("Failed to publish board event")
	}
}

// Ping checks the store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func requireTitle(field string, title *string) error {
	if title != nil && strings.TrimSpace(*title) == "" {
		return invalid(field, "must not be blank")
	}
	return nil
}

func indexOrAppend(field string, pos *int) (int, error) {
	if pos == nil {
		return store.AppendIndex, nil
	}
	if *pos < 0 {
		return 0, invalid(field, "must be zero or greater")
	}
	return *pos, nil
}

// --- boards ---

// CreateBoard creates an empty board.
func (s *Service) CreateBoard(ctx context.Context, req models.CreateBoardRequest) (models.Board, error) {
	if err := requireTitle("title", &req.Title); err != nil {
		return models.Board{}, err
	}
	b, err := s.store.CreateBoard(ctx, models.Board{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
	})
	if err != nil {
		return models.Board{}, wrap("create board", err)
	}
	logging.Ctx(ctx).Info().Str("board_id", b.ID).Msg("Board created")
	return b, nil
}

// ListBoards returns every board, oldest first.
func (s *Service) ListBoards(ctx context.Context) ([]models.Board, error) {
	boards, err := s.store.ListBoards(ctx)
	if boards == nil {
		boards = []models.Board{}
	}
	return boards, wrap("list boards", err)
}

// GetBoardTree returns the board with its columns and cards in order. This is
// the hydration read for clients joining or rejoining a board.
func (s *Service) GetBoardTree(ctx context.Context, boardID string) (models.BoardTree, error) {
	tree, err := s.store.GetBoardTree(ctx, boardID)
	return tree, wrap("get board", err)
}

// UpdateBoard applies the present fields and publishes boardUpdated.
func (s *Service) UpdateBoard(ctx context.Context, boardID string, req models.UpdateBoardRequest) (models.Board, error) {
	if err := requireTitle("title", req.Title); err != nil {
		return models.Board{}, err
	}
	b, err := s.store.UpdateBoard(ctx, boardID, func(b *models.Board) {
		if req.Title != nil {
			b.Title = strings.TrimSpace(*req.Title)
		}
		if req.Description != nil {
			b.Description = *req.Description
		}
	})
	if err != nil {
		return models.Board{}, wrap("update board", err)
	}
	s.publish(ctx, b.ID, events.BoardUpdated, models.BoardChanged{Board: b, Timestamp: s.now()})
	return b, nil
}

// DeleteBoard removes the board with all of its columns and cards.
func (s *Service) DeleteBoard(ctx context.Context, boardID string) (store.CascadeResult, error) {
	res, err := s.store.DeleteBoard(ctx, boardID)
	if err != nil {
		return res, wrap("delete board", err)
	}
	logging.Ctx(ctx).Info().
		Str("board_id", boardID).
		Int("columns", len(res.Columns)).
		Int("cards", len(res.Cards)).
		Msg("Board deleted")
	s.publish(ctx, boardID, events.BoardDeleted, models.BoardDeleted{ID: boardID})
	return res, nil
}

// --- columns ---

// column loads a column and checks it belongs to boardID. A column on another
// board is reported as not found.
func (s *Service) column(ctx context.Context, boardID, columnID string) (models.Column, error) {
	col, err := s.store.GetColumn(ctx, columnID)
	if err != nil {
		return col, err
	}
	if col.BoardID != boardID {
		return models.Column{}, &store.NotFoundError{Entity: store.EntityColumn, ID: columnID}
	}
	return col, nil
}

// CreateColumn inserts a column at req.Position, or at the end.
func (s *Service) CreateColumn(ctx context.Context, boardID string, req models.CreateColumnRequest) (models.Column, error) {
	if err := requireTitle("title", &req.Title); err != nil {
		return models.Column{}, err
	}
	idx, err := indexOrAppend("position", req.Position)
	if err != nil {
		return models.Column{}, err
	}
	col, err := s.store.CreateColumn(ctx, models.Column{
		BoardID: boardID,
		Title:   strings.TrimSpace(req.Title),
	}, idx)
	if err != nil {
		return models.Column{}, wrap("create column", err)
	}
	s.publish(ctx, boardID, events.ColumnCreated, models.ColumnChanged{Column: col, BoardID: boardID, Timestamp: s.now()})
	return col, nil
}

// ListColumns returns the board's columns by position.
func (s *Service) ListColumns(ctx context.Context, boardID string) ([]models.Column, error) {
	cols, err := s.store.ListColumns(ctx, boardID)
	if cols == nil {
		cols = []models.Column{}
	}
	return cols, wrap("list columns", err)
}

// UpdateColumn renames and/or reorders a column. A position change publishes
// columnMoved; a title change publishes columnUpdated.
func (s *Service) UpdateColumn(ctx context.Context, boardID, columnID string, req models.UpdateColumnRequest) (models.Column, error) {
	if err := requireTitle("title", req.Title); err != nil {
		return models.Column{}, err
	}
	col, err := s.column(ctx, boardID, columnID)
	if err != nil {
		return models.Column{}, wrap("update column", err)
	}

	if req.Title != nil {
		col, err = s.store.UpdateColumn(ctx, columnID, func(c *models.Column) {
			c.Title = strings.TrimSpace(*req.Title)
		})
		if err != nil {
			return models.Column{}, wrap("update column", err)
		}
		s.publish(ctx, boardID, events.ColumnUpdated, models.ColumnChanged{Column: col, BoardID: boardID, Timestamp: s.now()})
	}

	if req.Position != nil && *req.Position != col.Position {
		cols, err := s.MoveColumn(ctx, boardID, columnID, *req.Position)
		if err != nil {
			return models.Column{}, err
		}
		for _, c := range cols {
			if c.ID == columnID {
				col = c
			}
		}
	}
	return col, nil
}

// MoveColumn reorders a column within its board and returns the new order.
func (s *Service) MoveColumn(ctx context.Context, boardID, columnID string, targetIndex int) ([]models.Column, error) {
	if targetIndex < 0 && targetIndex != store.AppendIndex {
		return nil, invalid("position", "must be zero or greater")
	}
	if _, err := s.column(ctx, boardID, columnID); err != nil {
		return nil, wrap("move column", err)
	}
	cols, err := s.store.MoveColumn(ctx, columnID, targetIndex)
	if err != nil {
		return nil, wrap("move column", err)
	}
	for _, c := range cols {
		if c.ID == columnID {
			s.publish(ctx, boardID, events.ColumnMoved, models.ColumnChanged{Column: c, BoardID: boardID, Timestamp: s.now()})
			break
		}
	}
	return cols, nil
}

// DeleteColumn removes the column and its cards.
func (s *Service) DeleteColumn(ctx context.Context, boardID, columnID string) (store.CascadeResult, error) {
	if _, err := s.column(ctx, boardID, columnID); err != nil {
		return store.CascadeResult{}, wrap("delete column", err)
	}
	_, res, err := s.store.DeleteColumn(ctx, columnID)
	if err != nil {
		return res, wrap("delete column", err)
	}
	s.publish(ctx, boardID, events.ColumnDeleted, models.ColumnDeleted{ID: columnID, BoardID: boardID})
	return res, nil
}

// --- cards ---

// CreateCard inserts a card into a column at req.Position, or at the end.
func (s *Service) CreateCard(ctx context.Context, boardID, columnID string, req models.CreateCardRequest) (models.Card, error) {
	if err := requireTitle("title", &req.Title); err != nil {
		return models.Card{}, err
	}
	idx, err := indexOrAppend("position", req.Position)
	if err != nil {
		return models.Card{}, err
	}
	if _, err := s.column(ctx, boardID, columnID); err != nil {
		return models.Card{}, wrap("create card", err)
	}
	card, err := s.store.CreateCard(ctx, models.Card{
		ColumnID:    columnID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
	}, idx)
	if err != nil {
		return models.Card{}, wrap("create card", err)
	}
	s.publish(ctx, boardID, events.CardCreated, models.CardCreated{Card: card, BoardID: boardID, Timestamp: s.now()})
	return card, nil
}

// ListCards returns a column's cards by position.
func (s *Service) ListCards(ctx context.Context, boardID, columnID string) ([]models.Card, error) {
	if _, err := s.column(ctx, boardID, columnID); err != nil {
		return nil, wrap("list cards", err)
	}
	cards, err := s.store.ListCards(ctx, columnID)
	if cards == nil {
		cards = []models.Card{}
	}
	return cards, wrap("list cards", err)
}

// GetCard loads a card that belongs to boardID.
func (s *Service) GetCard(ctx context.Context, boardID, cardID string) (models.Card, error) {
	card, err := s.card(ctx, boardID, cardID)
	return card, wrap("get card", err)
}

func (s *Service) card(ctx context.Context, boardID, cardID string) (models.Card, error) {
	card, err := s.store.GetCard(ctx, cardID)
	if err != nil {
		return card, err
	}
	if _, err := s.column(ctx, boardID, card.ColumnID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Card{}, &store.NotFoundError{Entity: store.EntityCard, ID: cardID}
		}
		return models.Card{}, err
	}
	return card, nil
}

// UpdateCard edits fields and, when req carries ColumnID or Position, moves
// the card. columnID is the column the caller last saw the card in. A field
// edit of a card that is not there is ErrNotFound; a move uses columnID as
// its source precondition, so a stale view fails with ErrConflict and
// nothing changes. The move commits before any field edit.
func (s *Service) UpdateCard(ctx context.Context, boardID, columnID, cardID string, req models.UpdateCardRequest) (models.Card, error) {
	if err := requireTitle("title", req.Title); err != nil {
		return models.Card{}, err
	}
	if req.Position != nil && *req.Position < 0 {
		return models.Card{}, invalid("position", "must be zero or greater")
	}

	if !req.IsMove() {
		card, err := s.card(ctx, boardID, cardID)
		if err != nil {
			return models.Card{}, wrap("update card", err)
		}
		if card.ColumnID != columnID {
			return models.Card{}, wrap("update card", &store.NotFoundError{Entity: store.EntityCard, ID: cardID})
		}
		return s.editCard(ctx, boardID, cardID, req)
	}

	dest := columnID
	if req.ColumnID != nil {
		dest = *req.ColumnID
	}
	idx := store.AppendIndex
	if req.Position != nil {
		idx = *req.Position
	}
	card, err := s.MoveCard(ctx, boardID, cardID, columnID, dest, idx)
	if err != nil {
		return models.Card{}, err
	}
	if req.Title == nil && req.Description == nil {
		return card, nil
	}
	return s.editCard(ctx, boardID, cardID, req)
}

func (s *Service) editCard(ctx context.Context, boardID, cardID string, req models.UpdateCardRequest) (models.Card, error) {
	card, err := s.store.UpdateCard(ctx, cardID, func(c *models.Card) {
		if req.Title != nil {
			c.Title = strings.TrimSpace(*req.Title)
		}
		if req.Description != nil {
			c.Description = *req.Description
		}
	})
	if err != nil {
		return models.Card{}, wrap("update card", err)
	}
	s.publish(ctx, boardID, events.CardUpdated, models.CardUpdated{Card: card, BoardID: boardID, Timestamp: s.now()})
	return card, nil
}

// DeleteCard removes a card and closes the gap in its column.
func (s *Service) DeleteCard(ctx context.Context, boardID, cardID string) (models.Card, error) {
	if _, err := s.card(ctx, boardID, cardID); err != nil {
		return models.Card{}, wrap("delete card", err)
	}
	card, err := s.store.DeleteCard(ctx, cardID)
	if err != nil {
		return models.Card{}, wrap("delete card", err)
	}
	s.publish(ctx, boardID, events.CardDeleted, models.CardDeleted{ID: card.ID, ColumnID: card.ColumnID})
	return card, nil
}

// MoveCard relocates a card from sourceColumnID to destinationColumnID at
// targetIndex (post-removal indexing, or store.AppendIndex). It fails with
// ErrConflict when the card is no longer in sourceColumnID, ErrNotFound when
// the card or a column is missing, and ErrValidation when the destination is
// on another board. cardMoved is published after the commit.
func (s *Service) MoveCard(ctx context.Context, boardID, cardID, sourceColumnID, destinationColumnID string, targetIndex int) (models.Card, error) {
	switch {
	case sourceColumnID == "":
		return models.Card{}, invalid("sourceColumnId", "is required")
	case destinationColumnID == "":
		return models.Card{}, invalid("destinationColumnId", "is required")
	case targetIndex < 0 && targetIndex != store.AppendIndex:
		return models.Card{}, invalid("targetIndex", "must be zero or greater")
	}
	same := sourceColumnID == destinationColumnID

	if _, err := s.column(ctx, boardID, sourceColumnID); err != nil {
		metrics.RecordCardMove(same, moveOutcome(err))
		return models.Card{}, wrap("move card", err)
	}

	res, err := s.store.MoveCard(ctx, store.MoveRequest{
		CardID:              cardID,
		SourceColumnID:      sourceColumnID,
		DestinationColumnID: destinationColumnID,
		TargetIndex:         targetIndex,
	})
	metrics.RecordCardMove(same, moveOutcome(err))
	if err != nil {
		logging.Ctx(ctx).Debug().Err(err).
			Str("card_id", cardID).
			Str("source_column_id", sourceColumnID).
			Str("destination_column_id", destinationColumnID).
			Msg("Card move rejected")
		return models.Card{}, wrap("move card", err)
	}

	s.publish(ctx, boardID, events.CardMoved, models.CardMoved{
		Card:                res.Card,
		SourceColumnID:      res.SourceColumnID,
		DestinationColumnID: res.DestinationColumnID,
		BoardID:             res.BoardID,
		Timestamp:           s.now(),
	})
	return res.Card, nil
}

func moveOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, store.ErrConflict):
		return "conflict"
	case errors.Is(err, store.ErrNotFound):
		return "not_found"
	case errors.Is(err, store.ErrCrossBoardMove):
		return "invalid"
	default:
		return "error"
	}
}

// --- maintenance ---

// Repair rebuilds every child index from the parent pointers and
// re-sequences positions.
func (s *Service) Repair(ctx context.Context) (store.RepairReport, error) {
	report, err := s.store.RebuildIndexes(ctx)
	if err != nil {
		return report, wrap("repair", err)
	}
	metrics.RecordRepair(report.IndexEntriesAdded, report.IndexEntriesRemoved, report.PositionsFixed, report.OrphansRemoved)

	event := logging.Ctx(ctx).Info()
	if !report.Clean() {
		event = logging.Ctx(ctx).Warn()
	}
	event.
		Int("index_entries_added", report.IndexEntriesAdded).
		Int("index_entries_removed", report.IndexEntriesRemoved).
		Int("positions_fixed", report.PositionsFixed).
		Int("orphans_removed", report.OrphansRemoved).
		Dur("duration", report.Duration).
		Msg("Index rebuild complete")
	return report, nil
}
