// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package models

// Request bodies accepted by the HTTP API. Optional fields are pointers so a
// PATCH can tell "absent" from "zero".

type CreateBoardRequest struct {
	Title       string `json:"title" validate:"required,notblank,max=200"`
	Description string `json:"description,omitempty" validate:"max=2000"`
}

type UpdateBoardRequest struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,notblank,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
}

type CreateColumnRequest struct {
	Title string `json:"title" validate:"required,notblank,max=200"`
	// Position defaults to the end of the board.
	Position *int `json:"position,omitempty" validate:"omitempty,min=0"`
}

type UpdateColumnRequest struct {
	Title    *string `json:"title,omitempty" validate:"omitempty,notblank,max=200"`
	Position *int    `json:"position,omitempty" validate:"omitempty,min=0"`
}

type CreateCardRequest struct {
	Title       string `json:"title" validate:"required,notblank,max=500"`
	Description string `json:"description,omitempty" validate:"max=10000"`
	// Position defaults to the end of the column.
	Position *int `json:"position,omitempty" validate:"omitempty,min=0"`
}

// UpdateCardRequest edits fields and, when ColumnID or Position is present,
// relocates the card.
type UpdateCardRequest struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,notblank,max=500"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=10000"`
	ColumnID    *string `json:"columnId,omitempty" validate:"omitempty,min=1"`
	Position    *int    `json:"position,omitempty" validate:"omitempty,min=0"`
}

// IsMove reports whether the update relocates the card.
func (r UpdateCardRequest) IsMove() bool {
	return r.ColumnID != nil || r.Position != nil
}

// MoveCardRequest is the explicit move body. TargetIndex is interpreted
// against the destination column after the card has been taken out of it.
type MoveCardRequest struct {
	SourceColumnID      string `json:"sourceColumnId" validate:"required"`
	DestinationColumnID string `json:"destinationColumnId" validate:"required"`
	TargetIndex         int    `json:"targetIndex" validate:"min=0"`
}

type ExportRequest struct {
	Email      string `json:"email" validate:"required,email"`
	WebhookURL string `json:"webhookUrl,omitempty" validate:"omitempty,url"`
}
