// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package api

import (
	"net/http"

	"github.com/tomtom215/corkboard/internal/board"
	"github.com/tomtom215/corkboard/internal/models"
	"github.com/tomtom215/corkboard/internal/store"
)

// ListCards handles GET .../columns/{columnId}/cards.
func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.boards.ListCards(r.Context(), pathParam(r, "boardId"), pathParam(r, "columnId"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	NewResponseWriter(w, r).List(cards, len(cards))
}

// CreateCard handles POST .../columns/{columnId}/cards.
func (h *Handler) CreateCard(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCardRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	card, err := h.boards.CreateCard(r.Context(), pathParam(r, "boardId"), pathParam(r, "columnId"), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Created(card)
}

// UpdateCard handles PATCH .../columns/{columnId}/cards/{cardId}.
//
// When the body carries columnId or position the card is moved, and the
// column in the URL is the move's precondition: if the card has left it
// the request fails with 409 and nothing is changed. The move runs before
// any field edit.
func (h *Handler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateCardRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	card, err := h.boards.UpdateCard(r.Context(), pathParam(r, "boardId"), pathParam(r, "columnId"), pathParam(r, "cardId"), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, card)
}

// MoveCard handles POST .../columns/{columnId}/cards/{cardId}/move. The
// body's sourceColumnId must match the URL.
func (h *Handler) MoveCard(w http.ResponseWriter, r *http.Request) {
	var req models.MoveCardRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	columnID := pathParam(r, "columnId")
	if req.SourceColumnID != columnID {
		respondServiceError(w, r, &board.ValidationError{
			Field:   "sourceColumnId",
			Message: "must match the column in the URL",
		})
		return
	}
	card, err := h.boards.MoveCard(r.Context(), pathParam(r, "boardId"), pathParam(r, "cardId"),
		req.SourceColumnID, req.DestinationColumnID, req.TargetIndex)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, card)
}

// DeleteCard handles DELETE .../columns/{columnId}/cards/{cardId}.
func (h *Handler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	boardID, columnID, cardID := pathParam(r, "boardId"), pathParam(r, "columnId"), pathParam(r, "cardId")
	if _, err := h.cardInColumn(r, boardID, columnID, cardID); err != nil {
		respondServiceError(w, r, err)
		return
	}
	card, err := h.boards.DeleteCard(r.Context(), boardID, cardID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, DeleteResult{Message: "Card deleted", DeletedCards: []string{card.ID}})
}

// cardInColumn loads a card and reports it as not found unless it sits
// in columnID.
func (h *Handler) cardInColumn(r *http.Request, boardID, columnID, cardID string) (models.Card, error) {
	card, err := h.boards.GetCard(r.Context(), boardID, cardID)
	if err != nil {
		return card, err
	}
	if card.ColumnID != columnID {
		return models.Card{}, &store.NotFoundError{Entity: store.EntityCard, ID: cardID}
	}
	return card, nil
}
