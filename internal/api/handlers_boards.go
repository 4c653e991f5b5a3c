// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package api

import (
	"net/http"

	"github.com/tomtom215/corkboard/internal/logging"
	"github.com/tomtom215/corkboard/internal/models"
	"github.com/tomtom215/corkboard/internal/store"
)

// DeleteResult is returned by the DELETE endpoints.
type DeleteResult struct {
	Message        string   `json:"message"`
	DeletedColumns []string `json:"deletedColumns,omitempty"`
	DeletedCards   []string `json:"deletedCards,omitempty"`
}

func deleteResult(message string, res store.CascadeResult) DeleteResult {
	return DeleteResult{
		Message:        message,
		DeletedColumns: res.Columns,
		DeletedCards:   res.Cards,
	}
}

// ListBoards handles GET /boards.
func (h *Handler) ListBoards(w http.ResponseWriter, r *http.Request) {
	boards, err := h.boards.ListBoards(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	NewResponseWriter(w, r).List(boards, len(boards))
}

// CreateBoard handles POST /boards.
func (h *Handler) CreateBoard(w http.ResponseWriter, r *http.Request) {
	var req models.CreateBoardRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	b, err := h.boards.CreateBoard(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Created(b)
}

// GetBoard handles GET /boards/{boardId} and returns the full tree.
func (h *Handler) GetBoard(w http.ResponseWriter, r *http.Request) {
	tree, err := h.boards.GetBoardTree(r.Context(), pathParam(r, "boardId"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, tree)
}

// UpdateBoard handles PATCH /boards/{boardId}.
func (h *Handler) UpdateBoard(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateBoardRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	b, err := h.boards.UpdateBoard(r.Context(), pathParam(r, "boardId"), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, b)
}

// DeleteBoard handles DELETE /boards/{boardId}. Columns and cards go with
// the board.
func (h *Handler) DeleteBoard(w http.ResponseWriter, r *http.Request) {
	boardID := pathParam(r, "boardId")
	res, err := h.boards.DeleteBoard(r.Context(), boardID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	logging.Ctx(r.Context()).Debug().Str("board_id", boardID).Msg("Board removed via API")
	WriteSuccess(w, r, deleteResult("Board deleted", res))
}
