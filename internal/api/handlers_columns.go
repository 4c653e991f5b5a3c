// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package api

import (
	"net/http"

	"github.com/tomtom215/corkboard/internal/models"
)

// ListColumns handles GET /boards/{boardId}/columns.
func (h *Handler) ListColumns(w http.ResponseWriter, r *http.Request) {
	cols, err := h.boards.ListColumns(r.Context(), pathParam(r, "boardId"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	NewResponseWriter(w, r).List(cols, len(cols))
}

// CreateColumn handles POST /boards/{boardId}/columns.
func (h *Handler) CreateColumn(w http.ResponseWriter, r *http.Request) {
	var req models.CreateColumnRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	col, err := h.boards.CreateColumn(r.Context(), pathParam(r, "boardId"), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Created(col)
}

// UpdateColumn handles PATCH /boards/{boardId}/columns/{columnId}. A
// position in the body reorders the column.
func (h *Handler) UpdateColumn(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateColumnRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	col, err := h.boards.UpdateColumn(r.Context(), pathParam(r, "boardId"), pathParam(r, "columnId"), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, col)
}

// DeleteColumn handles DELETE /boards/{boardId}/columns/{columnId}.
func (h *Handler) DeleteColumn(w http.ResponseWriter, r *http.Request) {
	res, err := h.boards.DeleteColumn(r.Context(), pathParam(r, "boardId"), pathParam(r, "columnId"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, deleteResult("Column deleted", res))
}
