// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package api

import (
	"fmt"
	"net/http"
	"regexp"

	"github.com/tomtom215/corkboard/internal/export"
	"github.com/tomtom215/corkboard/internal/logging"
	"github.com/tomtom215/corkboard/internal/models"
)

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ExportBoard handles GET /boards/{boardId}/export. The default body is
// the JSON document; ?format=csv streams the rows as CSV.
func (h *Handler) ExportBoard(w http.ResponseWriter, r *http.Request) {
	if h.exports == nil {
		NewResponseWriter(w, r).ServiceUnavailable("Export is not configured")
		return
	}
	doc, err := h.exports.Document(r.Context(), pathParam(r, "boardId"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		WriteSuccess(w, r, doc)
	case "csv":
		name := unsafeFilename.ReplaceAllString(doc.BoardTitle, "_")
		if name == "" || name == "_" {
			name = doc.BoardID
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, name))
		w.WriteHeader(http.StatusOK)
		if err := export.WriteCSV(w, doc.Data); err != nil {
			logging.Ctx(r.Context()).Error().Err(err).Str("board_id", doc.BoardID).Msg("CSV export write failed")
		}
	default:
		NewResponseWriter(w, r).BadRequest("format must be json or csv")
	}
}

// TriggerExport handles POST /boards/{boardId}/export. Delivery failures
// answer 200 with success=false in the result.
func (h *Handler) TriggerExport(w http.ResponseWriter, r *http.Request) {
	if h.exports == nil {
		NewResponseWriter(w, r).ServiceUnavailable("Export is not configured")
		return
	}
	var req models.ExportRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	res, err := h.exports.Trigger(r.Context(), pathParam(r, "boardId"), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, res)
}
