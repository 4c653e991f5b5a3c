// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/corkboard/internal/board"
	"github.com/tomtom215/corkboard/internal/store"
	"github.com/tomtom215/corkboard/internal/validation"
)

// ConflictDetails is the error.details body of a 409 from a card move.
type ConflictDetails struct {
	CardID           string `json:"cardId"`
	ExpectedColumnID string `json:"expectedColumnId"`
	ActualColumnID   string `json:"actualColumnId"`
}

// respondServiceError maps a board service error onto the envelope.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	rw := NewResponseWriter(w, r)

	var reqErr *validation.RequestValidationError
	if errors.As(err, &reqErr) {
		apiErr := reqErr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	var fieldErr *board.ValidationError
	if errors.As(err, &fieldErr) {
		rw.ValidationError(fieldErr.Error(), map[string]interface{}{
			"fields": []map[string]string{{
				"field":   fieldErr.Field,
				"tag":     "custom",
				"message": fieldErr.Message,
			}},
		})
		return
	}

	var notFound *store.NotFoundError
	switch {
	case errors.As(err, &notFound):
		rw.NotFound(notFound.Error())
	case board.IsNotFound(err):
		rw.NotFound("Resource not found")
	case board.IsConflict(err):
		var conflict *store.ConflictError
		if errors.As(err, &conflict) {
			rw.Conflict(conflict.Error(), ConflictDetails{
				CardID:           conflict.CardID,
				ExpectedColumnID: conflict.Expected,
				ActualColumnID:   conflict.Actual,
			})
			return
		}
		rw.Conflict("The board changed; reload and retry", nil)
	case board.IsValidation(err):
		rw.ValidationError(err.Error(), nil)
	default:
		rw.StoreError(err)
	}
}
