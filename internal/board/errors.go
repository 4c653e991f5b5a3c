// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package board

import (
	"errors"
	"fmt"

	"github.com/tomtom215/corkboard/internal/store"
)

var (
	// ErrNotFound is matched by every error naming a missing board, column
	// or card. Use errors.As with *store.NotFoundError for the entity.
	ErrNotFound = store.ErrNotFound

	// ErrConflict means the caller's view of the board is stale. Re-fetch
	// and retry.
	ErrConflict = store.ErrConflict

	// ErrValidation rejects malformed input before it reaches the store.
	ErrValidation = errors.New("validation failed")
)

// ValidationError names the offending request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsNotFound reports whether err names a missing entity.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsConflict reports whether err is a stale-precondition failure.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsValidation reports whether err is a rejected input.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// wrap adds the operation name and maps store-level errors onto the
// service taxonomy.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrCrossBoardMove) {
		return invalid("destinationColumnId", "column belongs to a different board")
	}
	return fmt.Errorf("%s: %w", op, err)
}
