// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
)

// Sentinels matched by APIError.Is.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrValidation  = errors.New("validation failed")
	ErrRateLimited = errors.New("rate limited")
	ErrUnavailable = errors.New("service unavailable")
)

// Server error codes, mirrored from the API envelope.
const (
	codeBadRequest         = "BAD_REQUEST"
	codeNotFound           = "NOT_FOUND"
	codeConflict           = "CONFLICT"
	codeTooManyRequests    = "TOO_MANY_REQUESTS"
	codeServiceUnavailable = "SERVICE_UNAVAILABLE"
	codeValidationFailed   = "VALIDATION_FAILED"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status    int
	Code      string
	Message   string
	Details   json.RawMessage
	RequestID string
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("%s (%d %s, request %s)", e.Message, e.Status, e.Code, e.RequestID)
	}
	return fmt.Sprintf("%s (%d %s)", e.Message, e.Status, e.Code)
}

// Is maps the error onto the package sentinels so callers can write
// errors.Is(err, client.ErrConflict).
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Code == codeNotFound || e.Status == http.StatusNotFound
	case ErrConflict:
		return e.Code == codeConflict || e.Status == http.StatusConflict
	case ErrValidation:
		return e.Code == codeValidationFailed || e.Code == codeBadRequest
	case ErrRateLimited:
		return e.Code == codeTooManyRequests || e.Status == http.StatusTooManyRequests
	case ErrUnavailable:
		return e.Code == codeServiceUnavailable || e.Status == http.StatusServiceUnavailable
	}
	return false
}

// Conflict describes a rejected move: the card was not where the caller
// expected.
type Conflict struct {
	CardID           string `json:"cardId"`
	ExpectedColumnID string `json:"expectedColumnId"`
	ActualColumnID   string `json:"actualColumnId"`
}

// Conflict decodes the details of a 409. ok is false for other errors.
func (e *APIError) Conflict() (Conflict, bool) {
	if !e.Is(ErrConflict) || len(e.Details) == 0 {
		return Conflict{}, false
	}
	var c Conflict
	if err := json.Unmarshal(e.Details, &c); err != nil || c.CardID == "" {
		return Conflict{}, false
	}
	return c, true
}

// FieldError is one entry of a validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// Fields decodes field-level validation details, if any.
func (e *APIError) Fields() []FieldError {
	if len(e.Details) == 0 {
		return nil
	}
	var body struct {
		Fields []FieldError `json:"fields"`
	}
	if err := json.Unmarshal(e.Details, &body); err != nil {
		return nil
	}
	return body.Fields
}
