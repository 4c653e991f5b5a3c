// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/corkboard/internal/logging"
)

// APIResponse is the envelope of every JSON body the API writes. Exactly
// one of Data and Error is set; export soft failures are the exception
// that carries success=false in Data with a 200.
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *APIMeta  `json:"meta,omitempty"`
}

// APIError is the error half of the envelope. Code is stable and
// machine-readable; clients key retries and conflict handling on it.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// APIMeta is attached to every response.
type APIMeta struct {
	RequestID  string    `json:"request_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	DurationMs int64     `json:"duration_ms,omitempty"`
	// Count is set for list responses.
	Count *int `json:"count,omitempty"`
}

const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeTooManyRequests    = "TOO_MANY_REQUESTS"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodeStoreError         = "STORE_ERROR"
)

// codeStatus is the default HTTP status for each code.
var codeStatus = map[string]int{
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeMethodNotAllowed:   http.StatusMethodNotAllowed,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeInternalError:      http.StatusInternalServerError,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeValidationFailed:   http.StatusBadRequest,
	ErrCodeStoreError:         http.StatusInternalServerError,
}

// ResponseWriter writes enveloped responses for one request.
type ResponseWriter struct {
	w     http.ResponseWriter
	r     *http.Request
	start time.Time
}

func NewResponseWriter(w http.ResponseWriter, r *http.Request) *ResponseWriter {
	return &ResponseWriter{w: w, r: r, start: time.Now()}
}

func (rw *ResponseWriter) meta() *APIMeta {
	return &APIMeta{
		RequestID:  logging.RequestIDFromContext(rw.r.Context()),
		Timestamp:  time.Now().UTC(),
		DurationMs: time.Since(rw.start).Milliseconds(),
	}
}

func (rw *ResponseWriter) ok(status int, data any, meta *APIMeta) {
	rw.writeJSON(status, APIResponse{Success: true, Data: data, Meta: meta})
}

func (rw *ResponseWriter) Success(data any) { rw.ok(http.StatusOK, data, rw.meta()) }

func (rw *ResponseWriter) Created(data any) { rw.ok(http.StatusCreated, data, rw.meta()) }

// List writes a collection and records its length in meta.count.
func (rw *ResponseWriter) List(data any, count int) {
	meta := rw.meta()
	meta.Count = &count
	rw.ok(http.StatusOK, data, meta)
}

// Error writes an error envelope with an explicit status.
func (rw *ResponseWriter) Error(status int, code, message string) {
	rw.ErrorWithDetails(status, code, message, nil)
}

func (rw *ResponseWriter) ErrorWithDetails(status int, code, message string, details any) {
	meta := rw.meta()
	rw.writeJSON(status, APIResponse{
		Error: &APIError{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: meta.RequestID,
		},
		Meta: meta,
	})
}

// fail writes code with its default status.
func (rw *ResponseWriter) fail(code, message string, details any) {
	status, ok := codeStatus[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	rw.ErrorWithDetails(status, code, message, details)
}

func (rw *ResponseWriter) BadRequest(message string) { rw.fail(ErrCodeBadRequest, message, nil) }

func (rw *ResponseWriter) NotFound(message string) { rw.fail(ErrCodeNotFound, message, nil) }

// Conflict answers a failed precondition; details tell the client what
// the server actually holds.
func (rw *ResponseWriter) Conflict(message string, details any) {
	rw.fail(ErrCodeConflict, message, details)
}

func (rw *ResponseWriter) TooManyRequests(message string) {
	rw.fail(ErrCodeTooManyRequests, message, nil)
}

func (rw *ResponseWriter) ServiceUnavailable(message string) {
	rw.fail(ErrCodeServiceUnavailable, message, nil)
}

func (rw *ResponseWriter) ValidationError(message string, details any) {
	rw.fail(ErrCodeValidationFailed, message, details)
}

// StoreError logs err and answers with a generic 500; store internals are
// not exposed to clients.
func (rw *ResponseWriter) StoreError(err error) {
	logging.Ctx(rw.r.Context()).Error().Err(err).Msg("Store error")
	rw.fail(ErrCodeStoreError, "A storage error occurred", nil)
}

func (rw *ResponseWriter) writeJSON(status int, body APIResponse) {
	rw.w.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.w.WriteHeader(status)
	if err := json.NewEncoder(rw.w).Encode(body); err != nil {
		logging.Ctx(rw.r.Context()).Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// WriteSuccess writes data with a 200.
func WriteSuccess(w http.ResponseWriter, r *http.Request, data any) {
	NewResponseWriter(w, r).Success(data)
}
