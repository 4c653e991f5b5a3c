// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/corkboard/internal/board"
	"github.com/tomtom215/corkboard/internal/config"
	"github.com/tomtom215/corkboard/internal/export"
	"github.com/tomtom215/corkboard/internal/logging"
	"github.com/tomtom215/corkboard/internal/validation"
	ws "github.com/tomtom215/corkboard/internal/websocket"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers_boards.go: boards
//   - handlers_columns.go: columns
//   - handlers_cards.go: cards and moves
//   - handlers_export.go: export document and webhook trigger
//   - handlers_health.go: probes and maintenance
//   - handlers_websocket.go: realtime upgrade
type Handler struct {
	boards    *board.Service
	exports   *export.Service
	wsHub     *ws.Hub
	config    *config.Config
	startTime time.Time
}

// NewHandler creates the API handler. exports and wsHub may be nil; the
// matching endpoints then answer 503. cfg may be nil in tests.
func NewHandler(boards *board.Service, exports *export.Service, wsHub *ws.Hub, cfg *config.Config) *Handler {
	return &Handler{
		boards:    boards,
		exports:   exports,
		wsHub:     wsHub,
		config:    cfg,
		startTime: time.Now(),
	}
}

// decodeAndValidate reads a JSON body into dst and runs struct validation.
// It writes the error response itself and reports whether to continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			NewResponseWriter(w, r).Error(http.StatusRequestEntityTooLarge, ErrCodeBadRequest, "Request body too large")
			return false
		}
		NewResponseWriter(w, r).BadRequest("Could not read request body")
		return false
	}
	if len(bytes.TrimSpace(data)) == 0 {
		NewResponseWriter(w, r).BadRequest("Request body is required")
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		NewResponseWriter(w, r).BadRequest("Invalid JSON body")
		return false
	}
	if verr := validation.ValidateStruct(dst); verr != nil {
		respondServiceError(w, r, verr)
		return false
	}
	return true
}

// pathParam returns a chi URL parameter, unescaped.
func pathParam(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if unescaped, err := url.PathUnescape(v); err == nil {
		return unescaped
	}
	return v
}

// sanitizeLogValue strips control characters and caps length so client
// input cannot forge log lines.
func sanitizeLogValue(s string) string {
	const maxLen = 200
	s = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// getUpgrader creates a WebSocket upgrader with origin checking and a
// handshake timeout.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin accepts the configured CORS origins and the
// server's own origin. Requests without Origin are rejected.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}

	if u, err := url.Parse(origin); err == nil && strings.EqualFold(u.Host, r.Host) {
		return true
	}

	// No config means tests or development.
	if h.config == nil {
		return true
	}

	for _, allowedOrigin := range h.config.Security.CORSOrigins {
		if allowedOrigin == "*" || allowedOrigin == origin {
			return true
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}
