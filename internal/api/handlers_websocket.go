// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package api

import (
	"context"
	"net/http"

	"github.com/tomtom215/corkboard/internal/logging"
	ws "github.com/tomtom215/corkboard/internal/websocket"
)

// WebSocket upgrades GET /ws. The optional userId query parameter names the
// connection in presence events; a random id is used otherwise. Clients
// join a board's room by sending {"type":"joinBoard","data":{"boardId":...}}.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		logging.Warn().Msg("WebSocket connection rejected: hub not initialized")
		NewResponseWriter(w, r).ServiceUnavailable("WebSocket service unavailable")
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logging.Ctx(r.Context()).Debug().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	userID := sanitizeLogValue(r.URL.Query().Get("userId"))
	client := ws.NewClient(h.wsHub, conn, userID)
	// The connection outlives the request context.
	if err := client.Start(context.WithoutCancel(r.Context())); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("WebSocket client not started")
		_ = conn.Close()
	}
}
