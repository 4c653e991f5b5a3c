// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/corkboard/internal/logging"
)

// readyTimeout bounds the store ping in HealthReady.
const readyTimeout = 2 * time.Second

// HealthStatus is the body of the readiness probe.
type HealthStatus struct {
	Status         string  `json:"status"`
	StoreConnected bool    `json:"storeConnected"`
	Uptime         float64 `json:"uptime"`
	WSClients      int     `json:"wsClients"`
	WSRooms        int     `json:"wsRooms"`
}

// HealthLive returns 200 while the process is running, regardless of
// dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, r, map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady returns 200 when the store answers a ping and 503 otherwise.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	status := HealthStatus{
		Status: "ready",
		Uptime: time.Since(h.startTime).Seconds(),
	}
	if h.wsHub != nil {
		status.WSClients = h.wsHub.ClientCount()
		status.WSRooms = h.wsHub.RoomCount()
	}

	if err := h.boards.Ping(ctx); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Readiness check failed: store unreachable")
		NewResponseWriter(w, r).ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable,
			"Store is not reachable", status)
		return
	}
	status.StoreConnected = true
	WriteSuccess(w, r, status)
}

// AdminRepair handles POST /admin/repair: it rebuilds child indexes from
// parent pointers and re-sequences positions.
func (h *Handler) AdminRepair(w http.ResponseWriter, r *http.Request) {
	report, err := h.boards.Repair(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, map[string]interface{}{
		"report": report,
		"clean":  report.Clean(),
	})
}
