// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/corkboard/internal/config"
	"github.com/tomtom215/corkboard/internal/middleware"
)

// Router wires handlers to routes.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter builds a router whose CORS and rate limits come from cfg.
// A nil cfg uses DefaultChiMiddlewareConfig.
func NewRouter(handler *Handler, cfg *config.Config) *Router {
	mwConfig := DefaultChiMiddlewareConfig()
	if cfg != nil {
		mwConfig.CORSAllowedOrigins = cfg.Security.CORSOrigins
		mwConfig.RateLimitRequests = cfg.Security.RateLimitReqs
		mwConfig.RateLimitWindow = cfg.Security.RateLimitWindow
		mwConfig.RateLimitDisabled = cfg.Security.RateLimitDisabled
	}
	return &Router{
		handler:       handler,
		chiMiddleware: NewChiMiddleware(mwConfig),
	}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()
	h := router.handler
	mw := router.chiMiddleware

	// Applied to every route, in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(mw.CORS()) // global so OPTIONS preflight is answered
	r.Use(middleware.PrometheusMetrics)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).NotFound("Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).Error(http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed")
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(APISecurityHeaders())

		r.Route("/health", func(r chi.Router) {
			r.Use(mw.RateLimitHealth())
			r.Get("/live", h.HealthLive)
			r.Get("/ready", h.HealthReady)
		})

		r.With(mw.RateLimitWebSocket()).Get("/ws", h.WebSocket)

		r.Group(func(r chi.Router) {
			r.Use(mw.RateLimit())

			r.With(mw.RateLimitAdmin()).Post("/admin/repair", h.AdminRepair)

			r.Route("/boards", func(r chi.Router) {
				r.Use(mw.writeMethods())
				r.Get("/", h.ListBoards)
				r.Post("/", h.CreateBoard)

				r.Route("/{boardId}", func(r chi.Router) {
					r.Get("/", h.GetBoard)
					r.Patch("/", h.UpdateBoard)
					r.Delete("/", h.DeleteBoard)

					r.Route("/export", func(r chi.Router) {
						r.Use(mw.RateLimitExport())
						r.With(middleware.Compression).Get("/", h.ExportBoard)
						r.Post("/", h.TriggerExport)
					})

					r.Route("/columns", func(r chi.Router) {
						r.Get("/", h.ListColumns)
						r.Post("/", h.CreateColumn)

						r.Route("/{columnId}", func(r chi.Router) {
							r.Patch("/", h.UpdateColumn)
							r.Delete("/", h.DeleteColumn)

							r.Route("/cards", func(r chi.Router) {
								r.Get("/", h.ListCards)
								r.Post("/", h.CreateCard)
								r.Patch("/{cardId}", h.UpdateCard)
								r.Delete("/{cardId}", h.DeleteCard)
								r.Post("/{cardId}/move", h.MoveCard)
							})
						})
					})
				})
			})
		})
	})

	return r
}
