// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

/*
Package middleware provides chi-compatible HTTP middleware shared by the API
router.

  - RequestID: assigns or propagates X-Request-ID and seeds the logging
    context with request and correlation ids.
  - PrometheusMetrics: request count, duration and in-flight gauge, labelled
    by chi route pattern.
  - Compression: gzip for clients that send Accept-Encoding: gzip. Used on
    export downloads, which can be large.

Each middleware has the func(http.Handler) http.Handler shape so it can be
passed to chi's Use and With:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.With(middleware.Compression).Get("/boards/{boardId}/export", h.ExportBoard)
*/
package middleware
