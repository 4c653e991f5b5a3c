// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

// Package testinfra provides test doubles and containers for tests that
// cross a process boundary.
//
// MockWebhookServer is always available and stands in for the export
// automation endpoint. The container helpers (MinIO for export archives,
// Redis for the document store) use testcontainers-go and are compiled
// only with the integration build tag:
//
//	go test -tags integration ./internal/export/...
//
// Container tests call SkipIfNoDocker first so they skip cleanly on
// machines without a Docker daemon.
package testinfra
