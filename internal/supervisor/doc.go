// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

/*
Package supervisor runs the server's long-lived goroutines under a suture/v4
supervisor tree.

The tree has three layers, each its own supervisor so a crash loop in one
does not take down the others:

	corkboard
	├── data-layer       store maintenance (startup index repair)
	├── messaging-layer  websocket hub, bus-to-hub event forwarder
	└── api-layer        HTTP server

Supervisor events (restarts, backoff, stop timeouts) are logged through
sutureslog into the zerolog-backed slog adapter from package logging.

Wrappers for individual services live in the services subpackage.

Example:

	tree, err := supervisor.New(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddMessagingService(services.NewEventForwarderService(forwarder))
	tree.AddAPIService(services.NewHTTPServerService(srv, 10*time.Second))
	err = tree.Serve(ctx)
*/
package supervisor
