// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

/*
Package services adapts Corkboard components to suture.Service.

Each wrapper translates a component's own lifecycle into
Serve(ctx context.Context) error and names itself via fmt.Stringer so
supervisor logs identify it:

  - HTTPServerService: http.Server ListenAndServe plus graceful Shutdown
  - WebSocketHubService: websocket.Hub.RunWithContext
  - EventForwarderService: events.Forwarder, bus to hub
  - RepairService: store index repair at startup, optionally periodic

The wrappers depend on small interfaces rather than the concrete types so
they can be tested with doubles and do not import the packages they run.
*/
package services
