// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

/*
Command server runs the Corkboard API.

Startup order:

 1. Configuration (koanf: defaults, optional YAML file, environment)
 2. Logging (zerolog)
 3. Document store (Badger on disk by default, Redis when STORE_BACKEND=redis)
 4. Event bus and websocket hub
 5. Board service and export service (webhook sender, optional S3 archive)
 6. HTTP router
 7. Supervisor tree: store repair, hub, event forwarder, HTTP server

SIGINT or SIGTERM cancels the tree. The HTTP server drains in-flight
requests, the hub closes client connections, and the store is closed last.

Example:

	export HTTP_PORT=3001
	export STORE_PATH=/var/lib/corkboard
	export CORS_ORIGINS=http://localhost:5173
	./server

Running against Redis with export archiving to MinIO:

	export STORE_BACKEND=redis
	export REDIS_ADDR=localhost:6379
	export EXPORT_S3_ENDPOINT=http://localhost:9000
	export EXPORT_S3_BUCKET=corkboard-exports
	export EXPORT_S3_ACCESS_KEY=minioadmin
	export EXPORT_S3_SECRET_KEY=minioadmin
	export EXPORT_S3_PATH_STYLE=true
	./server
*/
package main
