// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

/*
Package config loads Corkboard settings with koanf.

Sources are layered, later ones winning:
  - built-in defaults (defaultConfig)
  - an optional YAML file: CONFIG_PATH, else config.yaml in the working
    directory, else /etc/corkboard/config.yaml
  - environment variables listed in envMappings

# Sections

  - server: PORT or HTTP_PORT (default 3000), HTTP_HOST, HTTP_TIMEOUT,
    ENVIRONMENT
  - store: STORE_BACKEND (badger or redis), STORE_PATH, STORE_IN_MEMORY,
    REDIS_ADDR, REDIS_PASSWORD, REDIS_DB, REDIS_NAMESPACE
  - security: CORS_ORIGINS (comma-separated), RATE_LIMIT_REQUESTS,
    RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT
  - websocket: WS_SEND_BUFFER, WS_MESSAGES_PER_SECOND, WS_BURST,
    WS_PUBLISH_BUFFER
  - export: EXPORT_WEBHOOK_URL, EXPORT_TIMEOUT, EXPORT_BREAKER_FAILURES,
    EXPORT_BREAKER_COOLDOWN and the EXPORT_S3_* archive settings
  - logging: LOG_LEVEL, LOG_FORMAT, LOG_CALLER
  - reconcile: RECONCILE_DEDUP_CAPACITY, RECONCILE_DEDUP_TTL

# Example YAML

	server:
	  port: 3000
	  environment: production
	store:
	  backend: redis
	  redis_addr: redis:6379
	security:
	  cors_origins:
	    - https://boards.example.com
	export:
	  webhook_url: https://automation.example.com/webhook/kanban-export
	  s3_bucket: corkboard-exports

Validate runs after loading and rejects the configuration with a message
naming the offending environment variable.
*/
package config
