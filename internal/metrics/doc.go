// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered with the default registry through promauto and
exposed at /metrics in Prometheus text format:

	curl http://localhost:3000/metrics

# Available Metrics

Store Metrics:
  - store_operation_duration_seconds: Operation latency (histogram)
    Labels: backend (badger, redis), operation
  - store_operations_total: Operations by outcome (counter)
    Labels: backend, operation, outcome (ok, not_found, conflict, error)
  - store_transaction_retries_total: Optimistic commit races lost (counter)
  - store_repair_fixes_total: Index rebuild fixes (counter)
    Labels: kind

Board Metrics:
  - card_moves_total: Move attempts (counter)
    Labels: kind (same_column, cross_column), outcome
  - board_events_published_total / board_event_publish_failures_total
    Labels: event
  - board_events_forwarded_total, board_events_dropped_total

HTTP Metrics:
  - api_requests_total: Labels method, endpoint, status_code
  - api_request_duration_seconds: Labels method, endpoint
  - api_active_requests
  - api_rate_limit_hits_total

WebSocket Metrics:
  - websocket_connections, websocket_rooms (gauges)
  - websocket_messages_sent_total, websocket_messages_received_total
    Labels: message_type
  - websocket_messages_dropped_total: Labels reason (buffer_full, rate_limited)
  - websocket_errors_total

Export Metrics:
  - export_deliveries_total: Labels target (webhook, archive), outcome
  - export_delivery_duration_seconds
  - circuit_breaker_state: 0=closed, 1=half-open, 2=open
  - circuit_breaker_state_transitions_total

Client Metrics (corkctl):
  - reconcile_events_total: Labels outcome (applied, echo, duplicate, ignored)
  - reconcile_reverts_total

# Usage

	start := time.Now()
	err := doWork()
	metrics.RecordStoreOp("badger", "move_card", "ok", time.Since(start))

Endpoint labels should be chi route patterns, never raw paths, to keep
cardinality bounded.
*/
package metrics
