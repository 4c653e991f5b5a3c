// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Store Metrics
	StoreOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_operation_duration_seconds",
			Help:    "Duration of entity store operations in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		},
		[]string{"backend", "operation"},
	)

	StoreOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_operations_total",
			Help: "Total number of entity store operations by outcome",
		},
		[]string{"backend", "operation", "outcome"}, // ok, not_found, conflict, error
	)

	StoreTxnRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_transaction_retries_total",
			Help: "Optimistic transactions retried after losing a commit race",
		},
		[]string{"backend", "operation"},
	)

	StoreRepairs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_repair_fixes_total",
			Help: "Items fixed by index rebuilds",
		},
		[]string{"kind"}, // index_added, index_removed, position, orphan
	)

	// Board Metrics
	CardMovesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "card_moves_total",
			Help: "Total number of card move attempts",
		},
		[]string{"kind", "outcome"}, // kind: same_column, cross_column
	)

	// Event Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "board_events_published_total",
			Help: "Total number of board events published to the bus",
		},
		[]string{"event"},
	)

	EventPublishFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "board_event_publish_failures_total",
			Help: "Board events that could not be published after a durable write",
		},
		[]string{"event"},
	)

	EventsForwarded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "board_events_forwarded_total",
			Help: "Board events handed from the bus to the realtime hub",
		},
	)

	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "board_events_dropped_total",
			Help: "Board events dropped by the forwarder",
		},
		[]string{"reason"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSRooms = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_rooms",
			Help: "Current number of board rooms with at least one member",
		},
	)

	WSMessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages queued to clients",
		},
		[]string{"message_type"},
	)

	WSMessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_messages_received_total",
			Help: "Total number of WebSocket messages received from clients",
		},
		[]string{"message_type"},
	)

	WSMessagesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_messages_dropped_total",
			Help: "Messages not delivered to a client",
		},
		[]string{"reason"}, // buffer_full, rate_limited
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	// Export Metrics
	ExportDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "export_deliveries_total",
			Help: "Export deliveries by target and outcome",
		},
		[]string{"target", "outcome"}, // target: webhook, archive
	)

	ExportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "export_delivery_duration_seconds",
			Help:    "Export delivery duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		},
		[]string{"target"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Client Reconciliation Metrics
	ReconcileOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_events_total",
			Help: "Realtime events handled by the client reconciler, by outcome",
		},
		[]string{"outcome"}, // applied, echo, duplicate, ignored
	)

	ReconcileReverts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reconcile_reverts_total",
			Help: "Optimistic moves rolled back after a failed request",
		},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordStoreOp records one store operation.
func RecordStoreOp(backend, operation, outcome string, duration time.Duration) {
	StoreOpDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
	StoreOpsTotal.WithLabelValues(backend, operation, outcome).Inc()
}

// RecordRepair adds the fixes reported by an index rebuild.
func RecordRepair(indexAdded, indexRemoved, positions, orphans int) {
	StoreRepairs.WithLabelValues("index_added").Add(float64(indexAdded))
	StoreRepairs.WithLabelValues("index_removed").Add(float64(indexRemoved))
	StoreRepairs.WithLabelValues("position").Add(float64(positions))
	StoreRepairs.WithLabelValues("orphan").Add(float64(orphans))
}

// RecordCardMove records a move attempt.
func RecordCardMove(sameColumn bool, outcome string) {
	kind := "cross_column"
	if sameColumn {
		kind = "same_column"
	}
	CardMovesTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordEventPublish records a publish attempt for a board event.
func RecordEventPublish(event string, err error) {
	if err != nil {
		EventPublishFailures.WithLabelValues(event).Inc()
		return
	}
	EventsPublished.WithLabelValues(event).Inc()
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordExport records a delivery to target ("webhook" or "archive").
func RecordExport(target, outcome string, duration time.Duration) {
	ExportDeliveries.WithLabelValues(target, outcome).Inc()
	ExportDuration.WithLabelValues(target).Observe(duration.Seconds())
}

// Circuit breaker state values for CircuitBreakerState.
const (
	BreakerClosed   = 0
	BreakerHalfOpen = 1
	BreakerOpen     = 2
)

// RecordBreakerTransition updates the state gauge and transition counter.
func RecordBreakerTransition(name, from, to string, toValue float64) {
	CircuitBreakerState.WithLabelValues(name).Set(toValue)
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
}

// RecordReconcile records how the client reconciler handled an event.
func RecordReconcile(outcome string) {
	ReconcileOutcomes.WithLabelValues(outcome).Inc()
}
