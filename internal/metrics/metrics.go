// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Duration of event store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_query_errors_total",
			Help: "Total number of event store query errors",
		},
		[]string{"operation", "error_type"},
	)

	// API Metrics
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
			Help:    "Duration of API requests in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Number of API requests currently being served",
		},
	)

	// Intake Metrics
	EventsAccepted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "intake_events_accepted_total",
			Help: "Total number of events appended to the store",
		},
	)

	EventsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_events_rejected_total",
			Help: "Total number of events rejected at intake",
		},
		[]string{"reason"}, // "validation", "invalid_token", "store_mismatch", "quota", "storage"
	)

	TokenCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_token_cache_lookups_total",
			Help: "Snippet token cache lookups",
		},
		[]string{"result"}, // "hit", "miss"
	)

	// Decision Metrics
	DecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "decision_actions_total",
			Help: "Decisions made, by resulting action type",
		},
		[]string{"action"}, // action type or "none"
	)

	// Dispatch Metrics
	DispatchSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_tasks_submitted_total",
			Help: "Reaction tasks accepted into a worker queue",
		},
	)

	DispatchDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_tasks_dropped_total",
			Help: "Reaction tasks dropped before running",
		},
		[]string{"reason"}, // "queue_full", "stopped"
	)

	DispatchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_task_errors_total",
			Help: "Reaction task failures by stage",
		},
		[]string{"stage"}, // "context_read", "timeout", "breaker_open", "panic"
	)

	DispatchTaskDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dispatch_task_duration_seconds",
			Help:    "Time from dequeue to completion of a reaction task",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 3},
		},
	)

	DispatchQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dispatch_queue_depth",
			Help: "Reaction tasks waiting across all worker queues",
		},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_active",
			Help: "Number of open storefront WebSocket connections",
		},
	)

	WSRegisteredClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_registered_clients",
			Help: "Connections subscribed to a store room",
		},
	)

	WSPublishes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_publishes_total",
			Help: "Action publishes by outcome",
		},
		[]string{"result"}, // "delivered", "no_subscribers", "hub_busy"
	)

	WSClientsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_slow_clients_dropped_total",
			Help: "Clients disconnected because their send buffer was full",
		},
	)

	// Retention Metrics
	RetentionRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retention_rows_total",
			Help: "Rows affected by the retention job, by stage",
		},
		[]string{"stage"}, // "summarize", "filter_aged", "filter_trash_chat"
	)

	RetentionErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retention_errors_total",
			Help: "Retention failures, by stage",
		},
		[]string{"stage"},
	)

	RetentionRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "retention_run_duration_seconds",
			Help:    "Duration of a full retention run",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
	)

	RetentionLastRun = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "retention_last_run_timestamp_seconds",
			Help: "Unix time the last retention run finished",
		},
	)

	// Event mirror Metrics
	EventBusPublishes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventbus_publishes_total",
			Help: "Accepted events mirrored to the message bus, by result",
		},
		[]string{"result"}, // "success", "failure", "rejected", "dropped"
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
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordDBQuery records a database query metric
func RecordDBQuery(operation string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, errorType(err)).Inc()
	}
}

// errorType buckets an error into a bounded label value.
func errorType(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
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

// RecordEventAccepted counts one appended event.
func RecordEventAccepted() {
	EventsAccepted.Inc()
}

// RecordEventRejected counts one refused event.
func RecordEventRejected(reason string) {
	EventsRejected.WithLabelValues(reason).Inc()
}

// RecordTokenCacheLookup counts a snippet token cache hit or miss.
func RecordTokenCacheLookup(hit bool) {
	if hit {
		TokenCacheLookups.WithLabelValues("hit").Inc()
		return
	}
	TokenCacheLookups.WithLabelValues("miss").Inc()
}

// RecordDecision counts a decision. An empty action type is recorded as "none".
func RecordDecision(actionType string) {
	if actionType == "" {
		actionType = "none"
	}
	DecisionsTotal.WithLabelValues(actionType).Inc()
}

// RecordDispatchDropped counts a reaction task that never ran.
func RecordDispatchDropped(reason string) {
	DispatchDropped.WithLabelValues(reason).Inc()
}

// RecordDispatchError counts a reaction task failure.
func RecordDispatchError(stage string) {
	DispatchErrors.WithLabelValues(stage).Inc()
}

// RecordWSPublish counts an action publish outcome.
func RecordWSPublish(result string) {
	WSPublishes.WithLabelValues(result).Inc()
}

// RecordRetentionRows adds rows affected by a retention stage.
func RecordRetentionRows(stage string, rows int64) {
	if rows > 0 {
		RetentionRows.WithLabelValues(stage).Add(float64(rows))
	}
}

// RecordRetentionError counts a failed retention stage or tenant.
func RecordRetentionError(stage string) {
	RetentionErrors.WithLabelValues(stage).Inc()
}

// RecordRetentionRun records a finished retention run.
func RecordRetentionRun(duration time.Duration) {
	RetentionRunDuration.Observe(duration.Seconds())
	RetentionLastRun.Set(float64(time.Now().Unix()))
}

// RecordEventBusPublish counts a mirror publish outcome.
func RecordEventBusPublish(result string) {
	EventBusPublishes.WithLabelValues(result).Inc()
}

// RecordBreakerTransition records a circuit breaker state change.
// States use gobreaker's numbering: 0 closed, 1 half-open, 2 open.
func RecordBreakerTransition(name, from, to string, toState int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(toState))
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
}
