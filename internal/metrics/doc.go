// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

/*
Package metrics defines Akira's Prometheus instrumentation.

All collectors are registered on the default registry through promauto and
exposed by the /metrics route. Components record through the Record* helpers
rather than touching collectors directly, so label sets stay consistent.

Metric families:
  - api_*: request count, latency and in-flight requests
  - intake_*: events accepted and rejected by reason
  - decision_*: actions produced by the decision engine
  - dispatch_*: reaction task queueing, drops, timeouts and errors
  - websocket_*: connections and action publishes
  - retention_*: rows filtered or summarized and stage failures
  - db_*: event store query latency and errors
  - circuit_breaker_*: breaker state per named breaker
*/
package metrics
