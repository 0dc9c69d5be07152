// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

// Package main is the entry point for the Akira server.
//
// Akira receives behavioral events from storefront snippets, decides in real
// time whether to show the shopper an intervention, and pushes the decision
// back to the storefront over a WebSocket.
//
// # Startup Order
//
//  1. Configuration (koanf: defaults, config.yaml, environment, .env)
//  2. Logging (zerolog)
//  3. Event store (DuckDB by default, PostgreSQL with DATABASE_DRIVER=postgres)
//  4. Demo tenant seeding (SEED_DEMO_TENANT=true, never in production)
//  5. Identity & Quota Gate, decision engine, realtime hub, reaction dispatcher
//  6. Event mirror (NATS_ENABLED=true, build tag: nats)
//  7. Retention scheduler (RETENTION_ENABLED=true)
//  8. HTTP server, then the supervisor tree
//
// # Build Tags
//
//	go build ./cmd/server              # default
//	go build -tags nats ./cmd/server   # with the NATS JetStream event mirror
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the root context. The HTTP server drains for up
// to SHUTDOWN_TIMEOUT, the hub closes every storefront connection,
// and queued reaction tasks are abandoned.
//
// # Example
//
//	export SEED_DEMO_TENANT=true
//	export CORS_ORIGINS=http://localhost:5173
//	./akira
package main
