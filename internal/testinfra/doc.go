// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

// Package testinfra starts Docker containers for integration tests.
//
// Everything here is behind the integration build tag:
//
//	go test -tags integration ./internal/database/...
//
// # PostgreSQL
//
// NewPostgresContainer runs the hosted-store dialect so the same event store
// queries are exercised against PostgreSQL as well as embedded DuckDB.
//
// Tests skip when Docker is unavailable. The first run pulls the image.
package testinfra
