// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

//go:build integration

package testinfra

import (
	"context"
	"testing"

	"github.com/testcontainers/testcontainers-go"
)

// StartPostgres runs a PostgreSQL container for the duration of the test.
// It skips when the container provider is unreachable or in -short mode and
// terminates the container on cleanup.
func StartPostgres(t *testing.T, ctx context.Context, opts ...PostgresOption) *PostgresContainer {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	pg, err := NewPostgresContainer(ctx, opts...)
	if pg != nil {
		testcontainers.CleanupContainer(t, pg.Container)
	}
	if err != nil {
		t.Fatalf("NewPostgresContainer() error = %v", err)
	}
	return pg
}
