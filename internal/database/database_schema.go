// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

/*
database_schema.go - Database Schema Management

Tables:
  - stores: tenants, their snippet tokens and monthly usage counters
  - events: append-only behavioral events; only is_filtered and
    filter_reason change after insert
  - user_behavior_summary: monthly roll-ups written by the retention job
  - products: catalog entries upserted by the product webhook

DuckDB columns use TIMESTAMP holding UTC so no ICU extension is needed.
PostgreSQL columns use TIMESTAMPTZ and the session runs in UTC.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"time"
)

type dialect string

const (
	dialectDuckDB   dialect = "duckdb"
	dialectPostgres dialect = "postgres"
)

// columnTypes are the dialect-specific spellings used by the DDL.
type columnTypes struct {
	text      string
	timestamp string
	json      string
}

func (d dialect) types() columnTypes {
	if d == dialectPostgres {
		return columnTypes{text: "TEXT", timestamp: "TIMESTAMPTZ", json: "JSONB"}
	}
	return columnTypes{text: "VARCHAR", timestamp: "TIMESTAMP", json: "JSON"}
}

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range db.tableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

func (db *DB) tableCreationQueries() []string {
	t := db.dialect.types()
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS stores (
			id %[1]s PRIMARY KEY,
			user_id %[1]s,
			store_name %[1]s,
			platform %[1]s,
			store_url %[1]s,
			snippet_token %[1]s NOT NULL UNIQUE,
			sync_method %[1]s,
			current_monthly_usage BIGINT NOT NULL DEFAULT 0,
			query_allocation BIGINT NOT NULL DEFAULT 0,
			created_at %[2]s NOT NULL,
			updated_at %[2]s NOT NULL
		)`, t.text, t.timestamp),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS events (
			event_id %[1]s PRIMARY KEY,
			store_id %[1]s NOT NULL,
			user_identifier %[1]s NOT NULL,
			event_type %[1]s NOT NULL,
			product_id %[1]s,
			event_payload %[3]s,
			created_at %[2]s NOT NULL,
			is_filtered BOOLEAN NOT NULL DEFAULT FALSE,
			filter_reason %[1]s
		)`, t.text, t.timestamp, t.json),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS user_behavior_summary (
			store_id %[1]s NOT NULL,
			user_identifier %[1]s NOT NULL,
			event_type %[1]s NOT NULL,
			period %[1]s NOT NULL,
			event_count BIGINT NOT NULL,
			first_seen %[2]s NOT NULL,
			last_seen %[2]s NOT NULL,
			updated_at %[2]s NOT NULL,
			PRIMARY KEY (store_id, user_identifier, event_type, period)
		)`, t.text, t.timestamp),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS products (
			id %[1]s PRIMARY KEY,
			store_id %[1]s NOT NULL,
			external_id %[1]s NOT NULL,
			name %[1]s NOT NULL,
			price FLOAT8,
			stock BIGINT,
			updated_at %[2]s NOT NULL,
			UNIQUE (store_id, external_id)
		)`, t.text, t.timestamp),
	}
}

// createIndexes creates the indexes backing the context window and retention scans.
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_events_context ON events(store_id, user_identifier, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_events_created_at ON events(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_events_type ON events(store_id, event_type)`,
	}

	for _, query := range indexes {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", query, err)
		}
	}
	return nil
}
