// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/tomtom215/akira/internal/config"
	"github.com/tomtom215/akira/internal/logging"
)

// DB wraps the event store connection and provides data access methods.
// All queries are written once with $n placeholders and run unchanged on
// DuckDB and PostgreSQL. Only the DDL differs per dialect.
type DB struct {
	conn    *sql.DB
	cfg     *config.DatabaseConfig
	dialect dialect

	// now stamps created_at and updated_at. Tests replace it to age events.
	now func() time.Time

	maxConflictRetries int
	conflictBackoff    time.Duration

	// writeMu queues DuckDB writers. Concurrent updates of one stores row
	// otherwise abort with write-write conflicts.
	writeMu sync.Mutex
}

// lockWrites serializes writers on DuckDB and returns the unlock func.
// PostgreSQL queues row updates itself, so it gets a no-op.
func (db *DB) lockWrites() func() {
	if db.dialect != dialectDuckDB {
		return func() {}
	}
	db.writeMu.Lock()
	return db.writeMu.Unlock
}

// New opens the configured store and initializes the schema.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	conn, d, err := open(cfg)
	if err != nil {
		return nil, err
	}

	db := &DB{
		conn:               conn,
		cfg:                cfg,
		dialect:            d,
		now:                time.Now,
		maxConflictRetries: 3,
		conflictBackoff:    10 * time.Millisecond,
	}

	db.configureConnectionPool()

	if err := db.initialize(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	logging.Info().
		Str("driver", string(d)).
		Msg("Event store ready")

	return db, nil
}

// open returns a *sql.DB for the configured driver without touching the schema.
func open(cfg *config.DatabaseConfig) (*sql.DB, dialect, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pgCfg, err := pgx.ParseConfig(cfg.DSN)
		if err != nil {
			return nil, "", fmt.Errorf("failed to parse DATABASE_URL: %w", err)
		}
		// Month buckets and timestamps are computed in UTC on both dialects.
		pgCfg.RuntimeParams["timezone"] = "UTC"
		return stdlib.OpenDB(*pgCfg), dialectPostgres, nil

	case config.DriverDuckDB, "":
		numThreads := cfg.Threads
		if numThreads <= 0 {
			numThreads = runtime.NumCPU()
		}

		// Use 0750 permissions (owner: rwx, group: rx, other: none) per gosec G301
		if dbDir := filepath.Dir(cfg.Path); dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, "", fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}

		maxMemory := cfg.MaxMemory
		if maxMemory == "" {
			maxMemory = "1GB"
		}
		connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s",
			cfg.Path, numThreads, maxMemory)

		conn, err := sql.Open("duckdb", connStr)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open database: %w", err)
		}
		return conn, dialectDuckDB, nil

	default:
		return nil, "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Conn returns the underlying SQL database connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Driver returns the name of the active dialect.
func (db *DB) Driver() string {
	return string(db.dialect)
}

// Ping checks if the database connection is alive
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return db.conn.PingContext(ctx)
}

// Close closes the connection. On DuckDB a CHECKPOINT flushes the WAL first.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	if db.dialect == dialectDuckDB {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := db.Checkpoint(ctx); err != nil {
			logging.Warn().Err(err).Msg("Failed to checkpoint database before close")
		}
		cancel()
	}
	return db.conn.Close()
}

// Checkpoint forces a WAL checkpoint. It is a no-op on PostgreSQL.
func (db *DB) Checkpoint(ctx context.Context) error {
	if db.dialect != dialectDuckDB {
		return nil
	}
	if _, err := db.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
		return fmt.Errorf("checkpoint failed: %w", err)
	}
	return nil
}

// initialize creates tables and indexes
func (db *DB) initialize() error {
	if err := db.createTables(); err != nil {
		return err
	}
	if err := db.createIndexes(); err != nil {
		return err
	}

	if db.dialect == dialectDuckDB {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := db.Checkpoint(ctx); err != nil {
			logging.Warn().Err(err).Msg("Failed to checkpoint after schema initialization")
		}
	}
	return nil
}

// ensureContext adds a 30-second timeout to contexts without a deadline.
func (db *DB) ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), 30*time.Second)
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		return context.WithTimeout(ctx, 30*time.Second)
	}
	return ctx, func() {}
}

// clock returns the current store time in UTC.
func (db *DB) clock() time.Time {
	return db.now().UTC()
}

// SetClockForTesting replaces the store clock.
func (db *DB) SetClockForTesting(now func() time.Time) {
	db.now = now
}
