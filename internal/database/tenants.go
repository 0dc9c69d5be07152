// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/akira/internal/metrics"
	"github.com/tomtom215/akira/internal/models"
)

const tenantColumns = `id, user_id, store_name, platform, store_url, snippet_token, sync_method,
	current_monthly_usage, query_allocation, created_at, updated_at`

// TenantByToken resolves a snippet token. It returns ErrNotFound for unknown tokens.
func (db *DB) TenantByToken(ctx context.Context, token string) (*models.Tenant, error) {
	return db.queryTenant(ctx, "tenant_by_token", `SELECT `+tenantColumns+` FROM stores WHERE snippet_token = $1`, token)
}

// TenantByID returns a tenant. It returns ErrNotFound for unknown ids.
func (db *DB) TenantByID(ctx context.Context, tenantID string) (*models.Tenant, error) {
	return db.queryTenant(ctx, "tenant_by_id", `SELECT `+tenantColumns+` FROM stores WHERE id = $1`, tenantID)
}

func (db *DB) queryTenant(ctx context.Context, op, query string, arg string) (*models.Tenant, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	var (
		t                                              models.Tenant
		userID, storeName, platform, storeURL, syncMth sql.NullString
	)
	err := db.conn.QueryRowContext(ctx, query, arg).Scan(
		&t.ID, &userID, &storeName, &platform, &storeURL, &t.SnippetToken, &syncMth,
		&t.CurrentMonthlyUsage, &t.QueryAllocation, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordDBQuery(op, time.Since(start), nil)
		return nil, ErrNotFound
	}
	metrics.RecordDBQuery(op, time.Since(start), err)
	if err != nil {
		return nil, storageErr(op, err)
	}

	t.UserID = userID.String
	t.StoreName = storeName.String
	t.Platform = platform.String
	t.StoreURL = storeURL.String
	t.SyncMethod = syncMth.String
	return &t, nil
}

// CreateTenant inserts a tenant, generating its id and snippet token when empty.
func (db *DB) CreateTenant(ctx context.Context, t *models.Tenant) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if t.ID == "" {
		t.ID = models.NewTenantID()
	}
	if t.SnippetToken == "" {
		t.SnippetToken = models.NewSnippetToken()
	}
	if t.SyncMethod == "" {
		t.SyncMethod = models.SyncMethodSnippet
	}
	now := db.clock()
	t.CreatedAt, t.UpdatedAt = now, now

	unlock := db.lockWrites()
	defer unlock()

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO stores (`+tenantColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		t.ID, t.UserID, t.StoreName, t.Platform, t.StoreURL, t.SnippetToken, t.SyncMethod,
		t.CurrentMonthlyUsage, t.QueryAllocation, t.CreatedAt, t.UpdatedAt,
	)
	if isDuplicateKey(err) {
		return fmt.Errorf("tenant %s: %w", t.ID, errTenantExists)
	}
	return storageErr("create tenant", err)
}

var errTenantExists = errors.New("tenant or snippet token already exists")

// ListTenantIDs returns every tenant id, ordered.
func (db *DB) ListTenantIDs(ctx context.Context) ([]string, error) {
	return db.queryIDs(ctx, "list_tenants", `SELECT id FROM stores ORDER BY id`)
}

func (db *DB) queryIDs(ctx context.Context, op, query string, args ...any) ([]string, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	ids, err := func() ([]string, error) {
		rows, err := db.conn.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		defer closeWithLog(rows, "id rows")

		var ids []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
		return ids, rows.Err()
	}()
	metrics.RecordDBQuery(op, time.Since(start), err)
	if err != nil {
		return nil, storageErr(op, err)
	}
	return ids, nil
}
