// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/tomtom215/akira/internal/metrics"
	"github.com/tomtom215/akira/internal/models"
)

// UpsertProduct inserts or refreshes a catalog entry keyed by (store_id, external_id).
// p.ID is derived from the tenant and external id when empty.
func (db *DB) UpsertProduct(ctx context.Context, p *models.Product) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if p.ID == "" {
		p.ID = models.ProductID(p.TenantID, p.ExternalID)
	}
	p.UpdatedAt = db.clock()

	unlock := db.lockWrites()
	defer unlock()

	start := time.Now()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO products (id, store_id, external_id, name, price, stock, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (store_id, external_id) DO UPDATE SET
			name = EXCLUDED.name,
			price = EXCLUDED.price,
			stock = EXCLUDED.stock,
			updated_at = EXCLUDED.updated_at`,
		p.ID, p.TenantID, p.ExternalID, p.Name, p.Price, p.Stock, p.UpdatedAt,
	)
	metrics.RecordDBQuery("upsert_product", time.Since(start), err)
	return storageErr("upsert product", err)
}

// ProductByExternalID returns one catalog entry, or ErrNotFound.
func (db *DB) ProductByExternalID(ctx context.Context, tenantID, externalID string) (*models.Product, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var (
		p     models.Product
		price sql.NullFloat64
		stock sql.NullInt64
	)
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, store_id, external_id, name, price, stock, updated_at
		FROM products WHERE store_id = $1 AND external_id = $2`,
		tenantID, externalID,
	).Scan(&p.ID, &p.TenantID, &p.ExternalID, &p.Name, &price, &stock, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("product by external id", err)
	}
	if price.Valid {
		p.Price = &price.Float64
	}
	if stock.Valid {
		p.Stock = &stock.Int64
	}
	return &p, nil
}
