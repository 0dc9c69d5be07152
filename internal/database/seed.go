// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/akira/internal/config"
	"github.com/tomtom215/akira/internal/logging"
	"github.com/tomtom215/akira/internal/models"
)

// SeedDemoTenant creates the demo tenant described by cfg if it does not exist.
// It returns the tenant and whether it was created by this call.
//
// This is intended for local development and demos only; config validation
// refuses seeding in production.
func (db *DB) SeedDemoTenant(ctx context.Context, cfg config.SeedConfig) (*models.Tenant, bool, error) {
	existing, err := db.TenantByID(ctx, cfg.TenantID)
	switch {
	case err == nil:
		if existing.SnippetToken != cfg.Token {
			logging.Warn().
				Str("store_id", cfg.TenantID).
				Msg("Demo tenant exists with a different snippet token, leaving it unchanged")
		}
		return existing, false, nil
	case !errors.Is(err, ErrNotFound):
		return nil, false, fmt.Errorf("look up demo tenant: %w", err)
	}

	t := &models.Tenant{
		ID:              cfg.TenantID,
		UserID:          "demo",
		StoreName:       "Akira Demo Store",
		Platform:        cfg.Platform,
		SnippetToken:    cfg.Token,
		SyncMethod:      models.SyncMethodSnippet,
		QueryAllocation: cfg.QueryAllocation,
	}
	if err := db.CreateTenant(ctx, t); err != nil {
		return nil, false, fmt.Errorf("create demo tenant: %w", err)
	}

	logging.Info().
		Str("store_id", t.ID).
		Int64("query_allocation", t.QueryAllocation).
		Msg("Seeded demo tenant")
	return t, true, nil
}
