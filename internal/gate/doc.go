// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

// Package gate admits storefront events before they are stored.
//
// A request carries a snippet token and the tenant id the storefront claims to
// be. Admit resolves the token, checks that it belongs to the claimed tenant,
// and rejects tenants whose monthly usage has reached their allocation:
//
//	g := gate.New(db, gate.Options{CacheSize: 4096, CacheTTL: 30 * time.Second})
//	tenant, err := g.Admit(ctx, token, req.StoreID)
//	var quota *gate.QuotaExceededError
//	if errors.As(err, &quota) {
//	    // 429
//	}
//
// The quota check here reads a cached tenant snapshot and can lag by up to the
// cache TTL. The event store's guarded increment is the authoritative check;
// when it rejects an append the caller should Invalidate the tenant.
//
// Failed authentications are written to the security logger with the token
// masked.
package gate
