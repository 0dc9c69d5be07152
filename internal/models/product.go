// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

package models

import "time"

// Product is a catalog entry pushed by a storefront platform webhook.
type Product struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"storeId"`
	ExternalID string    `json:"externalId"`
	Name       string    `json:"name"`
	Price      *float64  `json:"price,omitempty"`
	Stock      *int64    `json:"stock,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ProductID derives the catalog id from the tenant and the platform's id.
func ProductID(tenantID, externalID string) string {
	return tenantID + "_" + externalID
}
