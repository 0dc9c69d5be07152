// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sync methods a tenant can be provisioned with.
const (
	SyncMethodSnippet = "snippet"
	SyncMethodWebhook = "webhook"
)

// Id and token prefixes.
const (
	TenantIDPrefix     = "store_"
	SnippetTokenPrefix = "akira_snip_"
)

// Tenant is a storefront registered with Akira.
type Tenant struct {
	ID                  string    `json:"id"`
	UserID              string    `json:"userId,omitempty"`
	StoreName           string    `json:"storeName,omitempty"`
	Platform            string    `json:"platform,omitempty"`
	StoreURL            string    `json:"storeUrl,omitempty"`
	SnippetToken        string    `json:"-"`
	SyncMethod          string    `json:"syncMethod,omitempty"`
	CurrentMonthlyUsage int64     `json:"currentMonthlyUsage"`
	QueryAllocation     int64     `json:"queryAllocation"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// QuotaExhausted reports whether the tenant has no accepted events left this month.
func (t *Tenant) QuotaExhausted() bool {
	return t.CurrentMonthlyUsage >= t.QueryAllocation
}

// NewTenantID returns "store_" followed by 10 random hex characters.
func NewTenantID() string {
	return TenantIDPrefix + randomHex(10)
}

// NewSnippetToken returns "akira_snip_" followed by 25 random hex characters.
func NewSnippetToken() string {
	return SnippetTokenPrefix + randomHex(25)
}

func randomHex(n int) string {
	var b strings.Builder
	for b.Len() < n {
		b.WriteString(strings.ReplaceAll(uuid.NewString(), "-", ""))
	}
	return b.String()[:n]
}
