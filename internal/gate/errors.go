// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

package gate

import "fmt"

// QuotaExceededMessage is the reason returned to storefronts over their allocation.
const QuotaExceededMessage = "Store reached its query allocation limit (429)."

// AuthenticationError means the token is missing or belongs to no tenant.
type AuthenticationError struct {
	Reason string
}

func (e *AuthenticationError) Error() string {
	return "authentication failed: " + e.Reason
}

// IdentityMismatchError means a valid token was presented for another tenant.
type IdentityMismatchError struct {
	ResolvedTenantID string
	ClaimedTenantID  string
}

func (e *IdentityMismatchError) Error() string {
	return fmt.Sprintf("store id mismatch: token belongs to %s, request claims %s",
		e.ResolvedTenantID, e.ClaimedTenantID)
}

// QuotaExceededError means the tenant has used its whole allocation.
type QuotaExceededError struct {
	TenantID   string
	Usage      int64
	Allocation int64
}

func (e *QuotaExceededError) Error() string {
	return QuotaExceededMessage
}
