// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

package models

import "time"

// SummaryPeriodLayout formats UsageSummary.Period.
const SummaryPeriodLayout = "2006-01"

// UsageSummary is the monthly count of one event type for one end-user.
type UsageSummary struct {
	TenantID   string    `json:"storeId"`
	EndUserID  string    `json:"userId"`
	EventType  string    `json:"eventType"`
	Period     string    `json:"period"`
	EventCount int64     `json:"eventCount"`
	FirstSeen  time.Time `json:"firstSeen"`
	LastSeen   time.Time `json:"lastSeen"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
