// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

/*
Package models defines the data structures shared by Akira's components.

Database models:
  - Tenant: a storefront (the stores table) with its snippet token and quota
  - Event: one behavioral event (the events table)
  - UsageSummary: a monthly roll-up row (the user_behavior_summary table)
  - Product: a catalog entry ingested through the product webhook

Reaction models:
  - Action: what the decision engine asks the storefront snippet to render
  - ActionPayload: the data pushed over the real-time channel

Only IsFiltered and FilterReason ever change on a stored Event.
*/
package models
