// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

// Package brain decides which on-site action, if any, a shopper should see.
//
// An Engine holds an ordered list of rules. Decide runs the rules whose
// MatchesType accepts the triggering event and returns the first non-nil
// action. The window passed to Decide holds the shopper's most recent events,
// newest first, the trigger included.
//
// The default ladder:
//
//	add_to_cart,    no page_view in window            -> TRIGGER_CHAT_PROMPT
//	checkout_start, >=2 checkout_start, no purchase   -> DISPLAY_POPUP_OFFER
//	                (the trigger counts toward the two)
//	checkout_start, no purchase                       -> DISPLAY_INFO_MESSAGE
//
// Decide has no side effects and does no I/O.
package brain
