// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

package models

import (
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Event types the decision rules and retention filters act on.
// Any other type is stored but never matched.
const (
	EventTypePageView      = "page_view"
	EventTypeAddToCart     = "add_to_cart"
	EventTypeCheckoutStart = "checkout_start"
	EventTypePurchase      = "purchase"
	EventTypeChatInitiated = "chat_initiated"
)

// Filter reasons recorded when the retention job hides an event.
const (
	FilterReasonAged      = "aged"
	FilterReasonTrashChat = "trash_chat"
)

// ChatDurationField is the payload key holding a chat's length in seconds.
const ChatDurationField = "duration_seconds"

// EventIDPrefix starts every event id.
const EventIDPrefix = "evt_"

// Event is one behavioral signal from a storefront shopper.
type Event struct {
	EventID      string          `json:"eventId"`
	TenantID     string          `json:"storeId"`
	EndUserID    string          `json:"userId"`
	EventType    string          `json:"eventType"`
	ProductID    *string         `json:"productId,omitempty"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	IsFiltered   bool            `json:"isFiltered"`
	FilterReason string          `json:"filterReason,omitempty"`
}

// NewEventID returns "evt_" followed by 32 hex characters of a random UUID.
func NewEventID() string {
	return EventIDPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// PayloadOrEmpty returns the payload, or an empty JSON object when none was sent.
func (e *Event) PayloadOrEmpty() json.RawMessage {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return json.RawMessage("{}")
	}
	return e.Payload
}

// ContextWindow is an end-user's recent unfiltered history, newest first.
type ContextWindow []Event

// Count returns how many events in the window have the given type.
func (w ContextWindow) Count(eventType string) int {
	n := 0
	for i := range w {
		if w[i].EventType == eventType {
			n++
		}
	}
	return n
}
