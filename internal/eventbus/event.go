// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

package eventbus

import (
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/akira/internal/models"
)

const (
	// DefaultTopic is the subject accepted events are published on.
	DefaultTopic = "akira.events.accepted"

	// StreamName is the JetStream stream capturing DefaultTopic.
	StreamName = "AKIRA_EVENTS"

	// DefaultQueueSize bounds events waiting to be mirrored.
	DefaultQueueSize = 1024
)

// Publish results, also used as metric labels.
const (
	ResultSuccess  = "success"
	ResultFailure  = "failure"
	ResultRejected = "rejected" // circuit open
	ResultDropped  = "dropped"  // queue full or mirror stopped
)

// AcceptedEvent is the JSON body of a mirrored event.
type AcceptedEvent struct {
	EventID   string          `json:"eventId"`
	StoreID   string          `json:"storeId"`
	UserID    string          `json:"userId"`
	EventType string          `json:"eventType"`
	ProductID *string         `json:"productId,omitempty"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"createdAt"`
}

// NewAcceptedEvent copies the fields consumers need from a stored event.
func NewAcceptedEvent(ev *models.Event) AcceptedEvent {
	return AcceptedEvent{
		EventID:   ev.EventID,
		StoreID:   ev.TenantID,
		UserID:    ev.EndUserID,
		EventType: ev.EventType,
		ProductID: ev.ProductID,
		Payload:   ev.PayloadOrEmpty(),
		CreatedAt: ev.CreatedAt.UTC(),
	}
}

// Encode returns the message body for ev.
func Encode(ev *models.Event) ([]byte, error) {
	return json.Marshal(NewAcceptedEvent(ev))
}

// Decode parses a message body produced by Encode.
func Decode(data []byte) (*AcceptedEvent, error) {
	var out AcceptedEvent
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
