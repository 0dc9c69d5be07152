// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

package models

import (
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

func TestNewEventID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewEventID()
		if !strings.HasPrefix(id, EventIDPrefix) {
			t.Fatalf("NewEventID() = %q, want prefix %q", id, EventIDPrefix)
		}
		if len(id) != len(EventIDPrefix)+32 {
			t.Fatalf("NewEventID() = %q, want 32 hex chars after prefix", id)
		}
		if seen[id] {
			t.Fatalf("NewEventID() returned duplicate %q", id)
		}
		seen[id] = true
	}
}

func TestTenantQuotaExhausted(t *testing.T) {
	tests := []struct {
		usage, allocation int64
		want              bool
	}{
		{0, 10, false},
		{9, 10, false},
		{10, 10, true},
		{11, 10, true},
		{0, 0, true},
	}
	for _, tt := range tests {
		tenant := Tenant{CurrentMonthlyUsage: tt.usage, QueryAllocation: tt.allocation}
		if got := tenant.QuotaExhausted(); got != tt.want {
			t.Errorf("QuotaExhausted(%d/%d) = %v, want %v", tt.usage, tt.allocation, got, tt.want)
		}
	}
}

func TestContextWindowCount(t *testing.T) {
	w := ContextWindow{
		{EventType: EventTypeCheckoutStart},
		{EventType: EventTypePageView},
		{EventType: EventTypeCheckoutStart},
	}
	if got := w.Count(EventTypeCheckoutStart); got != 2 {
		t.Errorf("Count(checkout_start) = %d, want 2", got)
	}
	if got := w.Count(EventTypePurchase); got != 0 {
		t.Errorf("Count(purchase) = %d, want 0", got)
	}
}

func TestPayloadOrEmpty(t *testing.T) {
	for _, raw := range []string{"", "null"} {
		e := Event{Payload: json.RawMessage(raw)}
		if got := string(e.PayloadOrEmpty()); got != "{}" {
			t.Errorf("PayloadOrEmpty(%q) = %q, want {}", raw, got)
		}
	}
	e := Event{Payload: json.RawMessage(`{"duration_seconds":12}`)}
	if got := string(e.PayloadOrEmpty()); got != `{"duration_seconds":12}` {
		t.Errorf("PayloadOrEmpty() = %q", got)
	}
}

func TestActionPayloadShape(t *testing.T) {
	payload := ActionPayload{
		TargetUser: TargetUserKey("u1"),
		Action:     &Action{Type: ActionDisplayInfoMessage, Data: ActionData{Message: "hi"}},
	}
	b, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"targetUser":"user_u1","action":{"type":"DISPLAY_INFO_MESSAGE","data":{"message":"hi"}}}`
	if string(b) != want {
		t.Errorf("Marshal = %s, want %s", b, want)
	}
}

func TestNewTenantIdentifiers(t *testing.T) {
	id := NewTenantID()
	if !strings.HasPrefix(id, TenantIDPrefix) || len(id) != len(TenantIDPrefix)+10 {
		t.Errorf("NewTenantID() = %q", id)
	}
	tok := NewSnippetToken()
	if !strings.HasPrefix(tok, SnippetTokenPrefix) || len(tok) != len(SnippetTokenPrefix)+25 {
		t.Errorf("NewSnippetToken() = %q", tok)
	}
	if NewSnippetToken() == tok {
		t.Error("NewSnippetToken() should not repeat")
	}
}
