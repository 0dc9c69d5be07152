// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

package eventbus

import (
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/akira/internal/models"
)

func TestEncode_WireShape(t *testing.T) {
	ev := &models.Event{
		EventID:   "evt_0123",
		TenantID:  "store_abc",
		EndUserID: "u1",
		EventType: models.EventTypePurchase,
		CreatedAt: time.Date(2026, 3, 10, 12, 0, 0, 0, time.FixedZone("CET", 3600)),
	}

	data, err := Encode(ev)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	body := string(data)
	for _, want := range []string{`"eventId":"evt_0123"`, `"storeId":"store_abc"`, `"payload":{}`, `"createdAt":"2026-03-10T11:00:00Z"`} {
		if !strings.Contains(body, want) {
			t.Errorf("Encode() = %s, missing %s", body, want)
		}
	}
	if strings.Contains(body, "productId") {
		t.Errorf("Encode() = %s, want productId omitted", body)
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.EventID != ev.EventID || got.EventType != ev.EventType {
		t.Errorf("Decode() = %+v", got)
	}
}

func TestDecode_Invalid(t *testing.T) {
	if _, err := Decode([]byte("not json")); err == nil {
		t.Error("Decode() error = nil for invalid body")
	}
}
