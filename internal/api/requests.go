// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

package api

import (
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/akira/internal/models"
)

// CaptureRequest is the body of POST /api/v1/events/capture. Token is filled
// from the snippet token header, not the body.
type CaptureRequest struct {
	Token     string          `json:"-" validate:"required,max=256"`
	StoreID   string          `json:"storeId" validate:"max=128"`
	EventType string          `json:"eventType" validate:"required,max=64"`
	UserID    string          `json:"userId" validate:"required,max=256"`
	ProductID *string         `json:"productId,omitempty" validate:"omitempty,max=256"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// event builds the record to append. The tenant comes from the token, so it
// is set by the store, not here.
func (r *CaptureRequest) event() *models.Event {
	ev := &models.Event{
		EventID:   models.NewEventID(),
		EndUserID: r.UserID,
		EventType: r.EventType,
		Payload:   r.Payload,
	}
	if r.ProductID != nil && *r.ProductID != "" {
		id := *r.ProductID
		ev.ProductID = &id
	}
	return ev
}

// ProbeRequest is the body of POST /health.
type ProbeRequest struct {
	StoreID string `json:"storeId"`
}

// ProductPayload is a catalog webhook body. Field names vary by platform, so
// identifying fields are read from either of two keys.
type ProductPayload struct {
	ID                flexString  `json:"id"`
	ExternalID        flexString  `json:"externalId"`
	Name              string      `json:"name"`
	Title             string      `json:"title"`
	Price             *flexNumber `json:"price"`
	InventoryQuantity *flexNumber `json:"inventory_quantity"`
}

// product maps the payload onto a catalog record for tenantID. ok is false
// when the external id or name is missing.
func (p *ProductPayload) product(tenantID string) (prod *models.Product, ok bool) {
	externalID := strings.TrimSpace(string(p.ID))
	if externalID == "" {
		externalID = strings.TrimSpace(string(p.ExternalID))
	}
	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = strings.TrimSpace(p.Title)
	}
	if externalID == "" || name == "" {
		return nil, false
	}

	prod = &models.Product{
		TenantID:   tenantID,
		ExternalID: externalID,
		Name:       name,
	}
	if p.Price != nil {
		price := float64(*p.Price)
		prod.Price = &price
	}
	if p.InventoryQuantity != nil {
		stock := int64(*p.InventoryQuantity)
		prod.Stock = &stock
	}
	return prod, true
}

// flexString accepts a JSON string or number. Platforms send numeric product ids.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = flexString(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*s = flexString(n.String())
	return nil
}

// flexNumber accepts a JSON number or a numeric string such as "19.99".
type flexNumber float64

func (f *flexNumber) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
		if err != nil {
			return err
		}
		*f = flexNumber(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = flexNumber(v)
	return nil
}
