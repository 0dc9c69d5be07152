// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/akira/internal/models"
)

func TestProductWebhook_Upsert(t *testing.T) {
	env := newTestEnv(t, 10)
	path := "/hook/" + env.tenant.ID

	// Shopify style: numeric id, title, string price.
	rec := env.do(t, http.MethodPost, path, "",
		`{"id": 8812345, "title": "Trail Runner", "price": "89.50", "inventory_quantity": 7}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202; body = %s", rec.Code, rec.Body.String())
	}
	resp := decodeMessage(t, rec)
	if resp.Message != msgProductAccepted {
		t.Errorf("message = %q", resp.Message)
	}
	if want := models.ProductID(env.tenant.ID, "8812345"); resp.ProductID != want {
		t.Errorf("productId = %q, want %q", resp.ProductID, want)
	}

	p, err := env.db.ProductByExternalID(context.Background(), env.tenant.ID, "8812345")
	if err != nil {
		t.Fatalf("ProductByExternalID() error = %v", err)
	}
	if p.Name != "Trail Runner" {
		t.Errorf("name = %q", p.Name)
	}
	if p.Price == nil || *p.Price != 89.5 {
		t.Errorf("price = %v, want 89.5", p.Price)
	}
	if p.Stock == nil || *p.Stock != 7 {
		t.Errorf("stock = %v, want 7", p.Stock)
	}

	// Generic style update of the same product.
	rec = env.do(t, http.MethodPost, path, "",
		`{"externalId": "8812345", "name": "Trail Runner 2", "price": 79}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("update status = %d, want 202", rec.Code)
	}
	p, err = env.db.ProductByExternalID(context.Background(), env.tenant.ID, "8812345")
	if err != nil {
		t.Fatalf("ProductByExternalID() error = %v", err)
	}
	if p.Name != "Trail Runner 2" || p.Price == nil || *p.Price != 79 {
		t.Errorf("updated product = %+v", p)
	}
	if p.Stock != nil {
		t.Errorf("stock = %v, want cleared", *p.Stock)
	}
}

func TestProductWebhook_Rejections(t *testing.T) {
	env := newTestEnv(t, 10)

	tests := []struct {
		name       string
		path       string
		body       interface{}
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "invalid json",
			path:       "/hook/" + env.tenant.ID,
			body:       `not json`,
			wantStatus: http.StatusBadRequest,
			wantMsg:    msgInvalidPayload,
		},
		{
			name:       "unknown store",
			path:       "/hook/store_unknown",
			body:       `{"id": "1", "name": "x"}`,
			wantStatus: http.StatusUnauthorized,
			wantMsg:    msgUnauthorizedStore,
		},
		{
			name:       "missing name",
			path:       "/hook/" + env.tenant.ID,
			body:       `{"id": "1"}`,
			wantStatus: http.StatusBadRequest,
			wantMsg:    msgProductIncomplete,
		},
		{
			name:       "missing id",
			path:       "/hook/" + env.tenant.ID,
			body:       `{"title": "Hat"}`,
			wantStatus: http.StatusBadRequest,
			wantMsg:    msgProductIncomplete,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, tt.path, "", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := decodeMessage(t, rec).Message; got != tt.wantMsg {
				t.Errorf("message = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestProductPayload_Product(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantOK   bool
		wantID   string
		wantName string
	}{
		{"id wins over externalId", `{"id": "a", "externalId": "b", "name": "N"}`, true, "a", "N"},
		{"externalId fallback", `{"externalId": "b", "title": "T"}`, true, "b", "T"},
		{"name wins over title", `{"id": 5, "name": "N", "title": "T"}`, true, "5", "N"},
		{"blank name", `{"id": 5, "name": "  "}`, false, "", ""},
		{"null id", `{"id": null, "name": "N"}`, false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p ProductPayload
			if err := json.Unmarshal([]byte(tt.body), &p); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			prod, ok := p.product("store_x")
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if prod.ExternalID != tt.wantID || prod.Name != tt.wantName || prod.TenantID != "store_x" {
				t.Errorf("product = %+v", prod)
			}
		})
	}
}

func TestStoreProbe(t *testing.T) {
	env := newTestEnv(t, 0)

	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
		want       ProbeResponse
	}{
		{"known store with spent quota", map[string]string{"storeId": env.tenant.ID}, http.StatusOK, ProbeResponse{OK: true}},
		{"unknown store", map[string]string{"storeId": "store_nope"}, http.StatusNotFound, ProbeResponse{Message: "Store not found"}},
		{"missing store id", map[string]string{}, http.StatusBadRequest, ProbeResponse{Message: "Missing storeId"}},
		{"no body", nil, http.StatusBadRequest, ProbeResponse{Message: "Missing storeId"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/health", "", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var got ProbeResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got != tt.want {
				t.Errorf("response = %+v, want %+v", got, tt.want)
			}
		})
	}
}
