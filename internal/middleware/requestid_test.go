// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/tomtom215/akira/internal/logging"
)

func captureIDs(t *testing.T, header string) (respID, ctxID, logReqID, correlationID string) {
	t.Helper()
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = GetRequestID(r.Context())
		logReqID = logging.RequestIDFromContext(r.Context())
		correlationID = logging.CorrelationIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/events/capture", nil)
	if header != "" {
		req.Header.Set(RequestIDHeader, header)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Header().Get(RequestIDHeader), ctxID, logReqID, correlationID
}

func TestRequestID_GeneratesNewID(t *testing.T) {
	respID, ctxID, logReqID, correlationID := captureIDs(t, "")

	if _, err := uuid.Parse(respID); err != nil {
		t.Errorf("X-Request-ID %q is not a UUID: %v", respID, err)
	}
	if ctxID != respID || logReqID != respID {
		t.Errorf("context ids = %q / %q, want %q", ctxID, logReqID, respID)
	}
	if correlationID == "" {
		t.Error("expected a correlation id in context")
	}
}

func TestRequestID_UpstreamHeader(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		wantKeep bool
	}{
		{"proxy id kept", "nginx-7f3a-42", true},
		{"oversized id replaced", strings.Repeat("x", maxRequestIDLength+1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			respID, ctxID, _, _ := captureIDs(t, tt.header)
			if got := respID == tt.header; got != tt.wantKeep {
				t.Errorf("kept upstream id = %v, want %v (got %q)", got, tt.wantKeep, respID)
			}
			if ctxID != respID {
				t.Errorf("context id %q != response id %q", ctxID, respID)
			}
		})
	}
}

func TestRequestID_UniquePerRequest(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id, _, _, _ := captureIDs(t, "")
		if seen[id] {
			t.Fatalf("duplicate request id %s", id)
		}
		seen[id] = true
	}
}

func TestGetRequestID_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := GetRequestID(req.Context()); got != "" {
		t.Errorf("GetRequestID() = %q, want empty", got)
	}
}
