// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/tomtom215/akira/internal/database"
	"github.com/tomtom215/akira/internal/logging"
)

const readinessTimeout = 2 * time.Second

// StoreProbe handles POST /health. It tells an installed snippet whether its
// store id is known. Quota does not affect the answer.
func (h *Handler) StoreProbe(w http.ResponseWriter, r *http.Request) {
	var req ProbeRequest
	if err := h.decodeBody(w, r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondJSON(w, http.StatusBadRequest, &ProbeResponse{OK: false, Message: "Missing storeId"})
		return
	}
	storeID := strings.TrimSpace(req.StoreID)
	if storeID == "" {
		respondJSON(w, http.StatusBadRequest, &ProbeResponse{OK: false, Message: "Missing storeId"})
		return
	}

	_, err := h.store.TenantByID(r.Context(), storeID)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, &ProbeResponse{OK: true})
	case errors.Is(err, database.ErrNotFound):
		respondJSON(w, http.StatusNotFound, &ProbeResponse{OK: false, Message: "Store not found"})
	default:
		logging.Ctx(r.Context()).Error().Err(err).Str("store_id", storeID).Msg("Store probe failed")
		respondJSON(w, http.StatusInternalServerError, &ProbeResponse{OK: false, Message: "Internal Server Error"})
	}
}

// HealthLive handles the liveness probe. It never touches dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, &StatusResponse{
		Status: "alive",
		Uptime: time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles the readiness probe. Returns 503 while the event store
// does not answer a ping.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	dbConnected := h.store != nil && h.store.Ping(ctx) == nil

	status, code := "ready", http.StatusOK
	if !dbConnected {
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	respondJSON(w, code, &StatusResponse{
		Status:   status,
		Database: &dbConnected,
		Uptime:   time.Since(h.startTime).Seconds(),
	})
}
