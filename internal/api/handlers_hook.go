// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/akira/internal/database"
	"github.com/tomtom215/akira/internal/logging"
)

const (
	msgUnauthorizedStore = "Unauthorized Store ID."
	msgProductIncomplete = "Product external ID or name is missing in the payload."
	msgProductAccepted   = "Webhook accepted and product data updated."
	msgHookServerError   = "Internal server error during processing."
)

// ProductWebhook handles POST /hook/{storeId}. The store id in the path is the
// only credential; unknown stores are refused before anything is written.
func (h *Handler) ProductWebhook(w http.ResponseWriter, r *http.Request) {
	storeID := chi.URLParam(r, "storeId")

	var payload ProductPayload
	if err := h.decodeBody(w, r, &payload); err != nil {
		respondMessage(w, http.StatusBadRequest, msgInvalidPayload)
		return
	}

	tenant, err := h.store.TenantByID(r.Context(), storeID)
	if errors.Is(err, database.ErrNotFound) {
		logging.Ctx(r.Context()).Warn().
			Str("store_id", storeID).
			Str("ip", clientIP(r)).
			Msg("Webhook for unknown store")
		respondMessage(w, http.StatusUnauthorized, msgUnauthorizedStore)
		return
	}
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("store_id", storeID).Msg("Webhook store lookup failed")
		respondMessage(w, http.StatusInternalServerError, msgHookServerError)
		return
	}

	product, ok := payload.product(tenant.ID)
	if !ok {
		respondMessage(w, http.StatusBadRequest, msgProductIncomplete)
		return
	}

	if err := h.store.UpsertProduct(r.Context(), product); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).
			Str("store_id", tenant.ID).
			Str("external_id", product.ExternalID).
			Msg("Failed to upsert product")
		respondMessage(w, http.StatusInternalServerError, msgHookServerError)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("store_id", tenant.ID).
		Str("product_id", product.ID).
		Msg("Product synced from webhook")
	respondJSON(w, http.StatusAccepted, &MessageResponse{Message: msgProductAccepted, ProductID: product.ID})
}
