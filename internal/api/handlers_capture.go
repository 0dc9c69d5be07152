// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/akira/internal/database"
	"github.com/tomtom215/akira/internal/gate"
	"github.com/tomtom215/akira/internal/logging"
	"github.com/tomtom215/akira/internal/metrics"
	"github.com/tomtom215/akira/internal/validation"
)

// Intake replies.
const (
	msgMissingParams   = "Missing required parameters or authentication token."
	msgInvalidPayload  = "Invalid request payload."
	msgInvalidToken    = "Authentication failed. Invalid token."
	msgStoreMismatch   = "Security failure: Store ID mismatch."
	msgEventAccepted   = "Event accepted and processing triggered."
	msgEventStoreError = "Server error during event recording."
)

// Rejection reasons, also metric labels.
const (
	rejectValidation    = "validation"
	rejectInvalidToken  = "invalid_token"
	rejectStoreMismatch = "store_mismatch"
	rejectQuota         = "quota"
	rejectStorage       = "storage"
)

// CaptureEvent handles POST /api/v1/events/capture.
//
// The event is durable before 202 is written. Reaction work starts only after
// the response, so decision or fan-out failures never reach the caller.
func (h *Handler) CaptureEvent(w http.ResponseWriter, r *http.Request) {
	var req CaptureRequest
	if err := h.decodeBody(w, r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		metrics.RecordEventRejected(rejectValidation)
		respondMessage(w, http.StatusBadRequest, msgInvalidPayload)
		return
	}
	req.Token = r.Header.Get(h.tokenHeader)

	if verr := validation.ValidateStruct(&req); verr != nil {
		metrics.RecordEventRejected(rejectValidation)
		if verr.HasTag("required") {
			respondMessage(w, http.StatusBadRequest, msgMissingParams)
			return
		}
		respondMessage(w, http.StatusBadRequest, verr.Error())
		return
	}

	ctx := gate.WithClientIP(r.Context(), clientIP(r))
	tenant, err := h.gate.Admit(ctx, req.Token, req.StoreID)
	if err != nil {
		h.respondAdmitError(w, r, err)
		return
	}

	ev := req.event()
	if _, err := h.store.AppendEvent(ctx, tenant.ID, ev); err != nil {
		h.respondAppendError(w, r, tenant.ID, err)
		return
	}
	metrics.RecordEventAccepted()

	respondJSON(w, http.StatusAccepted, &MessageResponse{Message: msgEventAccepted, EventID: ev.EventID})
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	if !h.dispatcher.Submit(ev) {
		logging.Ctx(r.Context()).Warn().
			Str("store_id", tenant.ID).
			Str("event_id", ev.EventID).
			Msg("Reaction dropped, dispatcher queue full")
	}
	if h.mirror != nil {
		h.mirror.Submit(ev)
	}
}

func (h *Handler) respondAdmitError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		authErr     *gate.AuthenticationError
		mismatchErr *gate.IdentityMismatchError
		quotaErr    *gate.QuotaExceededError
	)
	switch {
	case errors.As(err, &authErr):
		metrics.RecordEventRejected(rejectInvalidToken)
		respondMessage(w, http.StatusUnauthorized, msgInvalidToken)
	case errors.As(err, &mismatchErr):
		metrics.RecordEventRejected(rejectStoreMismatch)
		respondMessage(w, http.StatusUnauthorized, msgStoreMismatch)
	case errors.As(err, &quotaErr):
		metrics.RecordEventRejected(rejectQuota)
		respondMessage(w, http.StatusTooManyRequests, quotaErr.Error())
	default:
		metrics.RecordEventRejected(rejectStorage)
		logging.Ctx(r.Context()).Error().Err(err).Msg("Tenant lookup failed during intake")
		respondMessage(w, http.StatusInternalServerError, msgEventStoreError)
	}
}

func (h *Handler) respondAppendError(w http.ResponseWriter, r *http.Request, tenantID string, err error) {
	var dupErr *database.DuplicateEventError
	switch {
	case errors.Is(err, database.ErrQuotaExceeded):
		// The cached snapshot was stale; the next request must see real usage.
		h.gate.Invalidate(tenantID)
		metrics.RecordEventRejected(rejectQuota)
		respondMessage(w, http.StatusTooManyRequests, gate.QuotaExceededMessage)
	case errors.As(err, &dupErr):
		metrics.RecordEventRejected(rejectStorage)
		logging.Ctx(r.Context()).Error().
			Str("store_id", tenantID).
			Str("event_id", dupErr.EventID).
			Msg("Duplicate event id generated")
		respondMessage(w, http.StatusInternalServerError, msgEventStoreError)
	default:
		metrics.RecordEventRejected(rejectStorage)
		logging.Ctx(r.Context()).Error().Err(err).Str("store_id", tenantID).Msg("Failed to append event")
		respondMessage(w, http.StatusInternalServerError, msgEventStoreError)
	}
}
