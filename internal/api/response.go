// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/akira/internal/logging"
)

// MessageResponse is the body of every intake and webhook reply.
type MessageResponse struct {
	Message   string `json:"message"`
	EventID   string `json:"eventId,omitempty"`
	ProductID string `json:"productId,omitempty"`
}

// ProbeResponse is the body of the storefront health probe.
type ProbeResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// StatusResponse is the body of the process liveness and readiness probes.
type StatusResponse struct {
	Status   string  `json:"status"`
	Database *bool   `json:"database_connected,omitempty"`
	Uptime   float64 `json:"uptime_seconds"`
}

// respondJSON writes v as JSON with the given status. Responses are never cached.
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Debug().Err(err).Msg("Failed to write JSON response")
	}
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, &MessageResponse{Message: message})
}
