// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is built once and shared; it caches struct
// metadata and is safe for concurrent use. Field names in messages come from
// the json tag, so a failure reads the way the storefront sent the body:
//
//	type CaptureRequest struct {
//	    EventType string `json:"eventType" validate:"required,max=128"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    // verr.Error() == "eventType is required"
//	    // verr.HasTag("required") == true
//	}
//
// Handlers decide the response text; RequestValidationError only carries the
// failing fields, tags and translated messages.
package validation
