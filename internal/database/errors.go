// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

package database

import (
	"errors"
	"fmt"
	"io"

	"github.com/tomtom215/akira/internal/logging"
)

// ErrQuotaExceeded is returned by AppendEvent when the tenant has no allocation left.
// No event is written.
var ErrQuotaExceeded = errors.New("query allocation exhausted")

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// StorageError wraps any failure of the underlying store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure looks like a lost connection.
func (e *StorageError) Retryable() bool {
	return isConnectionError(e.Err)
}

// DuplicateEventError means an event id was appended twice. Ids are random,
// so this indicates a caller bug rather than a retry.
type DuplicateEventError struct {
	EventID string
}

func (e *DuplicateEventError) Error() string {
	return fmt.Sprintf("event %s already exists", e.EventID)
}

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// closeWithLog closes a resource and logs any error
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource and explicitly ignores any error
// Use this for cleanup operations in error paths where Close() errors are not actionable
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}
