// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

package dispatch

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/akira/internal/logging"
	"github.com/tomtom215/akira/internal/metrics"
	"github.com/tomtom215/akira/internal/models"
)

const contextReaderBreakerName = "context-reader"

// BreakerOptions tunes the circuit breaker in front of the context reader.
type BreakerOptions struct {
	// Failures is the number of consecutive failed reads that opens the circuit.
	Failures uint32

	// Timeout is how long the circuit stays open before a trial read.
	Timeout time.Duration

	// HalfOpenRequests is the number of trial reads allowed while half-open.
	HalfOpenRequests uint32
}

// breakerReader wraps a ContextReader with a circuit breaker. A canceled
// context is not counted as a store failure.
type breakerReader struct {
	reader ContextReader
	cb     *gobreaker.CircuitBreaker[models.ContextWindow]
}

func newBreakerReader(reader ContextReader, opts BreakerOptions) *breakerReader {
	if opts.Failures == 0 {
		opts.Failures = 5
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.HalfOpenRequests == 0 {
		opts.HalfOpenRequests = 1
	}

	metrics.CircuitBreakerState.WithLabelValues(contextReaderBreakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[models.ContextWindow](gobreaker.Settings{
		Name:        contextReaderBreakerName,
		MaxRequests: opts.HalfOpenRequests,
		Timeout:     opts.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.Failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("[CIRCUIT BREAKER] State transition")
			metrics.RecordBreakerTransition(name, from.String(), to.String(), int(to))
		},
	})

	return &breakerReader{reader: reader, cb: cb}
}

func (b *breakerReader) ContextWindow(ctx context.Context, tenantID, endUserID string, k int) (models.ContextWindow, error) {
	return b.cb.Execute(func() (models.ContextWindow, error) {
		return b.reader.ContextWindow(ctx, tenantID, endUserID, k)
	})
}

func (b *breakerReader) state() gobreaker.State {
	return b.cb.State()
}

func isBreakerRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
