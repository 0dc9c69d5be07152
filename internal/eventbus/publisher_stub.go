// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

//go:build !nats

package eventbus

import (
	"context"
	"errors"

	"github.com/tomtom215/akira/internal/config"
	"github.com/tomtom215/akira/internal/models"
)

// ErrNotCompiled is returned by New in builds without the nats tag.
var ErrNotCompiled = errors.New("NATS support not compiled (build with -tags nats)")

// Publisher is a stub for non-NATS builds.
type Publisher struct{}

// New always fails in non-NATS builds.
func New(_ *config.NATSConfig) (*Publisher, error) {
	return nil, ErrNotCompiled
}

// Submit drops the event.
func (p *Publisher) Submit(_ *models.Event) bool {
	return false
}

// Serve blocks until ctx is canceled.
func (p *Publisher) Serve(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

// String implements fmt.Stringer for suture logging.
func (p *Publisher) String() string {
	return "event-mirror"
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
