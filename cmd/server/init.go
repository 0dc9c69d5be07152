// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

package main

import (
	"errors"

	"github.com/tomtom215/akira/internal/config"
	"github.com/tomtom215/akira/internal/eventbus"
	"github.com/tomtom215/akira/internal/logging"
	"github.com/tomtom215/akira/internal/retention"
)

// initEventMirror connects the NATS event mirror when enabled. The mirror is
// optional: any failure is logged and the server runs without it.
func initEventMirror(cfg *config.NATSConfig) *eventbus.Publisher {
	if !cfg.Enabled {
		logging.Info().Msg("Event mirror disabled (NATS_ENABLED=false)")
		return nil
	}

	pub, err := eventbus.New(cfg)
	if errors.Is(err, eventbus.ErrNotCompiled) {
		logging.Warn().Msg("NATS_ENABLED=true but binary built without -tags nats, event mirror disabled")
		return nil
	}
	if err != nil {
		logging.Warn().Err(err).Str("url", cfg.URL).Msg("Failed to connect event mirror, continuing without it")
		return nil
	}

	logging.Info().Str("url", cfg.URL).Str("topic", cfg.Topic).Msg("Event mirror connected")
	return pub
}

// initRetention builds the daily retention scheduler, or nil when disabled.
func initRetention(store retention.Store, cfg *config.RetentionConfig) (*retention.Scheduler, error) {
	if !cfg.Enabled {
		logging.Info().Msg("Retention job disabled (RETENTION_ENABLED=false)")
		return nil, nil
	}

	scheduler, err := retention.NewScheduler(retention.NewJob(store, cfg), cfg)
	if err != nil {
		return nil, err
	}
	logging.Info().
		Str("run_at", cfg.RunAt).
		Dur("raw_horizon", cfg.RawHorizon).
		Bool("run_on_startup", cfg.RunOnStartup).
		Msg("Retention job scheduled")
	return scheduler, nil
}
