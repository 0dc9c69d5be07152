// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

package retention

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/akira/internal/logging"
)

// StageReport is the outcome of one stage.
type StageReport struct {
	Stage    string
	Tenants  int   // stores processed successfully
	Failures int   // stores (or the listing) that failed
	Rows     int64 // summaries upserted or events marked
}

// Report is the outcome of one run. Err joins every failure of the run.
type Report struct {
	StartedAt time.Time
	Duration  time.Duration
	Stages    []StageReport
	Canceled  bool
	Err       error
}

// Stage returns the report for name, or a zero StageReport if it did not run.
func (r *Report) Stage(name string) StageReport {
	for _, s := range r.Stages {
		if s.Stage == name {
			return s
		}
	}
	return StageReport{Stage: name}
}

// Failed reports whether any store or listing failed.
func (r *Report) Failed() bool {
	for _, s := range r.Stages {
		if s.Failures > 0 {
			return true
		}
	}
	return false
}

func (r *Report) log() {
	stages := zerolog.Dict()
	for _, s := range r.Stages {
		stages = stages.Dict(s.Stage, zerolog.Dict().
			Int("stores", s.Tenants).
			Int("failures", s.Failures).
			Int64("rows", s.Rows))
	}

	ev := logging.Info()
	if r.Failed() || r.Canceled {
		ev = logging.Warn().Err(r.Err)
	}
	ev.Dict("stages", stages).
		Bool("canceled", r.Canceled).
		Dur("duration", r.Duration).
		Msg("Retention run finished")
}
