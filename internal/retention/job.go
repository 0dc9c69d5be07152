// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

package retention

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/akira/internal/config"
	"github.com/tomtom215/akira/internal/database"
	"github.com/tomtom215/akira/internal/logging"
	"github.com/tomtom215/akira/internal/metrics"
)

// Stage names, also used as metric labels.
const (
	StageSummarize       = "summarize"
	StageFilterAged      = "filter_aged"
	StageFilterTrashChat = "filter_trash_chat"
)

// Defaults applied to zero config values.
const (
	DefaultRawHorizon           = 90 * 24 * time.Hour
	DefaultMaterialityThreshold = 10
	DefaultChatMinDuration      = 30 * time.Second
	DefaultFollowOnWindow       = 4 * time.Hour
)

// Store is the part of the event store the job writes to.
type Store interface {
	TenantsWithSummarizableEvents(ctx context.Context, cutoff time.Time) ([]string, error)
	SummarizeTenant(ctx context.Context, tenantID string, cutoff time.Time, threshold int) (int, error)
	TenantsWithAgedEvents(ctx context.Context, cutoff time.Time) ([]string, error)
	TenantsWithChatCandidates(ctx context.Context, before time.Time) ([]string, error)
	MarkFiltered(ctx context.Context, p database.FilterPredicate) (int64, error)
}

// Job is one retention pass over every store.
type Job struct {
	store Store

	rawHorizon      time.Duration
	threshold       int
	chatMinDuration time.Duration
	followOnWindow  time.Duration

	now func() time.Time
}

// NewJob returns a Job using the horizons in cfg. Zero values fall back to
// the defaults.
func NewJob(store Store, cfg *config.RetentionConfig) *Job {
	j := &Job{
		store:           store,
		rawHorizon:      DefaultRawHorizon,
		threshold:       DefaultMaterialityThreshold,
		chatMinDuration: DefaultChatMinDuration,
		followOnWindow:  DefaultFollowOnWindow,
		now:             time.Now,
	}
	if cfg != nil {
		if cfg.RawHorizon > 0 {
			j.rawHorizon = cfg.RawHorizon
		}
		if cfg.MaterialityThreshold > 0 {
			j.threshold = cfg.MaterialityThreshold
		}
		if cfg.ChatMinDuration > 0 {
			j.chatMinDuration = cfg.ChatMinDuration
		}
		if cfg.FollowOnWindow > 0 {
			j.followOnWindow = cfg.FollowOnWindow
		}
	}
	return j
}

// stage lists the stores with work and applies the stage to one of them.
type stage struct {
	name  string
	list  func(ctx context.Context) ([]string, error)
	apply func(ctx context.Context, tenantID string) (int64, error)
}

func (j *Job) stages(now time.Time) []stage {
	cutoff := now.Add(-j.rawHorizon)
	chatsBefore := now.Add(-j.followOnWindow)

	return []stage{
		{
			name: StageSummarize,
			list: func(ctx context.Context) ([]string, error) {
				return j.store.TenantsWithSummarizableEvents(ctx, cutoff)
			},
			apply: func(ctx context.Context, tenantID string) (int64, error) {
				n, err := j.store.SummarizeTenant(ctx, tenantID, cutoff, j.threshold)
				return int64(n), err
			},
		},
		{
			name: StageFilterAged,
			list: func(ctx context.Context) ([]string, error) {
				return j.store.TenantsWithAgedEvents(ctx, cutoff)
			},
			apply: func(ctx context.Context, tenantID string) (int64, error) {
				return j.store.MarkFiltered(ctx, database.AgedFilter{TenantID: tenantID, Cutoff: cutoff})
			},
		},
		{
			name: StageFilterTrashChat,
			list: func(ctx context.Context) ([]string, error) {
				return j.store.TenantsWithChatCandidates(ctx, chatsBefore)
			},
			apply: func(ctx context.Context, tenantID string) (int64, error) {
				return j.store.MarkFiltered(ctx, database.TrashChatFilter{
					TenantID:       tenantID,
					MaxDuration:    j.chatMinDuration,
					FollowOnWindow: j.followOnWindow,
					Before:         chatsBefore,
				})
			},
		},
	}
}

// Run executes every stage and returns what happened. It never returns
// early on a store failure; it stops between stores when ctx is done.
func (j *Job) Run(ctx context.Context) *Report {
	start := time.Now()
	now := j.now()
	report := &Report{StartedAt: now}

	var errs []error
	for _, s := range j.stages(now) {
		if err := ctx.Err(); err != nil {
			report.Canceled = true
			errs = append(errs, err)
			break
		}
		sr, err := j.runStage(ctx, s)
		report.Stages = append(report.Stages, sr)
		if err != nil {
			errs = append(errs, err)
		}
		if ctx.Err() != nil {
			report.Canceled = true
			break
		}
	}

	report.Err = errors.Join(errs...)
	report.Duration = time.Since(start)
	metrics.RecordRetentionRun(report.Duration)
	report.log()
	return report
}

func (j *Job) runStage(ctx context.Context, s stage) (StageReport, error) {
	sr := StageReport{Stage: s.name}

	tenants, err := s.list(ctx)
	if err != nil {
		metrics.RecordRetentionError(s.name)
		logging.Error().Err(err).Str("stage", s.name).Msg("Retention stage could not list stores")
		sr.Failures++
		return sr, fmt.Errorf("%s: list stores: %w", s.name, err)
	}

	var errs []error
	for _, tenantID := range tenants {
		if err := ctx.Err(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
			break
		}

		rows, err := s.apply(ctx, tenantID)
		if err != nil {
			sr.Failures++
			metrics.RecordRetentionError(s.name)
			logging.Error().
				Err(err).
				Str("stage", s.name).
				Str("store_id", tenantID).
				Msg("Retention failed for store")
			errs = append(errs, fmt.Errorf("%s %s: %w", s.name, tenantID, err))
			continue
		}
		sr.Tenants++
		sr.Rows += rows
		metrics.RecordRetentionRows(s.name, rows)
	}

	return sr, errors.Join(errs...)
}
