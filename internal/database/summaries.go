// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/akira/internal/metrics"
	"github.com/tomtom215/akira/internal/models"
)

// SummarizeTenant rolls a tenant's events older than cutoff into monthly
// per-user, per-type counts and upserts the groups whose count exceeds
// threshold. Groups made only of already-retired events are skipped. Counts
// are replaced, not added, so running twice yields the same rows.
//
// Returns the number of summary rows written.
func (db *DB) SummarizeTenant(ctx context.Context, tenantID string, cutoff time.Time, threshold int) (int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	groups, err := db.summaryGroups(ctx, tenantID, cutoff, threshold)
	if err != nil {
		metrics.RecordDBQuery("summarize_tenant", time.Since(start), err)
		return 0, storageErr("summarize tenant", err)
	}
	if len(groups) == 0 {
		metrics.RecordDBQuery("summarize_tenant", time.Since(start), nil)
		return 0, nil
	}

	unlock := db.lockWrites()
	err = db.retryOnConflict(ctx, func() error {
		return db.upsertSummaries(ctx, groups)
	})
	unlock()
	metrics.RecordDBQuery("summarize_tenant", time.Since(start), err)
	if err != nil {
		return 0, storageErr("summarize tenant", err)
	}
	return len(groups), nil
}

func (db *DB) summaryGroups(ctx context.Context, tenantID string, cutoff time.Time, threshold int) ([]models.UsageSummary, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT user_identifier, event_type, date_trunc('month', created_at) AS period,
			COUNT(*), MIN(created_at), MAX(created_at)
		FROM events
		WHERE store_id = $1
			AND created_at < $2
			AND (is_filtered = FALSE OR filter_reason = $3)
		GROUP BY user_identifier, event_type, date_trunc('month', created_at)
		HAVING COUNT(*) > $4 AND bool_or(NOT is_filtered)
		ORDER BY user_identifier, event_type, period`,
		tenantID, cutoff, models.FilterReasonAged, threshold,
	)
	if err != nil {
		return nil, err
	}
	defer closeWithLog(rows, "summary rows")

	now := db.clock()
	var groups []models.UsageSummary
	for rows.Next() {
		var (
			s      models.UsageSummary
			period time.Time
		)
		if err := rows.Scan(&s.EndUserID, &s.EventType, &period, &s.EventCount, &s.FirstSeen, &s.LastSeen); err != nil {
			return nil, fmt.Errorf("scan summary group: %w", err)
		}
		s.TenantID = tenantID
		s.Period = period.UTC().Format(models.SummaryPeriodLayout)
		s.FirstSeen = s.FirstSeen.UTC()
		s.LastSeen = s.LastSeen.UTC()
		s.UpdatedAt = now
		groups = append(groups, s)
	}
	return groups, rows.Err()
}

func (db *DB) upsertSummaries(ctx context.Context, groups []models.UsageSummary) (err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO user_behavior_summary
			(store_id, user_identifier, event_type, period, event_count, first_seen, last_seen, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (store_id, user_identifier, event_type, period) DO UPDATE SET
			event_count = EXCLUDED.event_count,
			first_seen = EXCLUDED.first_seen,
			last_seen = EXCLUDED.last_seen,
			updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer closeQuietly(stmt)

	for i := range groups {
		g := &groups[i]
		if _, err = stmt.ExecContext(ctx, g.TenantID, g.EndUserID, g.EventType, g.Period,
			g.EventCount, g.FirstSeen, g.LastSeen, g.UpdatedAt); err != nil {
			return fmt.Errorf("upsert summary %s/%s/%s: %w", g.EndUserID, g.EventType, g.Period, err)
		}
	}
	return tx.Commit()
}

// Summaries returns a tenant's summary rows ordered by user, type and period.
func (db *DB) Summaries(ctx context.Context, tenantID string) ([]models.UsageSummary, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT store_id, user_identifier, event_type, period, event_count, first_seen, last_seen, updated_at
		FROM user_behavior_summary
		WHERE store_id = $1
		ORDER BY user_identifier, event_type, period`, tenantID)
	if err != nil {
		return nil, storageErr("summaries", err)
	}
	defer closeWithLog(rows, "summary rows")

	var out []models.UsageSummary
	for rows.Next() {
		var s models.UsageSummary
		if err := rows.Scan(&s.TenantID, &s.EndUserID, &s.EventType, &s.Period, &s.EventCount,
			&s.FirstSeen, &s.LastSeen, &s.UpdatedAt); err != nil {
			return nil, storageErr("summaries", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("summaries", err)
	}
	return out, nil
}
