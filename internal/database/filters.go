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

// FilterPredicate selects events to retire from the context window.
// Implementations live in this package.
type FilterPredicate interface {
	stage() string
	statement(d dialect) (query string, args []any)
}

// AgedFilter marks every unfiltered event of a tenant older than Cutoff.
type AgedFilter struct {
	TenantID string
	Cutoff   time.Time
}

func (AgedFilter) stage() string { return models.FilterReasonAged }

func (f AgedFilter) statement(dialect) (string, []any) {
	return `
		UPDATE events
		SET is_filtered = TRUE, filter_reason = '` + models.FilterReasonAged + `'
		WHERE store_id = $1 AND created_at < $2 AND is_filtered = FALSE`,
		[]any{f.TenantID, f.Cutoff}
}

// TrashChatFilter marks short chat sessions with no purchase by the same
// end-user inside FollowOnWindow. Only chats created before Before are
// considered, so a chat whose window is still open is left alone.
type TrashChatFilter struct {
	TenantID       string
	MaxDuration    time.Duration
	FollowOnWindow time.Duration
	Before         time.Time
}

func (TrashChatFilter) stage() string { return models.FilterReasonTrashChat }

func (f TrashChatFilter) statement(d dialect) (string, []any) {
	duration := d.numericOrNull("event_payload->>'" + models.ChatDurationField + "'")
	query := fmt.Sprintf(`
		UPDATE events
		SET is_filtered = TRUE, filter_reason = '%s'
		WHERE store_id = $1
			AND event_type = '%s'
			AND is_filtered = FALSE
			AND created_at < $2
			AND %s < $3
			AND NOT EXISTS (
				SELECT 1 FROM events p
				WHERE p.store_id = events.store_id
					AND p.user_identifier = events.user_identifier
					AND p.event_type = '%s'
					AND p.created_at >= events.created_at
					AND p.created_at <= events.created_at + INTERVAL '%d seconds'
			)`,
		models.FilterReasonTrashChat, models.EventTypeChatInitiated, duration,
		models.EventTypePurchase, int64(f.FollowOnWindow/time.Second))
	return query, []any{f.TenantID, f.Before, f.MaxDuration.Seconds()}
}

// numericOrNull casts a text expression to a float, yielding NULL for values
// that are not numbers. A malformed payload never fails the statement.
func (d dialect) numericOrNull(expr string) string {
	if d == dialectPostgres {
		return "(CASE WHEN (" + expr + `) ~ '^-?[0-9]+(\.[0-9]+)?$' THEN CAST(` + expr + " AS FLOAT8) END)"
	}
	return "TRY_CAST(" + expr + " AS DOUBLE)"
}

// MarkFiltered applies p and returns the number of events newly marked.
// Already-filtered events are never touched, so repeated runs return 0.
func (db *DB) MarkFiltered(ctx context.Context, p FilterPredicate) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query, args := p.statement(db.dialect)
	op := "mark_filtered_" + p.stage()

	var n int64
	unlock := db.lockWrites()
	start := time.Now()
	err := db.retryOnConflict(ctx, func() error {
		res, err := db.conn.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	unlock()
	metrics.RecordDBQuery(op, time.Since(start), err)
	if err != nil {
		return 0, storageErr(op, err)
	}
	return n, nil
}

// TenantsWithAgedEvents lists tenants holding unfiltered events older than cutoff.
func (db *DB) TenantsWithAgedEvents(ctx context.Context, cutoff time.Time) ([]string, error) {
	return db.queryIDs(ctx, "tenants_with_aged_events", `
		SELECT DISTINCT store_id FROM events
		WHERE created_at < $1 AND is_filtered = FALSE
		ORDER BY store_id`, cutoff)
}

// TenantsWithChatCandidates lists tenants holding unfiltered chat events created before before.
func (db *DB) TenantsWithChatCandidates(ctx context.Context, before time.Time) ([]string, error) {
	return db.queryIDs(ctx, "tenants_with_chat_candidates", `
		SELECT DISTINCT store_id FROM events
		WHERE event_type = $1 AND created_at < $2 AND is_filtered = FALSE
		ORDER BY store_id`, models.EventTypeChatInitiated, before)
}

// TenantsWithSummarizableEvents lists tenants with events older than cutoff
// that are either unfiltered or were retired by age.
func (db *DB) TenantsWithSummarizableEvents(ctx context.Context, cutoff time.Time) ([]string, error) {
	return db.queryIDs(ctx, "tenants_with_summarizable_events", `
		SELECT DISTINCT store_id FROM events
		WHERE created_at < $1 AND (is_filtered = FALSE OR filter_reason = $2)
		ORDER BY store_id`, cutoff, models.FilterReasonAged)
}
