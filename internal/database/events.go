// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/akira/internal/logging"
	"github.com/tomtom215/akira/internal/metrics"
	"github.com/tomtom215/akira/internal/models"
)

const eventColumns = `event_id, store_id, user_identifier, event_type, product_id,
	CAST(event_payload AS TEXT), created_at, is_filtered, filter_reason`

// AppendEvent stores ev for tenantID and counts it against the tenant's
// allocation in one transaction. ev.TenantID is overwritten with tenantID.
//
// Returns ErrQuotaExceeded when the allocation is spent, in which case nothing
// is written, and *DuplicateEventError when the id already exists.
func (db *DB) AppendEvent(ctx context.Context, tenantID string, ev *models.Event) (string, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if ev.EventID == "" {
		ev.EventID = models.NewEventID()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = db.clock()
	}
	ev.TenantID = tenantID
	ev.IsFiltered = false
	ev.FilterReason = ""

	unlock := db.lockWrites()
	start := time.Now()
	err := db.retryOnConflict(ctx, func() error {
		return db.appendOnce(ctx, ev)
	})
	unlock()
	metrics.RecordDBQuery("append_event", time.Since(start), err)

	var dup *DuplicateEventError
	switch {
	case err == nil:
		return ev.EventID, nil
	case errors.Is(err, ErrQuotaExceeded), errors.As(err, &dup):
		return "", err
	default:
		if isTransactionConflict(err) {
			logging.Ctx(ctx).Warn().Str("store_id", tenantID).Msg("Append gave up after repeated transaction conflicts")
		}
		return "", storageErr("append event", err)
	}
}

func (db *DB) appendOnce(ctx context.Context, ev *models.Event) (err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var usage int64
	err = tx.QueryRowContext(ctx, `
		UPDATE stores
		SET current_monthly_usage = current_monthly_usage + 1, updated_at = $2
		WHERE id = $1 AND current_monthly_usage < query_allocation
		RETURNING current_monthly_usage`,
		ev.TenantID, ev.CreatedAt,
	).Scan(&usage)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrQuotaExceeded
	}
	if err != nil {
		return fmt.Errorf("increment usage: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO events (event_id, store_id, user_identifier, event_type, product_id,
			event_payload, created_at, is_filtered)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE)`,
		ev.EventID, ev.TenantID, ev.EndUserID, ev.EventType, ev.ProductID,
		string(ev.PayloadOrEmpty()), ev.CreatedAt,
	)
	if isDuplicateKey(err) {
		return &DuplicateEventError{EventID: ev.EventID}
	}
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// RecentUnfiltered returns up to limit unfiltered events for one end-user,
// newest first. Ties on created_at break by event_id descending.
func (db *DB) RecentUnfiltered(ctx context.Context, tenantID, endUserID string, limit int) ([]models.Event, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	events, err := db.queryEvents(ctx, `
		SELECT `+eventColumns+`
		FROM events
		WHERE store_id = $1 AND user_identifier = $2 AND is_filtered = FALSE
		ORDER BY created_at DESC, event_id DESC
		LIMIT $3`,
		tenantID, endUserID, limit,
	)
	metrics.RecordDBQuery("recent_unfiltered", time.Since(start), err)
	if err != nil {
		return nil, storageErr("recent unfiltered", err)
	}
	return events, nil
}

// ContextWindow returns the k most recent unfiltered events for one
// end-user, newest first. Reads run after the trigger's append commits, so
// the triggering event is part of its own window.
func (db *DB) ContextWindow(ctx context.Context, tenantID, endUserID string, k int) (models.ContextWindow, error) {
	if k <= 0 {
		return models.ContextWindow{}, nil
	}
	events, err := db.RecentUnfiltered(ctx, tenantID, endUserID, k)
	if err != nil {
		return nil, err
	}
	return models.ContextWindow(events), nil
}

// EventByID returns one event. It returns ErrNotFound when the id is unknown.
func (db *DB) EventByID(ctx context.Context, eventID string) (*models.Event, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	events, err := db.queryEvents(ctx, `SELECT `+eventColumns+` FROM events WHERE event_id = $1`, eventID)
	if err != nil {
		return nil, storageErr("event by id", err)
	}
	if len(events) == 0 {
		return nil, ErrNotFound
	}
	return &events[0], nil
}

// CountEvents returns the number of stored events for a tenant, filtered or not.
func (db *DB) CountEvents(ctx context.Context, tenantID string) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var n int64
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE store_id = $1`, tenantID).Scan(&n); err != nil {
		return 0, storageErr("count events", err)
	}
	return n, nil
}

func (db *DB) queryEvents(ctx context.Context, query string, args ...any) ([]models.Event, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeWithLog(rows, "event rows")

	var events []models.Event
	for rows.Next() {
		var (
			ev      models.Event
			payload sql.NullString
			reason  sql.NullString
		)
		if err := rows.Scan(&ev.EventID, &ev.TenantID, &ev.EndUserID, &ev.EventType, &ev.ProductID,
			&payload, &ev.CreatedAt, &ev.IsFiltered, &reason); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if payload.Valid {
			ev.Payload = json.RawMessage(payload.String)
		}
		ev.FilterReason = reason.String
		ev.CreatedAt = ev.CreatedAt.UTC()
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}
