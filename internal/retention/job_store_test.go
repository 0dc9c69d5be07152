// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

package retention

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/akira/internal/config"
	"github.com/tomtom215/akira/internal/database"
	"github.com/tomtom215/akira/internal/models"
)

func setupStore(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(&config.DatabaseConfig{
		Driver:       config.DriverDuckDB,
		Path:         ":memory:",
		MaxMemory:    "1GB",
		MaxOpenConns: 4,
	})
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestJob_RunAgainstEventStore(t *testing.T) {
	db := setupStore(t)
	ctx := context.Background()

	tenant := &models.Tenant{StoreName: "Retention Store", Platform: "custom", QueryAllocation: 1000}
	if err := db.CreateTenant(ctx, tenant); err != nil {
		t.Fatalf("CreateTenant() error = %v", err)
	}

	add := func(user, eventType string, at time.Time, payload string) string {
		t.Helper()
		ev := &models.Event{EndUserID: user, EventType: eventType, CreatedAt: at}
		if payload != "" {
			ev.Payload = json.RawMessage(payload)
		}
		id, err := db.AppendEvent(ctx, tenant.ID, ev)
		if err != nil {
			t.Fatalf("AppendEvent() error = %v", err)
		}
		return id
	}

	old := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	var oldIDs []string
	for i := 0; i < 12; i++ {
		oldIDs = append(oldIDs, add("u_old", models.EventTypePageView, old.Add(time.Duration(i)*time.Minute), ""))
	}

	shortChat := add("u_chat", models.EventTypeChatInitiated, runTime.Add(-6*time.Hour), `{"duration_seconds": 12}`)
	convertedChat := add("u_buyer", models.EventTypeChatInitiated, runTime.Add(-6*time.Hour), `{"duration_seconds": 8}`)
	add("u_buyer", models.EventTypePurchase, runTime.Add(-5*time.Hour), "")
	longChat := add("u_chat", models.EventTypeChatInitiated, runTime.Add(-7*time.Hour), `{"duration_seconds": 300}`)
	openChat := add("u_late", models.EventTypeChatInitiated, runTime.Add(-time.Hour), `{"duration_seconds": 5}`)

	job := NewJob(db, &config.RetentionConfig{})
	job.now = func() time.Time { return runTime }

	report := job.Run(ctx)
	if report.Err != nil {
		t.Fatalf("Run() err = %v", report.Err)
	}
	if got := report.Stage(StageSummarize).Rows; got != 1 {
		t.Errorf("summaries upserted = %d, want 1", got)
	}
	if got := report.Stage(StageFilterAged).Rows; got != 12 {
		t.Errorf("aged events marked = %d, want 12", got)
	}
	if got := report.Stage(StageFilterTrashChat).Rows; got != 1 {
		t.Errorf("trash chats marked = %d, want 1", got)
	}

	wantFiltered := map[string]string{
		oldIDs[0]:     models.FilterReasonAged,
		shortChat:     models.FilterReasonTrashChat,
		convertedChat: "",
		longChat:      "",
		openChat:      "",
	}
	for id, reason := range wantFiltered {
		ev, err := db.EventByID(ctx, id)
		if err != nil {
			t.Fatalf("EventByID(%s) error = %v", id, err)
		}
		if ev.IsFiltered != (reason != "") || ev.FilterReason != reason {
			t.Errorf("%s filtered=%v reason=%q, want reason %q", id, ev.IsFiltered, ev.FilterReason, reason)
		}
	}

	summaries, err := db.Summaries(ctx, tenant.ID)
	if err != nil {
		t.Fatalf("Summaries() error = %v", err)
	}
	if len(summaries) != 1 || summaries[0].EventCount != 12 || summaries[0].Period != "2026-01" {
		t.Errorf("summaries = %+v", summaries)
	}

	// A second run changes nothing.
	again := job.Run(ctx)
	if again.Err != nil {
		t.Fatalf("second Run() err = %v", again.Err)
	}
	for _, name := range []string{StageFilterAged, StageFilterTrashChat} {
		if got := again.Stage(name).Rows; got != 0 {
			t.Errorf("second run %s rows = %d, want 0", name, got)
		}
	}
}
