// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

package metrics

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

// histogramSamples reads the observation count and sum of one histogram series.
func histogramSamples(t *testing.T, h prometheus.Observer) (uint64, float64) {
	t.Helper()
	m, ok := h.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T is not a metric", h)
	}
	var out dto.Metric
	if err := m.Write(&out); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if out.GetHistogram() == nil {
		t.Fatalf("metric is not a histogram")
	}
	return out.GetHistogram().GetSampleCount(), out.GetHistogram().GetSampleSum()
}

func TestRecordDBQuery(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		err       error
		wantType  string
	}{
		{"success", "test_ok", nil, ""},
		{"timeout", "test_timeout", fmt.Errorf("query: %w", context.DeadlineExceeded), "timeout"},
		{"canceled", "test_canceled", context.Canceled, "canceled"},
		{"generic", "test_generic", errors.New("connection refused"), "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			countBefore, sumBefore := histogramSamples(t, DBQueryDuration.WithLabelValues(tt.operation))
			RecordDBQuery(tt.operation, 5*time.Millisecond, tt.err)
			count, sum := histogramSamples(t, DBQueryDuration.WithLabelValues(tt.operation))
			if count-countBefore != 1 {
				t.Errorf("DBQueryDuration{%s} samples grew by %d, want 1", tt.operation, count-countBefore)
			}
			if d := sum - sumBefore; d < 0.004 || d > 0.006 {
				t.Errorf("DBQueryDuration{%s} sum grew by %v, want 0.005", tt.operation, d)
			}
			if tt.wantType == "" {
				return
			}
			got := testutil.ToFloat64(DBQueryErrors.WithLabelValues(tt.operation, tt.wantType))
			if got != 1 {
				t.Errorf("DBQueryErrors{%s,%s} = %v, want 1", tt.operation, tt.wantType, got)
			}
		})
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/api/v1/events/capture", "202"))
	RecordAPIRequest("POST", "/api/v1/events/capture", "202", 3*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/api/v1/events/capture", "202"))
	if after-before != 1 {
		t.Errorf("APIRequestsTotal delta = %v, want 1", after-before)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("APIActiveRequests = %v, want %v", got, before+1)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("APIActiveRequests = %v, want %v", got, before)
	}
}

func TestRecordDecision_NoneLabel(t *testing.T) {
	before := testutil.ToFloat64(DecisionsTotal.WithLabelValues("none"))
	RecordDecision("")
	if got := testutil.ToFloat64(DecisionsTotal.WithLabelValues("none")); got != before+1 {
		t.Errorf("DecisionsTotal{none} = %v, want %v", got, before+1)
	}
}

func TestRecordTokenCacheLookup(t *testing.T) {
	hits := testutil.ToFloat64(TokenCacheLookups.WithLabelValues("hit"))
	misses := testutil.ToFloat64(TokenCacheLookups.WithLabelValues("miss"))
	RecordTokenCacheLookup(true)
	RecordTokenCacheLookup(false)
	RecordTokenCacheLookup(false)
	if got := testutil.ToFloat64(TokenCacheLookups.WithLabelValues("hit")); got != hits+1 {
		t.Errorf("hits = %v, want %v", got, hits+1)
	}
	if got := testutil.ToFloat64(TokenCacheLookups.WithLabelValues("miss")); got != misses+2 {
		t.Errorf("misses = %v, want %v", got, misses+2)
	}
}

func TestRecordRetentionRows_IgnoresZero(t *testing.T) {
	before := testutil.ToFloat64(RetentionRows.WithLabelValues("filter_aged"))
	RecordRetentionRows("filter_aged", 0)
	RecordRetentionRows("filter_aged", 7)
	if got := testutil.ToFloat64(RetentionRows.WithLabelValues("filter_aged")); got != before+7 {
		t.Errorf("RetentionRows = %v, want %v", got, before+7)
	}
}

func TestRecordBreakerTransition(t *testing.T) {
	RecordBreakerTransition("test-breaker", "closed", "open", 2)
	if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("test-breaker")); got != 2 {
		t.Errorf("CircuitBreakerState = %v, want 2", got)
	}
	if got := testutil.ToFloat64(CircuitBreakerTransitions.WithLabelValues("test-breaker", "closed", "open")); got != 1 {
		t.Errorf("CircuitBreakerTransitions = %v, want 1", got)
	}
}

func TestConcurrentMetricRecording(t *testing.T) {
	before := testutil.ToFloat64(EventsAccepted)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				RecordEventAccepted()
				RecordWSPublish("delivered")
				RecordDispatchDropped("queue_full")
			}
		}()
	}
	wg.Wait()

	if got := testutil.ToFloat64(EventsAccepted) - before; got != 1000 {
		t.Errorf("EventsAccepted delta = %v, want 1000", got)
	}
}

func TestMetricsRegistration(t *testing.T) {
	RecordEventRejected("quota")
	RecordRetentionRun(time.Second)

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"intake_events_rejected_total",
		"retention_run_duration_seconds",
		"retention_last_run_timestamp_seconds",
	} {
		if !names[want] {
			t.Errorf("metric %s not registered", want)
		}
	}
}
