// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordStoreOp(t *testing.T) {
	tests := []struct {
		name      string
		backend   string
		operation string
		outcome   string
	}{
		{"badger move ok", "badger", "move_card", "ok"},
		{"badger move conflict", "badger", "move_card", "conflict"},
		{"redis get missing", "redis", "get_card", "not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := StoreOpsTotal.WithLabelValues(tt.backend, tt.operation, tt.outcome)
			before := testutil.ToFloat64(c)

			RecordStoreOp(tt.backend, tt.operation, tt.outcome, 3*time.Millisecond)

			if got := testutil.ToFloat64(c) - before; got != 1 {
				t.Errorf("counter delta = %v, want 1", got)
			}
		})
	}
}

func TestRecordRepair(t *testing.T) {
	before := testutil.ToFloat64(StoreRepairs.WithLabelValues("position"))
	RecordRepair(1, 2, 3, 0)
	if got := testutil.ToFloat64(StoreRepairs.WithLabelValues("position")) - before; got != 3 {
		t.Errorf("position fixes delta = %v, want 3", got)
	}
}

func TestRecordCardMove(t *testing.T) {
	same := CardMovesTotal.WithLabelValues("same_column", "ok")
	cross := CardMovesTotal.WithLabelValues("cross_column", "conflict")
	beforeSame, beforeCross := testutil.ToFloat64(same), testutil.ToFloat64(cross)

	RecordCardMove(true, "ok")
	RecordCardMove(false, "conflict")

	if got := testutil.ToFloat64(same) - beforeSame; got != 1 {
		t.Errorf("same_column delta = %v", got)
	}
	if got := testutil.ToFloat64(cross) - beforeCross; got != 1 {
		t.Errorf("cross_column delta = %v", got)
	}
}

func TestRecordEventPublish(t *testing.T) {
	ok := EventsPublished.WithLabelValues("cardMoved")
	failed := EventPublishFailures.WithLabelValues("cardMoved")
	beforeOK, beforeFailed := testutil.ToFloat64(ok), testutil.ToFloat64(failed)

	RecordEventPublish("cardMoved", nil)
	RecordEventPublish("cardMoved", errors.New("bus closed"))
	RecordEventPublish("cardMoved", nil)

	if got := testutil.ToFloat64(ok) - beforeOK; got != 2 {
		t.Errorf("published delta = %v, want 2", got)
	}
	if got := testutil.ToFloat64(failed) - beforeFailed; got != 1 {
		t.Errorf("failures delta = %v, want 1", got)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	c := APIRequestsTotal.WithLabelValues("POST", "/api/v1/boards/{boardId}/columns/{columnId}/cards/{cardId}/move", "409")
	before := testutil.ToFloat64(c)

	RecordAPIRequest("POST", "/api/v1/boards/{boardId}/columns/{columnId}/cards/{cardId}/move", 409, 12*time.Millisecond)

	if got := testutil.ToFloat64(c) - before; got != 1 {
		t.Errorf("delta = %v, want 1", got)
	}
}

func TestTrackActiveRequestConcurrent(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			TrackActiveRequest(true)
			TrackActiveRequest(false)
		}()
	}
	wg.Wait()

	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("active requests = %v, want %v", got, before)
	}
}

func TestRecordBreakerTransition(t *testing.T) {
	RecordBreakerTransition("export-webhook", "closed", "open", BreakerOpen)
	if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("export-webhook")); got != BreakerOpen {
		t.Errorf("state = %v, want %v", got, BreakerOpen)
	}
	RecordBreakerTransition("export-webhook", "open", "half-open", BreakerHalfOpen)
	if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("export-webhook")); got != BreakerHalfOpen {
		t.Errorf("state = %v, want %v", got, BreakerHalfOpen)
	}
}

func TestRecordExportAndReconcile(t *testing.T) {
	exp := ExportDeliveries.WithLabelValues("webhook", "unavailable")
	rec := ReconcileOutcomes.WithLabelValues("echo")
	beforeExp, beforeRec := testutil.ToFloat64(exp), testutil.ToFloat64(rec)

	RecordExport("webhook", "unavailable", time.Second)
	RecordReconcile("echo")

	if got := testutil.ToFloat64(exp) - beforeExp; got != 1 {
		t.Errorf("export delta = %v", got)
	}
	if got := testutil.ToFloat64(rec) - beforeRec; got != 1 {
		t.Errorf("reconcile delta = %v", got)
	}
}
