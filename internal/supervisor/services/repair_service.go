// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/corkboard/internal/logging"
	"github.com/tomtom215/corkboard/internal/store"
)

// Repairer is satisfied by *board.Service.
type Repairer interface {
	Repair(ctx context.Context) (store.RepairReport, error)
}

// RepairService rebuilds derived indexes from parent pointers. It runs
// once at startup; with a positive interval it keeps running on a ticker.
type RepairService struct {
	repairer Repairer
	interval time.Duration
}

// NewRepairService creates the service. interval <= 0 means startup only.
func NewRepairService(repairer Repairer, interval time.Duration) *RepairService {
	return &RepairService{repairer: repairer, interval: interval}
}

// Serve implements suture.Service. A failed pass is returned so the
// supervisor retries with backoff. In startup-only mode a successful pass
// ends the service for good.
func (r *RepairService) Serve(ctx context.Context) error {
	if err := r.runOnce(ctx); err != nil {
		return err
	}
	if r.interval <= 0 {
		return suture.ErrDoNotRestart
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.runOnce(ctx); err != nil {
				return err
			}
		}
	}
}

func (r *RepairService) runOnce(ctx context.Context) error {
	report, err := r.repairer.Repair(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("store repair: %w", err)
	}

	ev := logging.Info()
	if report.Clean() {
		ev = logging.Debug()
	}
	ev.Int("index_added", report.IndexEntriesAdded).
		Int("index_removed", report.IndexEntriesRemoved).
		Int("positions_fixed", report.PositionsFixed).
		Int("orphans_removed", report.OrphansRemoved).
		Dur("duration", report.Duration).
		Msg("Store repair pass finished")
	return nil
}

func (r *RepairService) String() string { return "store-repair" }
