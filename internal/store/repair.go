// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package store

import (
	"context"
	"time"

	"github.com/tomtom215/corkboard/internal/models"
	"github.com/tomtom215/corkboard/internal/ordering"
)

// RebuildIndexes recomputes every child index from the parent pointers,
// deletes documents whose parent no longer exists and re-sequences all
// sibling positions. It runs as a single transaction and is idempotent.
func (s *DocumentStore) RebuildIndexes(ctx context.Context) (RepairReport, error) {
	start := time.Now()
	var report RepairReport
	err := s.update(ctx, "rebuild_indexes", func(t txn) error {
		snap, err := t.scan()
		if err != nil {
			return err
		}
		plan := planRepair(snap)
		report = plan.report
		return plan.apply(t)
	})
	report.Duration = time.Since(start)
	return report, err
}

type link struct{ parent, child string }

type repairPlan struct {
	report RepairReport

	deleteColumns []models.Column
	deleteCards   []models.Card
	putColumns    []models.Column
	putCards      []models.Card

	linkCols, unlinkCols   []link
	linkCards, unlinkCards []link
}

// planRepair works only on the snapshot so every read happens before the
// first write.
func planRepair(snap *snapshot) repairPlan {
	var plan repairPlan

	boards := make(map[string]bool, len(snap.boards))
	for _, b := range snap.boards {
		boards[b.ID] = true
	}

	liveCols := make(map[string]bool, len(snap.columns))
	colsByBoard := make(map[string][]models.Column)
	for _, c := range snap.columns {
		if !boards[c.BoardID] {
			plan.deleteColumns = append(plan.deleteColumns, c)
			continue
		}
		liveCols[c.ID] = true
		colsByBoard[c.BoardID] = append(colsByBoard[c.BoardID], c)
	}

	cardsByCol := make(map[string][]models.Card)
	for _, c := range snap.cards {
		if !liveCols[c.ColumnID] {
			plan.deleteCards = append(plan.deleteCards, c)
			continue
		}
		cardsByCol[c.ColumnID] = append(cardsByCol[c.ColumnID], c)
	}
	plan.report.OrphansRemoved = len(plan.deleteColumns) + len(plan.deleteCards)

	for _, cols := range colsByBoard {
		ordering.SortByPosition(cols)
		before := make([]int, len(cols))
		for i, c := range cols {
			before[i] = c.Position
		}
		if ordering.Resequence(cols) > 0 {
			for i, c := range cols {
				if before[i] != c.Position {
					plan.putColumns = append(plan.putColumns, c)
				}
			}
		}
	}
	for _, cards := range cardsByCol {
		ordering.SortByPosition(cards)
		before := make([]int, len(cards))
		for i, c := range cards {
			before[i] = c.Position
		}
		if ordering.Resequence(cards) > 0 {
			for i, c := range cards {
				if before[i] != c.Position {
					plan.putCards = append(plan.putCards, c)
				}
			}
		}
	}
	plan.report.PositionsFixed = len(plan.putColumns) + len(plan.putCards)

	wantCols := make(map[link]bool)
	for boardID, cols := range colsByBoard {
		for _, c := range cols {
			wantCols[link{boardID, c.ID}] = true
		}
	}
	wantCards := make(map[link]bool)
	for colID, cards := range cardsByCol {
		for _, c := range cards {
			wantCards[link{colID, c.ID}] = true
		}
	}

	plan.linkCols, plan.unlinkCols = diffIndex(snap.boardCols, wantCols)
	plan.linkCards, plan.unlinkCards = diffIndex(snap.colCards, wantCards)
	plan.report.IndexEntriesAdded = len(plan.linkCols) + len(plan.linkCards)
	plan.report.IndexEntriesRemoved = len(plan.unlinkCols) + len(plan.unlinkCards)
	return plan
}

func diffIndex(have map[string][]string, want map[link]bool) (add, remove []link) {
	present := make(map[link]bool)
	for parent, children := range have {
		for _, child := range children {
			l := link{parent, child}
			present[l] = true
			if !want[l] {
				remove = append(remove, l)
			}
		}
	}
	for l := range want {
		if !present[l] {
			add = append(add, l)
		}
	}
	return add, remove
}

func (p repairPlan) apply(t txn) error {
	for _, c := range p.deleteCards {
		if err := t.deleteCard(c.ID); err != nil {
			return err
		}
	}
	for _, c := range p.deleteColumns {
		if err := t.deleteColumn(c.ID); err != nil {
			return err
		}
	}
	for _, c := range p.putColumns {
		if err := t.putColumn(c); err != nil {
			return err
		}
	}
	for _, c := range p.putCards {
		if err := t.putCard(c); err != nil {
			return err
		}
	}
	for _, l := range p.unlinkCols {
		if err := t.unlinkColumn(l.parent, l.child); err != nil {
			return err
		}
	}
	for _, l := range p.unlinkCards {
		if err := t.unlinkCard(l.parent, l.child); err != nil {
			return err
		}
	}
	for _, l := range p.linkCols {
		if err := t.linkColumn(l.parent, l.child); err != nil {
			return err
		}
	}
	for _, l := range p.linkCards {
		if err := t.linkCard(l.parent, l.child); err != nil {
			return err
		}
	}
	return nil
}
