// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package commands

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/tomtom215/corkboard/internal/events"
	"github.com/tomtom215/corkboard/internal/models"
	"github.com/tomtom215/corkboard/internal/printer"
	"github.com/tomtom215/corkboard/internal/reconcile"
	"github.com/tomtom215/corkboard/internal/store"
)

const timeLayout = "2006-01-02 15:04"

func renderBoards(w io.Writer, boards []models.Board) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tUPDATED")
	for _, b := range boards {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", b.ID, b.Title, b.UpdatedAt.Local().Format(timeLayout))
	}
	return tw.Flush()
}

// renderBoard prints columns left to right as blocks, one card per line.
func renderBoard(p *printer.Printer, tree models.BoardTree) {
	p.Heading("%s", tree.Title)
	if tree.Description != "" {
		p.Println(printer.Muted(tree.Description))
	}
	p.Println(printer.Muted(fmt.Sprintf("%s · %d columns · %d cards", tree.ID, len(tree.Columns), tree.CardCount())))

	for _, col := range tree.Columns {
		p.Println("")
		p.Printf("%s %s\n", printer.Emphasis(col.Title), printer.Muted(fmt.Sprintf("(%d) %s", len(col.Cards), col.ID)))
		if len(col.Cards) == 0 {
			p.Println(printer.Muted("  (empty)"))
			continue
		}
		for i, card := range col.Cards {
			p.Printf("  %d. %s %s\n", i+1, card.Title, printer.Muted(card.ID))
		}
	}
}

// describeEvent turns an envelope into a one-line summary. Column titles
// are looked up in tree, the local board after the event was applied.
func describeEvent(env events.Envelope, tree models.BoardTree) string {
	columnTitle := func(id string) string {
		if col := tree.Column(id); col != nil {
			return col.Title
		}
		return id
	}

	switch env.Event {
	case events.CardCreated:
		var p models.CardCreated
		if env.Decode(&p) == nil {
			return fmt.Sprintf("%q added to %s", p.Card.Title, columnTitle(p.Card.ColumnID))
		}
	case events.CardUpdated:
		var p models.CardUpdated
		if env.Decode(&p) == nil {
			return fmt.Sprintf("%q edited", p.Card.Title)
		}
	case events.CardMoved:
		var p models.CardMoved
		if env.Decode(&p) == nil {
			return fmt.Sprintf("%q moved to %s at %d", p.Card.Title, columnTitle(p.Card.ColumnID), p.Card.Position+1)
		}
	case events.ColumnCreated, events.ColumnUpdated, events.ColumnMoved:
		var p models.ColumnChanged
		if env.Decode(&p) == nil {
			return fmt.Sprintf("column %q at %d", p.Column.Title, p.Column.Position+1)
		}
	case events.BoardUpdated:
		var p models.BoardChanged
		if env.Decode(&p) == nil {
			return fmt.Sprintf("board renamed to %q", p.Board.Title)
		}
	case events.UserJoined, events.UserLeft:
		var p models.UserPresence
		if env.Decode(&p) == nil {
			return "user " + p.UserID
		}
	}
	return env.EntityID
}

func renderEvent(p *printer.Printer, env events.Envelope, outcome reconcile.Outcome, tree models.BoardTree) {
	ts := env.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	label := fmt.Sprintf("%-14s", env.Event)
	switch outcome {
	case reconcile.Applied:
		label = printer.Good(label)
	case reconcile.Ignored:
		label = printer.Caution(label)
	default:
		label = printer.Muted(label)
	}
	p.Printf("%s %s %s %s\n",
		printer.Muted(ts.Local().Format("15:04:05")),
		label,
		printer.Muted(fmt.Sprintf("%-9s", outcome)),
		describeEvent(env, tree))
}

func renderRepair(p *printer.Printer, r store.RepairReport) {
	took := r.Duration.Round(time.Millisecond)
	if r.Clean() {
		p.Success("Store is consistent (%s)\n", took)
		return
	}
	p.Warning("Store needed repair (%s)\n", took)
	tw := tabwriter.NewWriter(p.Out(), 0, 0, 1, ' ', 0)
	fmt.Fprintf(tw, "  index entries added:\t%d\n", r.IndexEntriesAdded)
	fmt.Fprintf(tw, "  index entries removed:\t%d\n", r.IndexEntriesRemoved)
	fmt.Fprintf(tw, "  positions fixed:\t%d\n", r.PositionsFixed)
	fmt.Fprintf(tw, "  orphans removed:\t%d\n", r.OrphansRemoved)
	_ = tw.Flush()
}
