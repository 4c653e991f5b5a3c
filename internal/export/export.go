// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

// Package export flattens a board into rows and hands them to downstream
// consumers: a webhook-driven automation endpoint and, optionally, an
// S3-compatible archive bucket.
//
// Export never mutates board data. Delivery failures are reported in the
// Result rather than returned as errors, so a broken downstream cannot
// affect board operations.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/tomtom215/corkboard/internal/models"
)

// Row is one card in export form.
type Row struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Column      string    `json:"column"`
	CreatedAt   time.Time `json:"createdAt"`
	Position    int       `json:"position"`
}

// Document is the body of GET /boards/{boardId}/export.
type Document struct {
	BoardID    string    `json:"boardId"`
	BoardTitle string    `json:"boardTitle"`
	TotalCards int       `json:"totalCards"`
	Data       []Row     `json:"data"`
	ExportedAt time.Time `json:"exportedAt"`
}

// Flatten lists every card of tree in column order, then card order.
func Flatten(tree models.BoardTree) []Row {
	rows := make([]Row, 0, tree.CardCount())
	for _, col := range tree.Columns {
		for _, card := range col.Cards {
			rows = append(rows, Row{
				ID:          card.ID,
				Title:       card.Title,
				Description: card.Description,
				Column:      col.Title,
				CreatedAt:   card.CreatedAt,
				Position:    card.Position,
			})
		}
	}
	return rows
}

// NewDocument builds the export document for tree.
func NewDocument(tree models.BoardTree, exportedAt time.Time) Document {
	rows := Flatten(tree)
	return Document{
		BoardID:    tree.ID,
		BoardTitle: tree.Title,
		TotalCards: len(rows),
		Data:       rows,
		ExportedAt: exportedAt.UTC(),
	}
}

var csvHeader = []string{"id", "title", "description", "column", "createdAt", "position"}

// WriteCSV writes rows with a header line.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.ID,
			r.Title,
			r.Description,
			r.Column,
			r.CreatedAt.UTC().Format(time.RFC3339),
			strconv.Itoa(r.Position),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
