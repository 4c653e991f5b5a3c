// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package models

import "time"

// Payloads carried by realtime events. Field names match the wire protocol.

// UserPresence announces a user joining or leaving a board room.
type UserPresence struct {
	UserID    string    `json:"userId"`
	BoardID   string    `json:"boardId"`
	Timestamp time.Time `json:"timestamp"`
}

// CardCreated carries a newly added card.
type CardCreated struct {
	Card      Card      `json:"card"`
	BoardID   string    `json:"boardId"`
	Timestamp time.Time `json:"timestamp"`
}

// CardUpdated carries a card after a title or description edit.
type CardUpdated struct {
	Card      Card      `json:"card"`
	BoardID   string    `json:"boardId"`
	Timestamp time.Time `json:"timestamp"`
}

// CardMoved carries a card at its new position and both columns involved.
type CardMoved struct {
	Card                Card      `json:"card"`
	SourceColumnID      string    `json:"sourceColumnId"`
	DestinationColumnID string    `json:"destinationColumnId"`
	BoardID             string    `json:"boardId"`
	Timestamp           time.Time `json:"timestamp"`
}

// CardDeleted keeps the original {id} shape; ColumnID lets clients drop the
// card without searching every column.
type CardDeleted struct {
	ID       string `json:"id"`
	ColumnID string `json:"columnId,omitempty"`
}

// ColumnChanged carries a column in its new state.
type ColumnChanged struct {
	Column    Column    `json:"column"`
	BoardID   string    `json:"boardId"`
	Timestamp time.Time `json:"timestamp"`
}

// ColumnDeleted names a removed column; its cards went with it.
type ColumnDeleted struct {
	ID      string `json:"id"`
	BoardID string `json:"boardId"`
}

// BoardChanged carries a board after an update.
type BoardChanged struct {
	Board     Board     `json:"board"`
	Timestamp time.Time `json:"timestamp"`
}

// BoardDeleted names a removed board.
type BoardDeleted struct {
	ID string `json:"id"`
}

// EntityID identifies the entity an event is about. Clients combine it with
// the event name and timestamp to recognise redelivered events.
func (e UserPresence) EntityID() string  { return e.UserID }
func (e CardCreated) EntityID() string   { return e.Card.ID }
func (e CardUpdated) EntityID() string   { return e.Card.ID }
func (e CardMoved) EntityID() string     { return e.Card.ID }
func (e CardDeleted) EntityID() string   { return e.ID }
func (e ColumnChanged) EntityID() string { return e.Column.ID }
func (e ColumnDeleted) EntityID() string { return e.ID }
func (e BoardChanged) EntityID() string  { return e.Board.ID }
func (e BoardDeleted) EntityID() string  { return e.ID }
