// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

/*
Package events defines the realtime event envelope and the in-process bus that
carries board mutations from the board service to the websocket hub.

Flow:

	board.Service ──Publish──▶ Bus (watermill gochannel, topic board.events)
	                                 │
	                           Forwarder (suture service)
	                                 │
	                    websocket.Hub.PublishToRoom(boardID)

The bus blocks each Publish until the forwarder has acknowledged the message,
and the forwarder acknowledges only after the hub has queued it. Events for a
board therefore reach its room in the order they were published.
*/
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Event names. The first five are the core realtime protocol.
const (
	UserJoined  = "userJoined"
	UserLeft    = "userLeft"
	CardCreated = "cardCreated"
	CardMoved   = "cardMoved"
	CardDeleted = "cardDeleted"

	CardUpdated   = "cardUpdated"
	ColumnCreated = "columnCreated"
	ColumnUpdated = "columnUpdated"
	ColumnMoved   = "columnMoved"
	ColumnDeleted = "columnDeleted"
	BoardUpdated  = "boardUpdated"
	BoardDeleted  = "boardDeleted"
)

// Publisher emits a board-scoped event. Implementations must not block past
// ctx.
type Publisher interface {
	Publish(ctx context.Context, boardID, event string, payload any) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, boardID, event string, payload any) error

func (f PublisherFunc) Publish(ctx context.Context, boardID, event string, payload any) error {
	return f(ctx, boardID, event, payload)
}

// Envelope is both the bus message body and the websocket frame sent to
// clients.
type Envelope struct {
	ID        string          `json:"id"`
	Event     string          `json:"type"`
	BoardID   string          `json:"boardId"`
	EntityID  string          `json:"entityId,omitempty"`
	Payload   json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// entity is implemented by the payload types in package models.
type entity interface {
	EntityID() string
}

// NewEnvelope marshals payload and stamps the envelope with a fresh id and
// the current time.
func NewEnvelope(boardID, event string, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", event, err)
	}
	env := Envelope{
		ID:        uuid.NewString(),
		Event:     event,
		BoardID:   boardID,
		Payload:   data,
		Timestamp: time.Now().UTC(),
	}
	if e, ok := payload.(entity); ok {
		env.EntityID = e.EntityID()
	}
	return env, nil
}

// DedupKey identifies one logical change: event name, affected entity and
// timestamp. A redelivered envelope yields the same key.
func (e Envelope) DedupKey() string {
	id := e.EntityID
	if id == "" {
		id = e.ID
	}
	return e.Event + ":" + id + ":" + e.Timestamp.UTC().Format(time.RFC3339Nano)
}

// Decode unmarshals the payload into v.
func (e Envelope) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Event, err)
	}
	return nil
}

// Marshal encodes the envelope as a websocket frame.
func (e Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Unmarshal parses a frame produced by Marshal.
func Unmarshal(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	return env, nil
}
