// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package services

import (
	"context"
	"errors"
)

// EventSource is satisfied by *events.Forwarder.
type EventSource interface {
	Serve(ctx context.Context) error
}

// EventForwarderService supervises the bus-to-hub forwarder. A closed
// subscription is returned as an error so the forwarder re-subscribes.
type EventForwarderService struct {
	source EventSource
}

func NewEventForwarderService(source EventSource) *EventForwarderService {
	return &EventForwarderService{source: source}
}

// Serve implements suture.Service.
func (e *EventForwarderService) Serve(ctx context.Context) error {
	err := e.source.Serve(ctx)
	if err == nil && ctx.Err() == nil {
		return errors.New("event forwarder returned without error")
	}
	return err
}

func (e *EventForwarderService) String() string { return "event-forwarder" }
