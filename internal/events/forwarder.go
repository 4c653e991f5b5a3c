// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package events

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/corkboard/internal/logging"
	"github.com/tomtom215/corkboard/internal/metrics"
)

// RoomPublisher delivers an envelope to the members of env.BoardID's room.
// It may block until the envelope is queued and must respect ctx.
type RoomPublisher interface {
	PublishToRoom(ctx context.Context, env Envelope) error
}

// Forwarder moves envelopes from the bus to the realtime hub.
// It implements suture.Service.
type Forwarder struct {
	bus   *Bus
	rooms RoomPublisher
	ready chan struct{}
	once  sync.Once

	received  atomic.Int64
	forwarded atomic.Int64
	dropped   atomic.Int64
}

// NewForwarder creates a forwarder from bus to rooms.
func NewForwarder(bus *Bus, rooms RoomPublisher) *Forwarder {
	return &Forwarder{bus: bus, rooms: rooms, ready: make(chan struct{})}
}

// Ready is closed once the first subscription is in place. Events published
// before that are not delivered.
func (f *Forwarder) Ready() <-chan struct{} { return f.ready }

// Serve subscribes and forwards until ctx is cancelled or the bus closes.
func (f *Forwarder) Serve(ctx context.Context) error {
	msgs, err := f.bus.Subscribe(ctx)
	if err != nil {
		return err
	}
	f.once.Do(func() { close(f.ready) })
	logging.Info().Str("topic", Topic).Msg("Event forwarder started")

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("Event forwarder stopped")
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return errors.New("event subscription closed")
			}
			f.handle(ctx, msg)
		}
	}
}

// handle always acks: a message that cannot be forwarded would fail the same
// way on redelivery.
func (f *Forwarder) handle(ctx context.Context, msg *message.Message) {
	defer msg.Ack()
	f.received.Add(1)

	env, err := Unmarshal(msg.Payload)
	if err != nil {
		f.dropped.Add(1)
		metrics.EventsDropped.WithLabelValues("decode").Inc()
		logging.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping undecodable event")
		return
	}

	if err := f.rooms.PublishToRoom(ctx, env); err != nil {
		f.dropped.Add(1)
		metrics.EventsDropped.WithLabelValues("hub_unavailable").Inc()
		logging.Warn().Err(err).
			Str("event", env.Event).
			Str("board_id", env.BoardID).
			Msg("Realtime hub did not accept event")
		return
	}
	f.forwarded.Add(1)
	metrics.EventsForwarded.Inc()
}

// String implements fmt.Stringer for suture logging.
func (f *Forwarder) String() string { return "event-forwarder" }

// ForwarderStats holds runtime statistics.
type ForwarderStats struct {
	Received  int64
	Forwarded int64
	Dropped   int64
}

// Stats returns current counters.
func (f *Forwarder) Stats() ForwarderStats {
	return ForwarderStats{
		Received:  f.received.Load(),
		Forwarded: f.forwarded.Load(),
		Dropped:   f.dropped.Load(),
	}
}
