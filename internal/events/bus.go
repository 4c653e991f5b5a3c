// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package events

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/tomtom215/corkboard/internal/logging"
	"github.com/tomtom215/corkboard/internal/metrics"
)

// Topic carries every board event. Room routing happens in the hub.
const Topic = "board.events"

// Metadata keys set on each bus message.
const (
	MetadataBoardID = "board_id"
	MetadataEvent   = "event"
)

// ErrBusClosed is returned by Publish after Close.
var ErrBusClosed = errors.New("event bus closed")

// BusConfig configures the in-process bus.
type BusConfig struct {
	// OutputBuffer is the per-subscriber channel size.
	// Default: 256
	OutputBuffer int64
}

// DefaultBusConfig returns production defaults.
func DefaultBusConfig() BusConfig {
	return BusConfig{OutputBuffer: 256}
}

// Bus is a single-process publish/subscribe channel for board events.
type Bus struct {
	pubsub *gochannel.GoChannel
	closed atomic.Bool
}

// NewBus creates a bus. Publish blocks until every subscriber has acked the
// message, which keeps delivery order equal to publish order.
func NewBus(cfg BusConfig) *Bus {
	if cfg.OutputBuffer <= 0 {
		cfg.OutputBuffer = DefaultBusConfig().OutputBuffer
	}
	logger := watermill.NewSlogLogger(logging.NewComponentSlogLogger("event-bus"))
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer:            cfg.OutputBuffer,
			BlockPublishUntilSubscriberAck: true,
		}, logger),
	}
}

// Publish wraps payload in an Envelope and sends it on Topic.
func (b *Bus) Publish(ctx context.Context, boardID, event string, payload any) error {
	env, err := NewEnvelope(boardID, event, payload)
	if err != nil {
		metrics.RecordEventPublish(event, err)
		return err
	}
	err = b.PublishEnvelope(ctx, env)
	metrics.RecordEventPublish(event, err)
	return err
}

// PublishEnvelope sends a pre-built envelope.
func (b *Bus) PublishEnvelope(ctx context.Context, env Envelope) error {
	if b.closed.Load() {
		return ErrBusClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := env.Marshal()
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	msg := message.NewMessage(env.ID, data)
	msg.Metadata.Set(MetadataBoardID, env.BoardID)
	msg.Metadata.Set(MetadataEvent, env.Event)
	msg.SetContext(ctx)

	if err := b.pubsub.Publish(Topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", env.Event, err)
	}
	return nil
}

// Subscribe returns the message stream for Topic. It closes when ctx ends or
// the bus is closed.
func (b *Bus) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	if b.closed.Load() {
		return nil, ErrBusClosed
	}
	return b.pubsub.Subscribe(ctx, Topic)
}

// Close stops the bus and closes every subscription.
func (b *Bus) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	return b.pubsub.Close()
}
