// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package websocket

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/tomtom215/corkboard/internal/logging"
	"github.com/tomtom215/corkboard/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

// clientIDCounter orders clients for deterministic fan-out.
var clientIDCounter atomic.Uint64

// Message is a client-to-server frame.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// RoomRequest is the payload of joinBoard and leaveBoard.
type RoomRequest struct {
	BoardID string `json:"boardId"`
}

type replyFrame struct {
	Type string            `json:"type"`
	Data map[string]string `json:"data"`
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	id      uint64
	userID  string
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	direct  chan []byte
	limiter *rate.Limiter

	// board is owned by the hub goroutine.
	board string
}

// NewClient wraps conn. An empty userID gets a generated one.
func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	if userID == "" {
		userID = uuid.NewString()
	}
	return &Client{
		id:      clientIDCounter.Add(1),
		userID:  userID,
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, hub.opts.SendBuffer),
		direct:  make(chan []byte, 16),
		limiter: hub.limiter(),
	}
}

// ID returns the client's ordering identifier.
func (c *Client) ID() uint64 {
	return c.id
}

// UserID returns the identity announced in presence events.
func (c *Client) UserID() string {
	return c.userID
}

// Start registers the client and begins reading and writing.
func (c *Client) Start(ctx context.Context) error {
	select {
	case c.hub.Register <- c:
	case <-c.hub.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	go c.writePump()
	go c.readPump()
	return nil
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.Unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				metrics.WSErrors.WithLabelValues("unexpected_close").Inc()
				logging.Warn().Err(err).Str("user_id", c.userID).Msg("unexpected websocket close")
			}
			return
		}
		if !c.limiter.Allow() {
			metrics.WSMessagesDropped.WithLabelValues("rate_limited").Inc()
			c.reply(MessageTypeError, map[string]string{"message": "rate limit exceeded"})
			continue
		}
		if err := c.handle(data); err != nil {
			return
		}
	}
}

// handle dispatches one inbound frame. A non-nil error ends the connection.
func (c *Client) handle(data []byte) error {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		metrics.WSErrors.WithLabelValues("malformed").Inc()
		c.reply(MessageTypeError, map[string]string{"message": "malformed message"})
		return nil
	}
	metrics.WSMessagesReceived.WithLabelValues(msg.Type).Inc()

	switch msg.Type {
	case MessageTypePing:
		c.reply(MessageTypePong, nil)
		return nil
	case MessageTypeJoinBoard, MessageTypeLeaveBoard:
	default:
		c.reply(MessageTypeError, map[string]string{"message": "unknown message type"})
		return nil
	}

	var req RoomRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil || req.BoardID == "" {
		c.reply(MessageTypeError, map[string]string{"message": "boardId is required"})
		return nil
	}

	ctx := context.Background()
	if msg.Type == MessageTypeJoinBoard {
		return c.hub.Subscribe(ctx, c, req.BoardID)
	}
	return c.hub.Unsubscribe(ctx, c, req.BoardID)
}

// reply queues a frame for this client only. It is dropped when the
// buffer is full. direct is never closed; send belongs to the hub.
func (c *Client) reply(typ string, data map[string]string) {
	frame, err := json.Marshal(replyFrame{Type: typ, Data: data})
	if err != nil {
		return
	}
	select {
	case c.direct <- frame:
	default:
		metrics.WSMessagesDropped.WithLabelValues("buffer_full").Inc()
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}
			if !ok {
				// The hub closed the channel.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				metrics.WSErrors.WithLabelValues("write").Inc()
				return
			}

		case frame := <-c.direct:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				metrics.WSErrors.WithLabelValues("write").Inc()
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline for ping")
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
