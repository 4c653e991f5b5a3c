// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package websocket

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/corkboard/internal/events"
	"github.com/tomtom215/corkboard/internal/logging"
	"github.com/tomtom215/corkboard/internal/metrics"
	"github.com/tomtom215/corkboard/internal/models"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled indicates the parent context was canceled.
	// This is the normal graceful shutdown path (e.g., SIGTERM).
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline indicates the context deadline was exceeded.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types a client may send.
const (
	MessageTypeJoinBoard  = "joinBoard"
	MessageTypeLeaveBoard = "leaveBoard"
	MessageTypePing       = "ping"
	MessageTypePong       = "pong"
	MessageTypeError      = "error"
)

// ErrHubStopped is returned by PublishToRoom once the hub loop has exited.
var ErrHubStopped = errors.New("websocket hub stopped")

// Options tunes per-connection buffering and inbound throttling.
type Options struct {
	// SendBuffer is the number of outbound frames queued per client before
	// the client is considered too slow and dropped.
	SendBuffer int

	// MessagesPerSecond and Burst limit inbound client messages.
	MessagesPerSecond float64
	Burst             int

	// PublishBuffer is the depth of the hub's FIFO publish queue.
	PublishBuffer int
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		SendBuffer:        256,
		MessagesPerSecond: 10,
		Burst:             20,
		PublishBuffer:     256,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.SendBuffer <= 0 {
		o.SendBuffer = d.SendBuffer
	}
	if o.MessagesPerSecond <= 0 {
		o.MessagesPerSecond = d.MessagesPerSecond
	}
	if o.Burst <= 0 {
		o.Burst = d.Burst
	}
	if o.PublishBuffer <= 0 {
		o.PublishBuffer = d.PublishBuffer
	}
	return o
}

type membership struct {
	client  *Client
	boardID string
}

// Hub maintains connected clients and the board room registry.
//
// The registry is only mutated on the hub goroutine. Subscribe, unsubscribe,
// register and unregister all arrive as channel sends, so a client's room
// membership can never be read-modified-written from a request handler.
type Hub struct {
	// Register and Unregister carry client lifecycle events.
	Register   chan *Client
	Unregister chan *Client

	subscribe   chan membership
	unsubscribe chan membership
	publish     chan events.Envelope

	mu      sync.RWMutex
	clients map[*Client]bool
	rooms   map[string]map[*Client]bool

	opts     Options
	now      func() time.Time
	done     chan struct{}
	stopOnce sync.Once
}

// NewHub creates a hub. Call RunWithContext to start it.
func NewHub(opts Options) *Hub {
	opts = opts.withDefaults()
	return &Hub{
		Register:    make(chan *Client),
		Unregister:  make(chan *Client),
		subscribe:   make(chan membership),
		unsubscribe: make(chan membership),
		publish:     make(chan events.Envelope, opts.PublishBuffer),
		clients:     make(map[*Client]bool),
		rooms:       make(map[string]map[*Client]bool),
		opts:        opts,
		now:         time.Now,
		done:        make(chan struct{}),
	}
}

func (h *Hub) limiter() *rate.Limiter {
	return rate.NewLimiter(rate.Limit(h.opts.MessagesPerSecond), h.opts.Burst)
}

// Subscribe moves c into boardID's room. It blocks until the hub accepts
// the request or ctx ends.
func (h *Hub) Subscribe(ctx context.Context, c *Client, boardID string) error {
	return h.send(ctx, h.subscribe, membership{client: c, boardID: boardID})
}

// Unsubscribe removes c from boardID's room. It is a no-op when c is in a
// different room.
func (h *Hub) Unsubscribe(ctx context.Context, c *Client, boardID string) error {
	return h.send(ctx, h.unsubscribe, membership{client: c, boardID: boardID})
}

func (h *Hub) send(ctx context.Context, ch chan membership, m membership) error {
	select {
	case ch <- m:
		return nil
	case <-h.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishToRoom queues env for delivery to env.BoardID's room. Envelopes
// are delivered in the order they were queued.
func (h *Hub) PublishToRoom(ctx context.Context, env events.Envelope) error {
	select {
	case <-h.done:
		return ErrHubStopped
	default:
	}
	select {
	case h.publish <- env:
		return nil
	case <-h.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunWithContext starts the hub's main loop and returns when ctx is done.
//
// Channel selection is prioritized:
//   - Priority 1: Context cancellation (shutdown)
//   - Priority 2: Client lifecycle and room membership
//   - Priority 3: Room publishes
func (h *Hub) RunWithContext(ctx context.Context) error {
	defer h.stopOnce.Do(func() { close(h.done) })

	for {
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case c := <-h.Register:
			h.register(c)
			continue
		case c := <-h.Unregister:
			h.unregister(c)
			continue
		case m := <-h.subscribe:
			h.join(m.client, m.boardID)
			continue
		case m := <-h.unsubscribe:
			h.leaveIf(m.client, m.boardID)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		case c := <-h.Register:
			h.register(c)
		case c := <-h.Unregister:
			h.unregister(c)
		case m := <-h.subscribe:
			h.join(m.client, m.boardID)
		case m := <-h.unsubscribe:
			h.leaveIf(m.client, m.boardID)
		case env := <-h.publish:
			h.deliver(env)
		}
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(total))
	logging.Debug().Str("user_id", c.userID).Int("total_clients", total).Msg("websocket client connected")
}

func (h *Hub) unregister(c *Client) {
	h.mu.RLock()
	_, ok := h.clients[c]
	h.mu.RUnlock()
	if !ok {
		return
	}
	h.evict(c)
	logging.Debug().Str("user_id", c.userID).Int("total_clients", h.ClientCount()).Msg("websocket client disconnected")
}

// join leaves c's current room, if any, then enters boardID's room and
// tells the other members.
func (h *Hub) join(c *Client, boardID string) {
	h.mu.RLock()
	_, ok := h.clients[c]
	h.mu.RUnlock()
	if !ok || boardID == "" || c.board == boardID {
		return
	}
	if c.board != "" {
		h.leave(c)
	}

	h.mu.Lock()
	room, exists := h.rooms[boardID]
	if !exists {
		room = make(map[*Client]bool)
		h.rooms[boardID] = room
	}
	room[c] = true
	c.board = boardID
	rooms := len(h.rooms)
	h.mu.Unlock()
	metrics.WSRooms.Set(float64(rooms))

	h.presence(boardID, events.UserJoined, c)
}

// leaveIf removes c from boardID's room when that is the room c is in.
func (h *Hub) leaveIf(c *Client, boardID string) {
	if c.board == "" || c.board != boardID {
		return
	}
	h.leave(c)
}

// leave removes c from its current room and emits userLeft to the rest.
func (h *Hub) leave(c *Client) {
	boardID := h.detach(c)
	if boardID != "" {
		h.presence(boardID, events.UserLeft, c)
	}
}

// detach removes c from its room without any notification and returns the
// board it was in.
func (h *Hub) detach(c *Client) string {
	boardID := c.board
	if boardID == "" {
		return ""
	}
	h.mu.Lock()
	if room, ok := h.rooms[boardID]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, boardID)
		}
	}
	c.board = ""
	rooms := len(h.rooms)
	h.mu.Unlock()
	metrics.WSRooms.Set(float64(rooms))
	return boardID
}

// evict disconnects c. Its room hears userLeft; any member dropped while
// hearing it is evicted in turn.
func (h *Hub) evict(c *Client) {
	pending := []*Client{c}
	for len(pending) > 0 {
		next := pending[0]
		pending = pending[1:]

		h.mu.Lock()
		if _, ok := h.clients[next]; !ok {
			h.mu.Unlock()
			continue
		}
		delete(h.clients, next)
		total := len(h.clients)
		h.mu.Unlock()
		close(next.send)
		metrics.WSConnections.Set(float64(total))

		boardID := h.detach(next)
		if boardID == "" {
			continue
		}
		env, err := h.presenceEnvelope(boardID, events.UserLeft, next)
		if err != nil {
			continue
		}
		pending = append(pending, h.fanout(env, nil)...)
	}
}

func (h *Hub) presence(boardID, event string, subject *Client) {
	env, err := h.presenceEnvelope(boardID, event, subject)
	if err != nil {
		logging.Error().Err(err).Str("event", event).Msg("failed to build presence event")
		return
	}
	for _, slow := range h.fanout(env, subject) {
		h.evict(slow)
	}
}

func (h *Hub) presenceEnvelope(boardID, event string, subject *Client) (events.Envelope, error) {
	return events.NewEnvelope(boardID, event, models.UserPresence{
		UserID:    subject.userID,
		BoardID:   boardID,
		Timestamp: h.now().UTC(),
	})
}

func (h *Hub) deliver(env events.Envelope) {
	for _, slow := range h.fanout(env, nil) {
		h.evict(slow)
	}
}

// fanout writes env to every member of its room except skip, and returns
// the members whose send buffer was full. Those members have not been
// removed yet.
func (h *Hub) fanout(env events.Envelope, skip *Client) []*Client {
	frame, err := env.Marshal()
	if err != nil {
		metrics.WSErrors.WithLabelValues("marshal").Inc()
		logging.Error().Err(err).Str("event", env.Event).Msg("failed to marshal envelope")
		return nil
	}

	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[env.BoardID]))
	for c := range h.rooms[env.BoardID] {
		if c != skip {
			members = append(members, c)
		}
	}
	h.mu.RUnlock()

	// Deterministic delivery order.
	sort.Slice(members, func(i, j int) bool { return members[i].id < members[j].id })

	var slow []*Client
	for _, c := range members {
		select {
		case c.send <- frame:
			metrics.WSMessagesSent.WithLabelValues(env.Event).Inc()
		default:
			metrics.WSMessagesDropped.WithLabelValues("buffer_full").Inc()
			logging.Warn().
				Str("user_id", c.userID).
				Str("board_id", env.BoardID).
				Msg("websocket client send buffer full, dropping client")
			slow = append(slow, c)
		}
	}
	return slow
}

// logGracefulShutdown closes all clients and logs why the hub stopped.
// ctx.Err() is not logged as an error since cancellation is the normal
// shutdown path.
func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.ClientCount()
	h.closeAllClients()

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ShutdownReasonContextDeadline
	}
	return ShutdownReasonContextCanceled
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		c.board = ""
	}
	h.clients = make(map[*Client]bool)
	h.rooms = make(map[string]map[*Client]bool)
	metrics.WSConnections.Set(0)
	metrics.WSRooms.Set(0)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomCount returns the number of boards with at least one subscriber.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// RoomSize returns the number of clients subscribed to boardID.
func (h *Hub) RoomSize(boardID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[boardID])
}
