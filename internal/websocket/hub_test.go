// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package websocket

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/tomtom215/corkboard/internal/events"
	"github.com/tomtom215/corkboard/internal/logging"
	"github.com/tomtom215/corkboard/internal/models"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "error",
		Format: "console",
		Output: io.Discard,
	})
}

// startHub runs a hub until the test ends.
func startHub(t *testing.T, opts Options) *Hub {
	t.Helper()
	hub := NewHub(opts)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = hub.RunWithContext(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return hub
}

// connect registers a connection-less client; tests read its send channel
// directly.
func connect(t *testing.T, hub *Hub, userID string) *Client {
	t.Helper()
	c := NewClient(hub, nil, userID)
	hub.Register <- c
	return c
}

func join(t *testing.T, hub *Hub, c *Client, boardID string) {
	t.Helper()
	if err := hub.Subscribe(context.Background(), c, boardID); err != nil {
		t.Fatalf("Subscribe(%s): %v", boardID, err)
	}
}

func recv(t *testing.T, c *Client) events.Envelope {
	t.Helper()
	select {
	case frame, ok := <-c.send:
		if !ok {
			t.Fatalf("client %s: send channel closed", c.userID)
		}
		env, err := events.Unmarshal(frame)
		if err != nil {
			t.Fatalf("client %s: bad frame %s: %v", c.userID, frame, err)
		}
		return env
	case <-time.After(2 * time.Second):
		t.Fatalf("client %s: timed out waiting for frame", c.userID)
	}
	return events.Envelope{}
}

func assertQuiet(t *testing.T, c *Client) {
	t.Helper()
	if n := len(c.send); n != 0 {
		t.Errorf("client %s has %d unexpected frames", c.userID, n)
	}
}

func cardMoved(t *testing.T, boardID, cardID string) events.Envelope {
	t.Helper()
	env, err := events.NewEnvelope(boardID, events.CardMoved, models.CardMoved{
		Card:                models.Card{ID: cardID, ColumnID: "colB"},
		SourceColumnID:      "colA",
		DestinationColumnID: "colB",
		BoardID:             boardID,
	})
	if err != nil {
		t.Fatalf("NewEnvelope: %v", err)
	}
	return env
}

// barrier returns once the hub has processed everything sent before it.
func barrier(t *testing.T, hub *Hub) {
	t.Helper()
	probe := connect(t, hub, "barrier")
	hub.Unregister <- probe
}

func TestRoomIsolation(t *testing.T) {
	hub := startHub(t, DefaultOptions())
	c1 := connect(t, hub, "client1")
	c2 := connect(t, hub, "client2")
	join(t, hub, c1, "alpha")
	join(t, hub, c2, "beta")

	if err := hub.PublishToRoom(context.Background(), cardMoved(t, "beta", "c1")); err != nil {
		t.Fatalf("PublishToRoom: %v", err)
	}

	env := recv(t, c2)
	if env.Event != events.CardMoved || env.BoardID != "beta" {
		t.Errorf("client2 got %s for %s", env.Event, env.BoardID)
	}
	assertQuiet(t, c1)
	assertQuiet(t, c2)
}

func TestPresence(t *testing.T) {
	hub := startHub(t, DefaultOptions())
	c1 := connect(t, hub, "u1")
	c2 := connect(t, hub, "u2")

	join(t, hub, c1, "b1")
	join(t, hub, c2, "b1")

	env := recv(t, c1)
	var joined models.UserPresence
	if err := env.Decode(&joined); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if env.Event != events.UserJoined || joined.UserID != "u2" || joined.BoardID != "b1" {
		t.Errorf("c1 got %s %+v", env.Event, joined)
	}

	// Switching board leaves b1 first.
	join(t, hub, c2, "b2")
	env = recv(t, c1)
	if env.Event != events.UserLeft || env.EntityID != "u2" {
		t.Errorf("c1 got %s for %s, want userLeft u2", env.Event, env.EntityID)
	}
	barrier(t, hub)
	assertQuiet(t, c2)

	if hub.RoomCount() != 2 || hub.RoomSize("b1") != 1 || hub.RoomSize("b2") != 1 {
		t.Errorf("rooms = %d, b1 = %d, b2 = %d", hub.RoomCount(), hub.RoomSize("b1"), hub.RoomSize("b2"))
	}

	// Disconnect announces userLeft too.
	join(t, hub, c1, "b2")
	if env := recv(t, c2); env.Event != events.UserJoined || env.EntityID != "u1" {
		t.Errorf("c2 got %s for %s", env.Event, env.EntityID)
	}
	hub.Unregister <- c1
	if env := recv(t, c2); env.Event != events.UserLeft || env.EntityID != "u1" {
		t.Errorf("c2 got %s for %s", env.Event, env.EntityID)
	}
	if _, ok := <-c1.send; ok {
		t.Error("unregistered client still has an open send channel")
	}
	if hub.RoomCount() != 1 || hub.ClientCount() != 1 {
		t.Errorf("rooms = %d, clients = %d", hub.RoomCount(), hub.ClientCount())
	}
}

func TestUnsubscribe(t *testing.T) {
	hub := startHub(t, DefaultOptions())
	c1 := connect(t, hub, "u1")
	c2 := connect(t, hub, "u2")
	join(t, hub, c1, "b1")
	join(t, hub, c2, "b1")
	recv(t, c1) // userJoined u2

	tests := []struct {
		name    string
		boardID string
		left    bool
	}{
		{name: "other board is a no-op", boardID: "b9", left: false},
		{name: "current board", boardID: "b1", left: true},
		{name: "already left", boardID: "b1", left: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := hub.Unsubscribe(context.Background(), c2, tt.boardID); err != nil {
				t.Fatalf("Unsubscribe: %v", err)
			}
			barrier(t, hub)
			if tt.left {
				if env := recv(t, c1); env.Event != events.UserLeft {
					t.Errorf("got %s, want userLeft", env.Event)
				}
			}
			assertQuiet(t, c1)
		})
	}

	// c2 no longer receives board events.
	if err := hub.PublishToRoom(context.Background(), cardMoved(t, "b1", "k1")); err != nil {
		t.Fatal(err)
	}
	recv(t, c1)
	assertQuiet(t, c2)
}

func TestPublishOrderWithinRoom(t *testing.T) {
	hub := startHub(t, DefaultOptions())
	c := connect(t, hub, "u1")
	join(t, hub, c, "b1")

	ids := []string{"k1", "k2", "k3", "k4", "k5"}
	for _, id := range ids {
		if err := hub.PublishToRoom(context.Background(), cardMoved(t, "b1", id)); err != nil {
			t.Fatal(err)
		}
	}
	for _, want := range ids {
		if got := recv(t, c).EntityID; got != want {
			t.Fatalf("got %s, want %s", got, want)
		}
	}
}

func TestSlowClientDropped(t *testing.T) {
	hub := startHub(t, Options{SendBuffer: 2})
	slow := connect(t, hub, "slow")
	fast := connect(t, hub, "fast")
	join(t, hub, slow, "b1")
	join(t, hub, fast, "b1") // slow: [userJoined]

	ctx := context.Background()
	if err := hub.PublishToRoom(ctx, cardMoved(t, "b1", "k1")); err != nil {
		t.Fatal(err)
	}
	recv(t, fast) // slow: [userJoined, k1], now full

	if err := hub.PublishToRoom(ctx, cardMoved(t, "b1", "k2")); err != nil {
		t.Fatal(err)
	}
	if env := recv(t, fast); env.EntityID != "k2" {
		t.Fatalf("fast got %s, want k2", env.EntityID)
	}
	if env := recv(t, fast); env.Event != events.UserLeft || env.EntityID != "slow" {
		t.Errorf("fast got %s for %s, want userLeft slow", env.Event, env.EntityID)
	}

	// The slow client keeps what was queued, then sees its channel close.
	recv(t, slow)
	recv(t, slow)
	if _, ok := <-slow.send; ok {
		t.Error("slow client was not disconnected")
	}
	if hub.ClientCount() != 1 || hub.RoomSize("b1") != 1 {
		t.Errorf("clients = %d, room = %d", hub.ClientCount(), hub.RoomSize("b1"))
	}
}

func TestPublishToEmptyRoom(t *testing.T) {
	hub := startHub(t, DefaultOptions())
	if err := hub.PublishToRoom(context.Background(), cardMoved(t, "nobody", "k1")); err != nil {
		t.Errorf("PublishToRoom: %v", err)
	}
	barrier(t, hub)
	if hub.RoomCount() != 0 {
		t.Errorf("RoomCount = %d", hub.RoomCount())
	}
}

func TestSubscribeUnregisteredClientIgnored(t *testing.T) {
	hub := startHub(t, DefaultOptions())
	stray := NewClient(hub, nil, "stray")
	join(t, hub, stray, "b1")
	barrier(t, hub)
	if hub.RoomSize("b1") != 0 {
		t.Errorf("unregistered client joined a room")
	}
}

func TestHubShutdown(t *testing.T) {
	hub := NewHub(DefaultOptions())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.RunWithContext(ctx) }()

	c := connect(t, hub, "u1")
	join(t, hub, c, "b1")
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("RunWithContext = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}

	if _, ok := <-c.send; ok {
		t.Error("client channel left open after shutdown")
	}
	if err := hub.PublishToRoom(context.Background(), cardMoved(t, "b1", "k1")); !errors.Is(err, ErrHubStopped) {
		t.Errorf("PublishToRoom after stop = %v, want ErrHubStopped", err)
	}
	if err := hub.Subscribe(context.Background(), c, "b2"); !errors.Is(err, ErrHubStopped) {
		t.Errorf("Subscribe after stop = %v, want ErrHubStopped", err)
	}
}

func TestGetShutdownReason(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	expired, cancel2 := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel2()

	tests := []struct {
		name string
		ctx  context.Context
		want ShutdownReason
	}{
		{"canceled", canceled, ShutdownReasonContextCanceled},
		{"deadline", expired, ShutdownReasonContextDeadline},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := getShutdownReason(tt.ctx); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestOptionsDefaults(t *testing.T) {
	got := Options{SendBuffer: 8}.withDefaults()
	want := DefaultOptions()
	want.SendBuffer = 8
	if got != want {
		t.Errorf("withDefaults = %+v, want %+v", got, want)
	}
}
