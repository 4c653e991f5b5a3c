// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/corkboard/internal/events"
	"github.com/tomtom215/corkboard/internal/logging"
	ws "github.com/tomtom215/corkboard/internal/websocket"
)

const (
	handshakeTimeout = 10 * time.Second
	realtimeWait     = 10 * time.Second
	// The server pings every 54s; allow a little slack past its pong wait.
	realtimeReadWait = 70 * time.Second
	eventBuffer      = 64
)

// ErrRealtimeClosed is returned by writes after Close or a dropped
// connection.
var ErrRealtimeClosed = errors.New("realtime connection closed")

// ServerError is an error frame sent by the server, e.g. for a malformed
// join request.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string { return "server: " + e.Message }

// Realtime is a websocket subscription to board events.
type Realtime struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	events chan events.Envelope
	errs   chan error
	done   chan struct{}
	wg     sync.WaitGroup

	closeOnce sync.Once
	errMu     sync.Mutex
	err       error
}

// Dial opens the websocket at baseURL for userID. The Origin header is
// the base URL itself, which the server accepts as same-host.
func Dial(ctx context.Context, baseURL, userID string) (*Realtime, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	origin := u.Scheme + "://" + u.Host

	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", baseURL)
	}
	u.Path = apiPrefix + "/ws"
	q := url.Values{}
	if userID != "" {
		q.Set("userId", userID)
	}
	u.RawQuery = q.Encode()

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	header := http.Header{"Origin": {origin}}
	conn, resp, err := dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial failed (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	rt := &Realtime{
		conn:   conn,
		events: make(chan events.Envelope, eventBuffer),
		errs:   make(chan error, 8),
		done:   make(chan struct{}),
	}
	conn.SetPingHandler(func(data string) error {
		_ = conn.SetReadDeadline(time.Now().Add(realtimeReadWait))
		rt.writeMu.Lock()
		defer rt.writeMu.Unlock()
		err := conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(realtimeWait))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})

	rt.wg.Add(1)
	go rt.readLoop()
	return rt, nil
}

// Events delivers board events in arrival order. It is closed when the
// connection ends; Err then reports why.
func (rt *Realtime) Events() <-chan events.Envelope {
	return rt.events
}

// Errors delivers error frames from the server. Frames are dropped when
// nobody is reading.
func (rt *Realtime) Errors() <-chan error {
	return rt.errs
}

// Err returns the error that ended the connection, or nil.
func (rt *Realtime) Err() error {
	rt.errMu.Lock()
	defer rt.errMu.Unlock()
	return rt.err
}

// Join subscribes to boardID, leaving any board joined before. The server
// does not acknowledge joins.
func (rt *Realtime) Join(boardID string) error {
	return rt.sendRoom(ws.MessageTypeJoinBoard, boardID)
}

// Leave unsubscribes from boardID.
func (rt *Realtime) Leave(boardID string) error {
	return rt.sendRoom(ws.MessageTypeLeaveBoard, boardID)
}

// Ping sends an application-level ping; the pong is consumed silently.
func (rt *Realtime) Ping() error {
	return rt.write(ws.Message{Type: ws.MessageTypePing})
}

func (rt *Realtime) sendRoom(typ, boardID string) error {
	data, err := json.Marshal(ws.RoomRequest{BoardID: boardID})
	if err != nil {
		return err
	}
	return rt.write(ws.Message{Type: typ, Data: data})
}

func (rt *Realtime) write(msg ws.Message) error {
	select {
	case <-rt.done:
		return ErrRealtimeClosed
	default:
	}
	frame, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	rt.writeMu.Lock()
	defer rt.writeMu.Unlock()
	if err := rt.conn.SetWriteDeadline(time.Now().Add(realtimeWait)); err != nil {
		return err
	}
	if err := rt.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("%w: %v", ErrRealtimeClosed, err)
	}
	return nil
}

// Close sends a close frame and waits for the read loop to finish.
func (rt *Realtime) Close() error {
	var err error
	rt.closeOnce.Do(func() {
		close(rt.done)
		rt.writeMu.Lock()
		_ = rt.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		rt.writeMu.Unlock()
		err = rt.conn.Close()
	})
	rt.wg.Wait()
	return err
}

// frame is wide enough to tell events from pong and error replies.
type frame struct {
	Type string `json:"type"`
	Data struct {
		Message string `json:"message"`
	} `json:"data"`
}

func (rt *Realtime) readLoop() {
	defer rt.wg.Done()
	defer close(rt.events)

	for {
		_ = rt.conn.SetReadDeadline(time.Now().Add(realtimeReadWait))
		_, data, err := rt.conn.ReadMessage()
		if err != nil {
			select {
			case <-rt.done:
			default:
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					rt.setErr(err)
					logging.Debug().Err(err).Msg("[realtime] read failed")
				}
			}
			return
		}

		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			logging.Debug().Err(err).Msg("[realtime] skipping malformed frame")
			continue
		}
		switch f.Type {
		case ws.MessageTypePong:
			continue
		case ws.MessageTypeError:
			select {
			case rt.errs <- &ServerError{Message: f.Data.Message}:
			default:
			}
			continue
		}

		env, err := events.Unmarshal(data)
		if err != nil {
			logging.Debug().Err(err).Msg("[realtime] skipping malformed event")
			continue
		}
		select {
		case rt.events <- env:
		case <-rt.done:
			return
		}
	}
}

func (rt *Realtime) setErr(err error) {
	rt.errMu.Lock()
	defer rt.errMu.Unlock()
	if rt.err == nil {
		rt.err = err
	}
}
