// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/corkboard/internal/board"
	"github.com/tomtom215/corkboard/internal/config"
	"github.com/tomtom215/corkboard/internal/events"
	"github.com/tomtom215/corkboard/internal/export"
	"github.com/tomtom215/corkboard/internal/logging"
	"github.com/tomtom215/corkboard/internal/store"
	"github.com/tomtom215/corkboard/internal/testinfra"
	ws "github.com/tomtom215/corkboard/internal/websocket"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "error",
		Format: "console",
		Output: io.Discard,
	})
}

// testEnv is a running API backed by an in-memory store, the event bus
// and a websocket hub.
type testEnv struct {
	server  *httptest.Server
	boards  *board.Service
	hub     *ws.Hub
	webhook *testinfra.MockWebhookServer
}

type envOption func(*config.Config)

func testConfig() *config.Config {
	return &config.Config{
		Security: config.SecurityConfig{
			CORSOrigins:       []string{"http://localhost:5173"},
			RateLimitReqs:     1000,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: true,
		},
	}
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	cfg := testConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	st, err := store.OpenBadger("", true)
	if err != nil {
		t.Fatalf("OpenBadger: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	hub := ws.NewHub(ws.DefaultOptions())
	bus := events.NewBus(events.DefaultBusConfig())
	fwd := events.NewForwarder(bus, hub)

	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		_ = hub.RunWithContext(ctx)
	}()
	fwdDone := make(chan struct{})
	go func() {
		defer close(fwdDone)
		_ = fwd.Serve(ctx)
	}()
	select {
	case <-fwd.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("forwarder did not subscribe")
	}

	boards := board.NewService(st, bus)
	webhook := testinfra.NewMockWebhookServer(t)
	exports := export.NewService(boards, export.NewWebhookSender(export.WebhookConfig{Timeout: 2 * time.Second}), nil, webhook.URL())

	handler := NewHandler(boards, exports, hub, cfg)
	server := httptest.NewServer(NewRouter(handler, cfg).SetupChi())

	t.Cleanup(func() {
		server.Close()
		cancel()
		<-fwdDone
		<-hubDone
		_ = bus.Close()
		_ = st.Close()
	})

	return &testEnv{server: server, boards: boards, hub: hub, webhook: webhook}
}

// envelope mirrors APIResponse with the payload left raw.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

type response struct {
	status int
	header http.Header
	body   []byte
	env    envelope
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) response {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	out := response{status: resp.StatusCode, header: resp.Header, body: raw}
	if bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
		if err := json.Unmarshal(raw, &out.env); err != nil {
			t.Fatalf("decode envelope %s: %v", raw, err)
		}
	}
	return out
}

// decode unmarshals the envelope data into v.
func (r response) decode(t *testing.T, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(r.env.Data, v); err != nil {
		t.Fatalf("decode data %s: %v", r.env.Data, err)
	}
}

func (r response) expect(t *testing.T, status int) response {
	t.Helper()
	if r.status != status {
		t.Fatalf("status = %d, want %d; body %s", r.status, status, r.body)
	}
	return r
}

func (r response) expectError(t *testing.T, status int, code string) *APIError {
	t.Helper()
	r.expect(t, status)
	if r.env.Success || r.env.Error == nil {
		t.Fatalf("expected error envelope, got %s", r.body)
	}
	if r.env.Error.Code != code {
		t.Fatalf("error code = %q, want %q (%s)", r.env.Error.Code, code, r.env.Error.Message)
	}
	return r.env.Error
}
