// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package client

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/corkboard/internal/api"
	"github.com/tomtom215/corkboard/internal/board"
	"github.com/tomtom215/corkboard/internal/config"
	"github.com/tomtom215/corkboard/internal/events"
	"github.com/tomtom215/corkboard/internal/export"
	"github.com/tomtom215/corkboard/internal/logging"
	"github.com/tomtom215/corkboard/internal/models"
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

type server struct {
	url     string
	hub     *ws.Hub
	webhook *testinfra.MockWebhookServer
}

// newServer runs the full API over an in-memory store.
func newServer(t *testing.T) *server {
	t.Helper()
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

	cfg := &config.Config{Security: config.SecurityConfig{RateLimitDisabled: true}}
	boards := board.NewService(st, bus)
	webhook := testinfra.NewMockWebhookServer(t)
	exports := export.NewService(boards, export.NewWebhookSender(export.WebhookConfig{Timeout: 2 * time.Second}), nil, webhook.URL())
	srv := httptest.NewServer(api.NewRouter(api.NewHandler(boards, exports, hub, cfg), cfg).SetupChi())

	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-fwdDone
		<-hubDone
		_ = bus.Close()
		_ = st.Close()
	})
	return &server{url: srv.URL, hub: hub, webhook: webhook}
}

func (s *server) client(t *testing.T) *Client {
	t.Helper()
	c, err := New(s.url, WithTimeout(5*time.Second))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

// waitForRoom polls until boardID has n members.
func (s *server) waitForRoom(t *testing.T, boardID string, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for s.hub.RoomSize(boardID) != n {
		if time.Now().After(deadline) {
			t.Fatalf("room %s has %d members, want %d", boardID, s.hub.RoomSize(boardID), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

type fixture struct {
	boardID string
	todo    string
	done    string
	cards   []string
}

// seed creates a board with To Do holding A, B, C and an empty Done.
func seed(t *testing.T, c *Client) fixture {
	t.Helper()
	ctx := context.Background()
	b, err := c.CreateBoard(ctx, models.CreateBoardRequest{Title: "Sprint"})
	if err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}
	f := fixture{boardID: b.ID}
	todo, err := c.CreateColumn(ctx, b.ID, models.CreateColumnRequest{Title: "To Do"})
	if err != nil {
		t.Fatalf("CreateColumn: %v", err)
	}
	done, err := c.CreateColumn(ctx, b.ID, models.CreateColumnRequest{Title: "Done"})
	if err != nil {
		t.Fatalf("CreateColumn: %v", err)
	}
	f.todo, f.done = todo.ID, done.ID
	for _, title := range []string{"A", "B", "C"} {
		card, err := c.CreateCard(ctx, b.ID, todo.ID, models.CreateCardRequest{Title: title})
		if err != nil {
			t.Fatalf("CreateCard: %v", err)
		}
		f.cards = append(f.cards, card.ID)
	}
	return f
}

func cardTitles(tree models.BoardTree, columnID string) []string {
	col := tree.Column(columnID)
	if col == nil {
		return nil
	}
	out := make([]string, len(col.Cards))
	for i, c := range col.Cards {
		out[i] = c.Title
	}
	return out
}

func TestNewRejectsBadURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:3001", "ftp://host", "http://"} {
		if _, err := New(raw); err == nil {
			t.Errorf("New(%q) succeeded", raw)
		}
	}
	c, err := New("http://localhost:3001/")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.BaseURL() != "http://localhost:3001" {
		t.Errorf("BaseURL = %q", c.BaseURL())
	}
}

func TestBoardRoundTrip(t *testing.T) {
	srv := newServer(t)
	c := srv.client(t)
	ctx := context.Background()
	f := seed(t, c)

	tree, err := c.GetBoard(ctx, f.boardID)
	if err != nil {
		t.Fatalf("GetBoard: %v", err)
	}
	if tree.Title != "Sprint" || len(tree.Columns) != 2 {
		t.Fatalf("tree = %+v", tree)
	}
	if got := strings.Join(cardTitles(tree, f.todo), ","); got != "A,B,C" {
		t.Errorf("To Do = %s", got)
	}

	title := "Sprint 2"
	b, err := c.UpdateBoard(ctx, f.boardID, models.UpdateBoardRequest{Title: &title})
	if err != nil || b.Title != title {
		t.Fatalf("UpdateBoard = %+v, %v", b, err)
	}

	boards, err := c.ListBoards(ctx)
	if err != nil || len(boards) != 1 {
		t.Fatalf("ListBoards = %v, %v", boards, err)
	}

	card, err := c.MoveCard(ctx, f.boardID, f.cards[0], models.MoveCardRequest{
		SourceColumnID:      f.todo,
		DestinationColumnID: f.done,
		TargetIndex:         0,
	})
	if err != nil {
		t.Fatalf("MoveCard: %v", err)
	}
	if card.ColumnID != f.done || card.Position != 0 {
		t.Errorf("moved card = %+v", card)
	}

	res, err := c.DeleteCard(ctx, f.boardID, f.done, f.cards[0])
	if err != nil || len(res.DeletedCards) != 1 {
		t.Fatalf("DeleteCard = %+v, %v", res, err)
	}

	res, err = c.DeleteBoard(ctx, f.boardID)
	if err != nil {
		t.Fatalf("DeleteBoard: %v", err)
	}
	if len(res.DeletedColumns) != 2 || len(res.DeletedCards) != 2 {
		t.Errorf("cascade = %+v", res)
	}
	if _, err := c.GetBoard(ctx, f.boardID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetBoard after delete: %v", err)
	}
}

func TestErrorMapping(t *testing.T) {
	srv := newServer(t)
	c := srv.client(t)
	ctx := context.Background()
	f := seed(t, c)

	t.Run("validation", func(t *testing.T) {
		_, err := c.CreateBoard(ctx, models.CreateBoardRequest{Title: "  "})
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("err = %v, want ErrValidation", err)
		}
		var apiErr *APIError
		if !errors.As(err, &apiErr) || len(apiErr.Fields()) == 0 {
			t.Fatalf("expected field details, got %v", err)
		}
		if apiErr.Fields()[0].Field != "title" {
			t.Errorf("field = %q", apiErr.Fields()[0].Field)
		}
	})

	t.Run("stale column conflicts", func(t *testing.T) {
		dst := f.todo
		_, err := c.UpdateCard(ctx, f.boardID, f.done, f.cards[1], models.UpdateCardRequest{ColumnID: &dst})
		if !errors.Is(err, ErrConflict) {
			t.Fatalf("err = %v, want ErrConflict", err)
		}
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("err %T is not *APIError", err)
		}
		conflict, ok := apiErr.Conflict()
		if !ok {
			t.Fatalf("no conflict details in %s", apiErr.Details)
		}
		if conflict.CardID != f.cards[1] || conflict.ExpectedColumnID != f.done || conflict.ActualColumnID != f.todo {
			t.Errorf("conflict = %+v", conflict)
		}
		if apiErr.RequestID == "" {
			t.Error("request id missing")
		}
	})

	t.Run("not found", func(t *testing.T) {
		_, err := c.ListCards(ctx, f.boardID, "missing")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
		if errors.Is(err, ErrConflict) || IsRetryable(err) {
			t.Error("not found matched other sentinels")
		}
	})
}

func TestDecodeErrorWithoutEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-ID", "req-1")
		http.Error(w, "upstream down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = c.ListBoards(context.Background())
	if !errors.Is(err, ErrUnavailable) || !IsRetryable(err) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "upstream down" || apiErr.RequestID != "req-1" {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

func TestExport(t *testing.T) {
	srv := newServer(t)
	c := srv.client(t)
	ctx := context.Background()
	f := seed(t, c)

	doc, err := c.ExportDocument(ctx, f.boardID)
	if err != nil {
		t.Fatalf("ExportDocument: %v", err)
	}
	if doc.TotalCards != 3 || doc.BoardTitle != "Sprint" {
		t.Errorf("doc = %+v", doc)
	}

	var buf bytes.Buffer
	if err := c.ExportCSV(ctx, f.boardID, &buf); err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 || !strings.HasPrefix(lines[0], "id,title") {
		t.Errorf("csv = %q", buf.String())
	}

	res, err := c.TriggerExport(ctx, f.boardID, models.ExportRequest{Email: "ops@example.com"})
	if err != nil {
		t.Fatalf("TriggerExport: %v", err)
	}
	if !res.Success || res.CardsExported != 3 {
		t.Errorf("result = %+v", res)
	}
	if !srv.webhook.WaitForCaptures(1, 2*time.Second) {
		t.Fatal("webhook not called")
	}

	srv.webhook.Respond(http.StatusInternalServerError, []byte("boom"))
	res, err = c.TriggerExport(ctx, f.boardID, models.ExportRequest{Email: "ops@example.com"})
	if err != nil {
		t.Fatalf("soft failure surfaced as error: %v", err)
	}
	if res.Success || res.Error == "" {
		t.Errorf("result = %+v, want soft failure", res)
	}
}

func TestRepairAndReady(t *testing.T) {
	srv := newServer(t)
	c := srv.client(t)
	ctx := context.Background()
	seed(t, c)

	rep, err := c.Repair(ctx)
	if err != nil {
		t.Fatalf("Repair: %v", err)
	}
	if !rep.Clean {
		t.Errorf("fresh board needed repair: %+v", rep.Report)
	}

	h, err := c.Ready(ctx)
	if err != nil {
		t.Fatalf("Ready: %v", err)
	}
	if !h.StoreConnected || h.Status != "ready" {
		t.Errorf("health = %+v", h)
	}
}
