// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

/*
Package client is a Go SDK for the Corkboard HTTP and websocket API.

Client wraps the REST surface under /api/v1 and decodes the standard
response envelope. Realtime streams board events over the websocket.
Session ties both to a reconcile.Reconciler so moves appear locally before
the server answers and are reverted if it refuses them.

	c, err := client.New("http://localhost:3001")
	boards, err := c.ListBoards(ctx)
*/
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/corkboard/internal/export"
	"github.com/tomtom215/corkboard/internal/models"
	"github.com/tomtom215/corkboard/internal/store"
)

const (
	apiPrefix      = "/api/v1"
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 64 * 1024
)

// Client talks to one Corkboard server. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New creates a client for baseURL, e.g. http://localhost:3001.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSuffix(baseURL, "/")
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: missing host", baseURL)
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		userAgent:  "corkboard-client",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the server address the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// DeleteResult is returned by the delete endpoints.
type DeleteResult struct {
	Message        string   `json:"message"`
	DeletedColumns []string `json:"deletedColumns,omitempty"`
	DeletedCards   []string `json:"deletedCards,omitempty"`
}

// RepairResult is returned by Repair.
type RepairResult struct {
	Report store.RepairReport `json:"report"`
	Clean  bool               `json:"clean"`
}

// Health is the readiness body.
type Health struct {
	Status         string  `json:"status"`
	StoreConnected bool    `json:"storeConnected"`
	Uptime         float64 `json:"uptime"`
	WSClients      int     `json:"wsClients"`
	WSRooms        int     `json:"wsRooms"`
}

// Boards

func (c *Client) ListBoards(ctx context.Context) ([]models.Board, error) {
	var out []models.Board
	err := c.do(ctx, http.MethodGet, "/boards", nil, &out)
	return out, err
}

func (c *Client) CreateBoard(ctx context.Context, req models.CreateBoardRequest) (models.Board, error) {
	var out models.Board
	err := c.do(ctx, http.MethodPost, "/boards", req, &out)
	return out, err
}

// GetBoard fetches the board with its columns and cards.
func (c *Client) GetBoard(ctx context.Context, boardID string) (models.BoardTree, error) {
	var out models.BoardTree
	err := c.do(ctx, http.MethodGet, boardPath(boardID), nil, &out)
	return out, err
}

func (c *Client) UpdateBoard(ctx context.Context, boardID string, req models.UpdateBoardRequest) (models.Board, error) {
	var out models.Board
	err := c.do(ctx, http.MethodPatch, boardPath(boardID), req, &out)
	return out, err
}

func (c *Client) DeleteBoard(ctx context.Context, boardID string) (DeleteResult, error) {
	var out DeleteResult
	err := c.do(ctx, http.MethodDelete, boardPath(boardID), nil, &out)
	return out, err
}

// Columns

func (c *Client) ListColumns(ctx context.Context, boardID string) ([]models.Column, error) {
	var out []models.Column
	err := c.do(ctx, http.MethodGet, boardPath(boardID)+"/columns", nil, &out)
	return out, err
}

func (c *Client) CreateColumn(ctx context.Context, boardID string, req models.CreateColumnRequest) (models.Column, error) {
	var out models.Column
	err := c.do(ctx, http.MethodPost, boardPath(boardID)+"/columns", req, &out)
	return out, err
}

func (c *Client) UpdateColumn(ctx context.Context, boardID, columnID string, req models.UpdateColumnRequest) (models.Column, error) {
	var out models.Column
	err := c.do(ctx, http.MethodPatch, columnPath(boardID, columnID), req, &out)
	return out, err
}

func (c *Client) DeleteColumn(ctx context.Context, boardID, columnID string) (DeleteResult, error) {
	var out DeleteResult
	err := c.do(ctx, http.MethodDelete, columnPath(boardID, columnID), nil, &out)
	return out, err
}

// Cards

func (c *Client) ListCards(ctx context.Context, boardID, columnID string) ([]models.Card, error) {
	var out []models.Card
	err := c.do(ctx, http.MethodGet, columnPath(boardID, columnID)+"/cards", nil, &out)
	return out, err
}

func (c *Client) CreateCard(ctx context.Context, boardID, columnID string, req models.CreateCardRequest) (models.Card, error) {
	var out models.Card
	err := c.do(ctx, http.MethodPost, columnPath(boardID, columnID)+"/cards", req, &out)
	return out, err
}

// UpdateCard patches a card. columnID is the column the caller believes
// holds the card; when req moves the card the server rejects the request
// with a conflict if that belief is stale.
func (c *Client) UpdateCard(ctx context.Context, boardID, columnID, cardID string, req models.UpdateCardRequest) (models.Card, error) {
	var out models.Card
	err := c.do(ctx, http.MethodPatch, cardPath(boardID, columnID, cardID), req, &out)
	return out, err
}

// MoveCard uses the explicit move endpoint.
func (c *Client) MoveCard(ctx context.Context, boardID, cardID string, req models.MoveCardRequest) (models.Card, error) {
	var out models.Card
	err := c.do(ctx, http.MethodPost, cardPath(boardID, req.SourceColumnID, cardID)+"/move", req, &out)
	return out, err
}

func (c *Client) DeleteCard(ctx context.Context, boardID, columnID, cardID string) (DeleteResult, error) {
	var out DeleteResult
	err := c.do(ctx, http.MethodDelete, cardPath(boardID, columnID, cardID), nil, &out)
	return out, err
}

// Export

func (c *Client) ExportDocument(ctx context.Context, boardID string) (export.Document, error) {
	var out export.Document
	err := c.do(ctx, http.MethodGet, boardPath(boardID)+"/export", nil, &out)
	return out, err
}

// ExportCSV streams the CSV rendition of boardID into w.
func (c *Client) ExportCSV(ctx context.Context, boardID string, w io.Writer) error {
	resp, err := c.send(ctx, http.MethodGet, boardPath(boardID)+"/export?format=csv", nil, "text/csv")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("read csv export: %w", err)
	}
	return nil
}

// TriggerExport asks the server to deliver the board to the automation
// endpoint. A delivery failure is not an error here: check Result.Success.
func (c *Client) TriggerExport(ctx context.Context, boardID string, req models.ExportRequest) (export.Result, error) {
	var out export.Result
	err := c.do(ctx, http.MethodPost, boardPath(boardID)+"/export", req, &out)
	return out, err
}

// Operations

func (c *Client) Repair(ctx context.Context) (RepairResult, error) {
	var out RepairResult
	err := c.do(ctx, http.MethodPost, "/admin/repair", nil, &out)
	return out, err
}

// Ready reports readiness. A 503 comes back as an *APIError matching
// ErrUnavailable.
func (c *Client) Ready(ctx context.Context) (Health, error) {
	var out Health
	err := c.do(ctx, http.MethodGet, "/health/ready", nil, &out)
	return out, err
}

// envelope mirrors the server's response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code      string          `json:"code"`
		Message   string          `json:"message"`
		Details   json.RawMessage `json:"details"`
		RequestID string          `json:"request_id"`
	} `json:"error"`
	Meta *struct {
		RequestID string `json:"request_id"`
	} `json:"meta"`
}

// do sends body as JSON and decodes the envelope's data into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.send(ctx, method, path, body, "application/json")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	if !env.Success {
		return envelopeError(resp.StatusCode, &env)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s %s data: %w", method, path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body any, accept string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

// decodeError builds an APIError from a non-2xx response, falling back to
// the raw body when it is not an envelope.
func decodeError(resp *http.Response) error {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return &APIError{Status: resp.StatusCode, Code: codeForStatus(resp.StatusCode), Message: http.StatusText(resp.StatusCode)}
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Error != nil {
		return envelopeError(resp.StatusCode, &env)
	}
	msg := strings.TrimSpace(string(raw))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &APIError{
		Status:    resp.StatusCode,
		Code:      codeForStatus(resp.StatusCode),
		Message:   msg,
		RequestID: resp.Header.Get("X-Request-ID"),
	}
}

func envelopeError(status int, env *envelope) error {
	if env.Error == nil {
		return &APIError{Status: status, Code: codeForStatus(status), Message: "request failed"}
	}
	apiErr := &APIError{
		Status:    status,
		Code:      env.Error.Code,
		Message:   env.Error.Message,
		Details:   env.Error.Details,
		RequestID: env.Error.RequestID,
	}
	if apiErr.RequestID == "" && env.Meta != nil {
		apiErr.RequestID = env.Meta.RequestID
	}
	return apiErr
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge:
		return codeBadRequest
	case http.StatusNotFound:
		return codeNotFound
	case http.StatusConflict:
		return codeConflict
	case http.StatusTooManyRequests:
		return codeTooManyRequests
	case http.StatusServiceUnavailable:
		return codeServiceUnavailable
	default:
		return "HTTP_" + fmt.Sprint(status)
	}
}

// IsRetryable reports whether err is worth retrying after a pause.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUnavailable)
}

func boardPath(boardID string) string {
	return "/boards/" + url.PathEscape(boardID)
}

func columnPath(boardID, columnID string) string {
	return boardPath(boardID) + "/columns/" + url.PathEscape(columnID)
}

func cardPath(boardID, columnID, cardID string) string {
	return columnPath(boardID, columnID) + "/cards/" + url.PathEscape(cardID)
}
