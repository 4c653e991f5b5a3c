// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/corkboard/internal/logging"
	"github.com/tomtom215/corkboard/internal/metrics"
)

var (
	// ErrDownstreamUnavailable means the automation endpoint could not be
	// reached, timed out, or the breaker is open.
	ErrDownstreamUnavailable = errors.New("downstream unavailable")

	// ErrDownstreamRejected means the endpoint answered with a non-2xx status.
	ErrDownstreamRejected = errors.New("downstream rejected delivery")

	// ErrInvalidWebhookURL rejects URLs that are not absolute http(s).
	ErrInvalidWebhookURL = errors.New("invalid webhook url")
)

// StatusError carries the status of a rejected delivery.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("webhook returned %d", e.StatusCode)
	}
	return fmt.Sprintf("webhook returned %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrDownstreamRejected }

// ValidateWebhookURL accepts absolute http and https URLs with a host.
func ValidateWebhookURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidWebhookURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https", ErrInvalidWebhookURL)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidWebhookURL)
	}
	return nil
}

// WebhookPayload is the body posted to the automation endpoint.
type WebhookPayload struct {
	Email     string   `json:"email"`
	BoardData Document `json:"boardData"`
}

// WebhookConfig tunes delivery.
type WebhookConfig struct {
	Timeout time.Duration
	// BreakerFailures consecutive failures open the breaker.
	BreakerFailures uint32
	// BreakerCooldown is how long the breaker stays open.
	BreakerCooldown time.Duration
}

// DefaultWebhookConfig returns the delivery defaults.
func DefaultWebhookConfig() WebhookConfig {
	return WebhookConfig{
		Timeout:         10 * time.Second,
		BreakerFailures: 5,
		BreakerCooldown: 30 * time.Second,
	}
}

const breakerName = "export-webhook"

// WebhookSender posts export payloads behind a circuit breaker.
type WebhookSender struct {
	client *http.Client
	cb     *gobreaker.CircuitBreaker[struct{}]
}

// NewWebhookSender creates a sender. Zero fields of cfg take defaults.
func NewWebhookSender(cfg WebhookConfig) *WebhookSender {
	def := DefaultWebhookConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = def.BreakerFailures
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = def.BreakerCooldown
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(metrics.BreakerClosed)

	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		// A rejection proves the endpoint is up; only transport failures count.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrDownstreamRejected)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", stateToString(from)).
				Str("to", stateToString(to)).
				Msg("circuit breaker state transition")
			metrics.RecordBreakerTransition(name, stateToString(from), stateToString(to), stateToFloat(to))
		},
	})

	return &WebhookSender{
		client: &http.Client{Timeout: cfg.Timeout},
		cb:     cb,
	}
}

// Send posts payload to target. Errors wrap ErrDownstreamUnavailable or
// ErrDownstreamRejected.
func (s *WebhookSender) Send(ctx context.Context, target string, payload WebhookPayload) error {
	if err := ValidateWebhookURL(target); err != nil {
		return err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	start := time.Now()
	_, err = s.cb.Execute(func() (struct{}, error) {
		return struct{}{}, s.post(ctx, target, body)
	})
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		outcome = "breaker_open"
		err = fmt.Errorf("%w: %v", ErrDownstreamUnavailable, err)
	case errors.Is(err, ErrDownstreamRejected):
		outcome = "rejected"
	default:
		outcome = "unavailable"
	}
	metrics.RecordExport("webhook", outcome, time.Since(start))
	return err
}

func (s *WebhookSender) post(ctx context.Context, target string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDownstreamUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDownstreamUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(snippet))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// State reports the breaker state for health output.
func (s *WebhookSender) State() string {
	return stateToString(s.cb.State())
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return metrics.BreakerHalfOpen
	case gobreaker.StateOpen:
		return metrics.BreakerOpen
	default:
		return metrics.BreakerClosed
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
