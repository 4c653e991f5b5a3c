// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/corkboard/internal/metrics"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func serve(h http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitWritesEnvelope(t *testing.T) {
	m := NewChiMiddleware(&ChiMiddlewareConfig{
		RateLimitRequests: 2,
		RateLimitWindow:   time.Minute,
	})
	h := m.RateLimit()(okHandler)
	before := testutil.ToFloat64(metrics.APIRateLimitHits.WithLabelValues("api"))

	for i := 0; i < 2; i++ {
		if rec := serve(h, http.MethodGet, "/api/v1/boards", nil); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i, rec.Code)
		}
	}
	rec := serve(h, http.MethodGet, "/api/v1/boards", nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}

	var body APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Success || body.Error == nil || body.Error.Code != ErrCodeTooManyRequests {
		t.Errorf("body = %s", rec.Body.String())
	}
	if got := testutil.ToFloat64(metrics.APIRateLimitHits.WithLabelValues("api")); got != before+1 {
		t.Errorf("rate limit hits = %v, want %v", got, before+1)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	m := NewChiMiddleware(&ChiMiddlewareConfig{
		RateLimitRequests: 1,
		RateLimitWindow:   time.Minute,
		RateLimitDisabled: true,
	})
	h := m.RateLimitExport()(okHandler)
	for i := 0; i < RateLimitExport.Requests+5; i++ {
		if rec := serve(h, http.MethodPost, "/export", nil); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i, rec.Code)
		}
	}
}

func TestWriteLimitSkipsReads(t *testing.T) {
	m := NewChiMiddleware(DefaultChiMiddlewareConfig())
	h := m.writeMethods()(okHandler)

	for i := 0; i < RateLimitWrite.Requests+10; i++ {
		if rec := serve(h, http.MethodGet, "/api/v1/boards", nil); rec.Code != http.StatusOK {
			t.Fatalf("GET %d: status %d", i, rec.Code)
		}
	}
	for i := 0; i < RateLimitWrite.Requests; i++ {
		if rec := serve(h, http.MethodPatch, "/api/v1/boards/b1", nil); rec.Code != http.StatusOK {
			t.Fatalf("PATCH %d: status %d", i, rec.Code)
		}
	}
	if rec := serve(h, http.MethodPatch, "/api/v1/boards/b1", nil); rec.Code != http.StatusTooManyRequests {
		t.Errorf("PATCH over limit: status %d, want 429", rec.Code)
	}
}

func TestCORS(t *testing.T) {
	cfg := DefaultChiMiddlewareConfig()
	cfg.CORSAllowedOrigins = []string{"http://localhost:5173"}
	h := NewChiMiddleware(cfg).CORS()(okHandler)

	preflight := map[string]string{
		"Origin":                        "http://localhost:5173",
		"Access-Control-Request-Method": http.MethodPatch,
	}
	rec := serve(h, http.MethodOptions, "/api/v1/boards/b1", preflight)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Allow-Origin = %q", got)
	}

	preflight["Origin"] = "https://evil.example.com"
	rec = serve(h, http.MethodOptions, "/api/v1/boards/b1", preflight)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Allow-Origin for foreign origin = %q", got)
	}
}

func TestAPISecurityHeaders(t *testing.T) {
	h := APISecurityHeaders()(okHandler)

	rec := serve(h, http.MethodGet, "/api/v1/boards", nil)
	for header, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	} {
		if got := rec.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS set on plain HTTP")
	}

	rec = serve(h, http.MethodGet, "/api/v1/boards", map[string]string{"X-Forwarded-Proto": "https"})
	if rec.Header().Get("Strict-Transport-Security") == "" {
		t.Error("HSTS missing behind TLS proxy")
	}
}
