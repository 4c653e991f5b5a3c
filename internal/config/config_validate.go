// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package config

import (
	"fmt"
	"time"

	"github.com/tomtom215/corkboard/internal/logging"
)

// Validate checks every section and returns the first problem found.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateStore,
		c.validateSecurity,
		c.validateWebSocket,
		c.validateExport,
		c.validateLogging,
		c.validateReconcile,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

var validEnvironments = map[string]bool{
	"development": true,
	"staging":     true,
	"production":  true,
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	if !validEnvironments[c.Server.Environment] {
		return fmt.Errorf("ENVIRONMENT must be one of: development, staging, production")
	}
	return nil
}

// IsProduction reports whether ENVIRONMENT=production.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func (c *Config) validateStore() error {
	switch c.Store.Backend {
	case "badger":
		if !c.Store.InMemory && c.Store.Path == "" {
			return fmt.Errorf("STORE_PATH is required for the badger backend unless STORE_IN_MEMORY=true")
		}
	case "redis":
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis backend")
		}
		if c.Store.RedisDB < 0 || c.Store.RedisDB > 15 {
			return fmt.Errorf("REDIS_DB must be between 0 and 15")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be one of: badger, redis")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if err := c.validateCORS(); err != nil {
		return err
	}
	return c.validateRateLimits()
}

// validateCORS rejects wildcard origins in production, since the
// websocket origin check reuses this list.
func (c *Config) validateCORS() error {
	if c.hasWildcardCORS() && c.IsProduction() {
		return fmt.Errorf("CORS_ORIGINS=* (wildcard) is not allowed in production; " +
			"set specific origins such as CORS_ORIGINS=https://boards.example.com")
	}
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			continue
		}
		if err := validateHTTPURL(origin, "CORS_ORIGINS entry"); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) hasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// ShouldWarnAboutCORS reports a wildcard origin list outside production.
func (c *Config) ShouldWarnAboutCORS() bool {
	return c.hasWildcardCORS()
}

const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

func (c *Config) validateWebSocket() error {
	w := c.WebSocket
	if w.SendBuffer < 1 {
		return fmt.Errorf("WS_SEND_BUFFER must be at least 1")
	}
	if w.PublishBuffer < 1 {
		return fmt.Errorf("WS_PUBLISH_BUFFER must be at least 1")
	}
	if w.MessagesPerSecond <= 0 {
		return fmt.Errorf("WS_MESSAGES_PER_SECOND must be positive")
	}
	if w.Burst < 1 {
		return fmt.Errorf("WS_BURST must be at least 1")
	}
	return nil
}

func (c *Config) validateExport() error {
	e := c.Export
	if e.WebhookURL != "" {
		if err := validateWebhookURL(e.WebhookURL, "EXPORT_WEBHOOK_URL"); err != nil {
			return err
		}
	}
	if e.Timeout <= 0 {
		return fmt.Errorf("EXPORT_TIMEOUT must be positive")
	}
	if e.BreakerFailures == 0 {
		return fmt.Errorf("EXPORT_BREAKER_FAILURES must be at least 1")
	}
	if e.BreakerCooldown <= 0 {
		return fmt.Errorf("EXPORT_BREAKER_COOLDOWN must be positive")
	}
	if !e.ArchiveEnabled() {
		return nil
	}
	if e.S3Endpoint != "" {
		if err := validateHTTPURL(e.S3Endpoint, "EXPORT_S3_ENDPOINT"); err != nil {
			return err
		}
	}
	if (e.S3AccessKey == "") != (e.S3SecretKey == "") {
		return fmt.Errorf("EXPORT_S3_ACCESS_KEY and EXPORT_S3_SECRET_KEY must be set together")
	}
	return nil
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL %q is not a log level (trace, debug, info, warn, error)", c.Logging.Level)
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

func (c *Config) validateReconcile() error {
	if c.Reconcile.DedupCapacity < 1 {
		return fmt.Errorf("RECONCILE_DEDUP_CAPACITY must be at least 1")
	}
	if c.Reconcile.DedupTTL < 0 {
		return fmt.Errorf("RECONCILE_DEDUP_TTL must not be negative")
	}
	return nil
}
