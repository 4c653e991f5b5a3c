// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package config

import (
	"fmt"
	"time"

	"github.com/tomtom215/corkboard/internal/export"
	"github.com/tomtom215/corkboard/internal/store"
	ws "github.com/tomtom215/corkboard/internal/websocket"
)

// Config holds all settings for the server and corkctl.
//
// Loading order (Load):
//  1. Defaults from defaultConfig
//  2. Optional YAML file (CONFIG_PATH or DefaultConfigPaths)
//  3. Environment variables listed in envMappings
//
// Config is immutable after Load and safe to share between goroutines.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Store     StoreConfig     `koanf:"store"`
	Security  SecurityConfig  `koanf:"security"`
	WebSocket WebSocketConfig `koanf:"websocket"`
	Export    ExportConfig    `koanf:"export"`
	Logging   LoggingConfig   `koanf:"logging"`
	Reconcile ReconcileConfig `koanf:"reconcile"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // development, staging, production
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StoreConfig selects and configures the document store.
//
// Environment Variables:
//   - STORE_BACKEND: badger (default) or redis
//   - STORE_PATH: badger directory (default: /data/corkboard)
//   - STORE_IN_MEMORY: run badger without disk (default: false)
//   - REDIS_ADDR, REDIS_PASSWORD, REDIS_DB, REDIS_NAMESPACE
type StoreConfig struct {
	Backend        string `koanf:"backend"`
	Path           string `koanf:"path"`
	InMemory       bool   `koanf:"in_memory"`
	RedisAddr      string `koanf:"redis_addr"`
	RedisPassword  string `koanf:"redis_password"`
	RedisDB        int    `koanf:"redis_db"`
	RedisNamespace string `koanf:"redis_namespace"`
}

// Options converts the section for store.Open.
func (s StoreConfig) Options() store.Options {
	return store.Options{
		Backend:        store.BackendType(s.Backend),
		Path:           s.Path,
		InMemory:       s.InMemory,
		RedisAddr:      s.RedisAddr,
		RedisPassword:  s.RedisPassword,
		RedisDB:        s.RedisDB,
		RedisNamespace: s.RedisNamespace,
	}
}

// SecurityConfig holds CORS and rate limiting.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// WebSocketConfig tunes the realtime hub.
type WebSocketConfig struct {
	SendBuffer        int     `koanf:"send_buffer"`
	MessagesPerSecond float64 `koanf:"messages_per_second"`
	Burst             int     `koanf:"burst"`
	PublishBuffer     int     `koanf:"publish_buffer"`
}

// HubOptions converts the section for websocket.NewHub.
func (w WebSocketConfig) HubOptions() ws.Options {
	return ws.Options{
		SendBuffer:        w.SendBuffer,
		MessagesPerSecond: w.MessagesPerSecond,
		Burst:             w.Burst,
		PublishBuffer:     w.PublishBuffer,
	}
}

// ExportConfig configures the downstream export consumer.
//
// Environment Variables:
//   - EXPORT_WEBHOOK_URL: automation endpoint used when a request names none
//   - EXPORT_TIMEOUT, EXPORT_BREAKER_FAILURES, EXPORT_BREAKER_COOLDOWN
//   - EXPORT_S3_BUCKET: enables archiving when set
//   - EXPORT_S3_ENDPOINT, EXPORT_S3_REGION, EXPORT_S3_ACCESS_KEY,
//     EXPORT_S3_SECRET_KEY, EXPORT_S3_PATH_STYLE
type ExportConfig struct {
	WebhookURL      string        `koanf:"webhook_url"`
	Timeout         time.Duration `koanf:"timeout"`
	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerCooldown time.Duration `koanf:"breaker_cooldown"`

	S3Endpoint  string `koanf:"s3_endpoint"`
	S3Region    string `koanf:"s3_region"`
	S3Bucket    string `koanf:"s3_bucket"`
	S3AccessKey string `koanf:"s3_access_key"`
	S3SecretKey string `koanf:"s3_secret_key"`
	S3PathStyle bool   `koanf:"s3_path_style"`
}

// Webhook converts the delivery settings.
func (e ExportConfig) Webhook() export.WebhookConfig {
	return export.WebhookConfig{
		Timeout:         e.Timeout,
		BreakerFailures: e.BreakerFailures,
		BreakerCooldown: e.BreakerCooldown,
	}
}

// ArchiveEnabled reports whether an S3 bucket is configured.
func (e ExportConfig) ArchiveEnabled() bool {
	return e.S3Bucket != ""
}

// S3 converts the archive settings.
func (e ExportConfig) S3() export.S3Config {
	return export.S3Config{
		Endpoint:     e.S3Endpoint,
		Region:       e.S3Region,
		Bucket:       e.S3Bucket,
		AccessKey:    e.S3AccessKey,
		SecretKey:    e.S3SecretKey,
		UsePathStyle: e.S3PathStyle,
	}
}

// LoggingConfig holds log output settings.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// ReconcileConfig holds defaults for client-side reconciliation, used by
// corkctl sessions.
type ReconcileConfig struct {
	DedupCapacity int           `koanf:"dedup_capacity"`
	DedupTTL      time.Duration `koanf:"dedup_ttl"`
}

// Load reads configuration from defaults, file and environment, then
// validates it.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
