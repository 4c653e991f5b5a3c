// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/tomtom215/corkboard/internal/api"
	"github.com/tomtom215/corkboard/internal/board"
	"github.com/tomtom215/corkboard/internal/config"
	"github.com/tomtom215/corkboard/internal/events"
	"github.com/tomtom215/corkboard/internal/export"
	"github.com/tomtom215/corkboard/internal/logging"
	"github.com/tomtom215/corkboard/internal/store"
	"github.com/tomtom215/corkboard/internal/supervisor"
	"github.com/tomtom215/corkboard/internal/supervisor/services"
	ws "github.com/tomtom215/corkboard/internal/websocket"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("Corkboard exited with error")
		os.Exit(1)
	}
}

// run owns every resource the server opens; it returns instead of exiting
// so deferred cleanup always happens.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(loggingConfig(cfg))
	watchLogging()

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("store_backend", cfg.Store.Backend).
		Str("addr", cfg.Server.Addr()).
		Msg("Starting Corkboard")

	if cfg.ShouldWarnAboutCORS() {
		logging.Warn().Msg("CORS allows any origin; set CORS_ORIGINS before exposing this server")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.Open(ctx, cfg.Store.Options())
	if err != nil {
		return fmt.Errorf("open document store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing document store")
		}
	}()
	logging.Info().Str("backend", cfg.Store.Backend).Msg("Document store opened")

	bus := events.NewBus(events.DefaultBusConfig())
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	hub := ws.NewHub(cfg.WebSocket.HubOptions())
	forwarder := events.NewForwarder(bus, hub)
	boards := board.NewService(st, bus)
	exports := newExportService(ctx, cfg, boards)

	handler := api.NewHandler(boards, exports, hub, cfg)
	router := api.NewRouter(handler, cfg)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		// Websocket connections are hijacked and not subject to WriteTimeout.
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  2 * time.Minute,
	}

	tree, err := supervisor.New(logging.NewSlogLogger(), supervisor.TreeConfig{ShutdownTimeout: shutdownTimeout})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	tree.AddDataService(services.NewRepairService(boards, 0))
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddMessagingService(services.NewEventForwarderService(forwarder))
	tree.AddAPIService(services.NewHTTPServerService(server, shutdownTimeout))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	// errCh receives exactly one value and is never closed.
	var treeErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
		treeErr = <-errCh
	case treeErr = <-errCh:
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	if treeErr != nil && !errors.Is(treeErr, context.Canceled) {
		return fmt.Errorf("supervisor tree: %w", treeErr)
	}
	logging.Info().Msg("Corkboard stopped")
	return nil
}

// newExportService wires webhook delivery and, when a bucket is
// configured, the S3 archive. Archive problems disable archiving only.
func newExportService(ctx context.Context, cfg *config.Config, boards *board.Service) *export.Service {
	sender := export.NewWebhookSender(cfg.Export.Webhook())

	var archiver export.Archiver
	if cfg.Export.ArchiveEnabled() {
		s3, err := export.NewS3Archiver(ctx, cfg.Export.S3())
		if err != nil {
			logging.Warn().Err(err).Msg("Export archive disabled: invalid S3 configuration")
		} else {
			ensureCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err = s3.EnsureBucket(ensureCtx)
			cancel()
			if err != nil {
				logging.Warn().Err(err).Str("bucket", cfg.Export.S3Bucket).Msg("Export archive disabled: bucket unavailable")
			} else {
				archiver = s3
				logging.Info().Str("bucket", cfg.Export.S3Bucket).Msg("Export archive enabled")
			}
		}
	}

	webhookURL := cfg.Export.WebhookURL
	if webhookURL == "" {
		webhookURL = export.DefaultWebhookURL
	}
	logging.Info().Str("webhook_url", webhookURL).Msg("Export service configured")
	return export.NewService(boards, sender, archiver, cfg.Export.WebhookURL)
}

func loggingConfig(cfg *config.Config) logging.Config {
	return logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	}
}

// watchLogging re-applies the logging section when the config file
// changes. Other sections need a restart.
func watchLogging() {
	path := config.ConfigFile()
	if path == "" {
		return
	}
	var mu sync.Mutex
	err := config.WatchConfigFile(path, func() {
		mu.Lock()
		defer mu.Unlock()
		cfg, err := config.Load()
		if err != nil {
			logging.Warn().Err(err).Str("path", path).Msg("Ignoring invalid config change")
			return
		}
		logging.Init(loggingConfig(cfg))
		logging.Info().Str("level", cfg.Logging.Level).Msg("Logging configuration reloaded")
	})
	if err != nil {
		logging.Warn().Err(err).Str("path", path).Msg("Config file watch disabled")
	}
}
