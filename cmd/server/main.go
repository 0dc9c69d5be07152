// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/akira/internal/api"
	"github.com/tomtom215/akira/internal/brain"
	"github.com/tomtom215/akira/internal/config"
	"github.com/tomtom215/akira/internal/database"
	"github.com/tomtom215/akira/internal/dispatch"
	"github.com/tomtom215/akira/internal/gate"
	"github.com/tomtom215/akira/internal/logging"
	"github.com/tomtom215/akira/internal/supervisor"
	"github.com/tomtom215/akira/internal/supervisor/services"
	ws "github.com/tomtom215/akira/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("db_driver", cfg.Database.Driver).
		Msg("Starting Akira")

	if cfg.ShouldWarnAboutCORS() {
		logging.Warn().Msg("CORS allows any origin; set CORS_ORIGINS to the storefront domains in production")
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize event store")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event store")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := seedDemoTenant(ctx, db, cfg); err != nil {
		// Close explicitly, deferred calls do not run after Fatal.
		_ = db.Close()
		logging.Fatal().Err(err).Msg("Failed to seed demo tenant")
	}

	// Identity & Quota Gate. Its token cache lives for the process.
	identity := gate.New(db, gate.Options{
		CacheSize: cfg.Intake.TokenCacheSize,
		CacheTTL:  cfg.Intake.TokenCacheTTL,
	})

	hubOpts := ws.Options{
		SendBuffer:   cfg.WebSocket.SendBuffer,
		InboundRate:  cfg.WebSocket.InboundRate,
		InboundBurst: cfg.WebSocket.InboundBurst,
	}
	if cfg.WebSocket.RequireToken {
		hubOpts.Authorizer = identity
	}
	hub := ws.NewHub(hubOpts)

	dispatcher := dispatch.New(db, brain.NewDefaultEngine(&cfg.Decision), hub, dispatch.Options{
		Workers:    cfg.Dispatch.Workers,
		QueueSize:  cfg.Dispatch.QueueSize,
		Timeout:    cfg.Decision.Timeout,
		WindowSize: cfg.Decision.ContextWindow,
		Breaker: dispatch.BreakerOptions{
			Failures:         cfg.Dispatch.BreakerFailures,
			Timeout:          cfg.Dispatch.BreakerTimeout,
			HalfOpenRequests: cfg.Dispatch.BreakerHalfOpens,
		},
	})

	deps := api.Deps{
		Store:      db,
		Gate:       identity,
		Dispatcher: dispatcher,
		Sockets:    hub,
	}
	svcs := supervisor.Services{
		Hub:        services.NewWebSocketHubService(hub),
		Dispatcher: dispatcher,
	}

	if mirror := initEventMirror(&cfg.NATS); mirror != nil {
		deps.Mirror = mirror
		svcs.EventMirror = mirror
	}

	retention, err := initRetention(db, &cfg.Retention)
	if err != nil {
		_ = db.Close()
		logging.Fatal().Err(err).Msg("Failed to initialize retention job")
	}
	if retention != nil {
		svcs.Retention = retention
	}

	handler := api.NewHandler(deps, cfg)
	router := api.NewRouter(handler, &cfg.Security)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
	svcs.HTTP = services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout)

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		_ = db.Close()
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}
	tree.Register(svcs)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	var serveErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
		serveErr = <-errCh
	case serveErr = <-errCh:
	}
	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		logging.Error().Err(serveErr).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Akira stopped")
}

// seedDemoTenant provisions the configured demo tenant.
func seedDemoTenant(ctx context.Context, db *database.DB, cfg *config.Config) error {
	if !cfg.Seed.DemoTenant {
		return nil
	}
	tenant, created, err := db.SeedDemoTenant(ctx, cfg.Seed)
	if err != nil {
		return err
	}
	logging.Info().
		Str("store_id", tenant.ID).
		Bool("created", created).
		Msg("Demo tenant ready")
	return nil
}
