// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lebensschule/journal-edge/internal/analysis"
	"github.com/lebensschule/journal-edge/internal/api"
	"github.com/lebensschule/journal-edge/internal/breaker"
	"github.com/lebensschule/journal-edge/internal/config"
	"github.com/lebensschule/journal-edge/internal/gate"
	"github.com/lebensschule/journal-edge/internal/journal"
	"github.com/lebensschule/journal-edge/internal/logging"
	"github.com/lebensschule/journal-edge/internal/proxy"
	"github.com/lebensschule/journal-edge/internal/supervisor"
	"github.com/lebensschule/journal-edge/internal/supervisor/services"
	ws "github.com/lebensschule/journal-edge/internal/websocket"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logging is not configured yet, the default JSON logger is used.
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Service:   "journal-edge",
		Version:   version,
		Output:    os.Stderr,
	})

	logging.Info().
		Str("upstream", cfg.Upstream.BaseURL).
		Str("environment", cfg.Server.Environment).
		Msg("Starting journal edge")

	warnAboutSecurity(cfg)

	handler, hub, err := buildHandler(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize edge")
	}

	server := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
		// No WriteTimeout: analysis streams stay open for minutes.
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddSystemService(services.NewUptimeService(version, 15*time.Second))
	tree.AddStreamService(services.NewStreamHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
	}

	logging.Info().Msg("Journal edge stopped")
}

// buildHandler wires the gate, proxy, backend client and stream hub into
// the HTTP handler.
func buildHandler(cfg *config.Config) (http.Handler, *ws.Hub, error) {
	proxyCfg := proxy.ConfigFromUpstream(cfg.Upstream)
	proxyCfg.WriteError = api.WriteError
	edgeProxy, err := proxy.New(proxyCfg)
	if err != nil {
		return nil, nil, err
	}

	backend, err := journal.NewClient(journal.OptionsFromConfig(cfg.Upstream))
	if err != nil {
		return nil, nil, err
	}

	hub := ws.NewHub()
	stream := ws.NewHandler(hub, func(cookie string) analysis.Fetcher {
		return backend.WithCookie(cookie)
	}, ws.HandlerConfig{
		CookieName:     cfg.Gate.CookieName,
		Analysis:       analysis.FromConfig(cfg.Analysis),
		AllowedOrigins: cfg.Security.CORSOrigins,
		WriteError:     api.WriteError,
	})

	router := api.NewRouter(api.RouterDeps{
		Gate:   gate.New(cfg.Gate),
		Proxy:  edgeProxy,
		Stream: stream,
		Health: api.NewHealthHandler(
			[]*breaker.Breaker{edgeProxy.Breaker()},
			[]*breaker.Breaker{backend.Breaker()},
			hub.GetClientCount,
		),
		Middleware: api.ChiMiddlewareConfigFromSecurity(cfg.Security),
		StaticDir:  cfg.Server.StaticDir,
	})

	return router.Handler(), hub, nil
}

func warnAboutSecurity(cfg *config.Config) {
	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}
	if cfg.ShouldWarnAboutCORS() {
		logging.Warn().Msg("CORS_ORIGINS contains '*': any site can send credentialed requests through the proxy")
	}
	if !cfg.IsDevelopment() && cfg.Server.StaticDir == "" {
		logging.Info().Msg("STATIC_DIR not set, unknown paths answer with a 404 envelope")
	}
}
