// Command main is the entry point for the ViralPik backend server.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"viralpik/internal/bootstrap"
	"viralpik/internal/config"
	"viralpik/internal/middleware"
	"viralpik/internal/observability"
	"viralpik/internal/server"
)

// @title ViralPik API
// @version 1.0
// @description Marketplace API for creator assets: submissions, moderation, feed, downloads and collections
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@viralpik.app

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8375
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	if err := run(); err != nil {
		middleware.Logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logs := middleware.ConfigureLogger(middleware.LogOptions{Env: cfg.Env, Level: cfg.LogLevel, File: cfg.LogFile})
	defer func() { _ = logs.Close() }()
	observability.SetLogger(middleware.Logger)

	stopTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "viralpik-api",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSampleRatio,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, rdb, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{ApplySchema: true})
	if err != nil {
		return fmt.Errorf("init runtime: %w", err)
	}
	srv, err := server.NewServerWithDeps(cfg, db, rdb)
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Start() }()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	middleware.Logger.Info("shutdown requested")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return errors.Join(srv.Shutdown(shutdownCtx), stopTracing(shutdownCtx))
}
