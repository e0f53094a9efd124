// Command server runs the Beat Box API.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"beatbox/internal/cache"
	"beatbox/internal/config"
	"beatbox/internal/database"
	"beatbox/internal/middleware"
	"beatbox/internal/observability"
	"beatbox/internal/server"
)

// @title Beat Box API
// @version 1.0
// @description Suggestion box: post suggestions, like them and browse them newest first.

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
	migrate := flag.Bool("migrate", false, "Run schema migrations before serving")
	migrateOnly := flag.Bool("migrate-only", false, "Run schema migrations and exit")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fatal("failed to load configuration", err)
	}

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "beatbox-api",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSamplerRatio,
	})
	if err != nil {
		fatal("failed to initialize tracing", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		fatal("database connection failed", err)
	}
	if *migrate || *migrateOnly {
		if err := database.AutoMigrate(db); err != nil {
			fatal("migration failed", err)
		}
		middleware.Logger.Info("migrations applied")
		if *migrateOnly {
			_ = database.Close(db)
			return
		}
	}

	cache.InitRedis(cfg.RedisURL)
	srv, err := server.NewServerWithDeps(cfg, db, cache.GetClient())
	if err != nil {
		fatal("failed to create server", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		middleware.Logger.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			middleware.Logger.Error("server stopped", "error", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		middleware.Logger.Error("server resource shutdown error", "error", err)
	}
	if err := shutdownTracing(ctx); err != nil {
		middleware.Logger.Error("tracing shutdown error", "error", err)
	}
}

func fatal(msg string, err error) {
	middleware.Logger.Error(msg, "error", err)
	os.Exit(1)
}
