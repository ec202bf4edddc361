// Interview coach server. Exposes the HTTP API and orchestrates the
// observer/interviewer/evaluator agents per session.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/RomiconEZ/Multi-Agent-Interview-Coach/pkg/api"
	"github.com/RomiconEZ/Multi-Agent-Interview-Coach/pkg/cache"
	"github.com/RomiconEZ/Multi-Agent-Interview-Coach/pkg/config"
	"github.com/RomiconEZ/Multi-Agent-Interview-Coach/pkg/llm"
	"github.com/RomiconEZ/Multi-Agent-Interview-Coach/pkg/obs"
	"github.com/RomiconEZ/Multi-Agent-Interview-Coach/pkg/session"
	"github.com/RomiconEZ/Multi-Agent-Interview-Coach/pkg/version"
)

func logLevel() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func main() {
	envFile := flag.String("env-file", ".env", "Path to the environment file")
	flag.Parse()

	// Load .env; a missing file is fine, the environment may already be set
	if err := godotenv.Load(*envFile); err != nil {
		slog.Warn("Could not load env file, continuing with existing environment",
			"path", *envFile, "error", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel()}))
	slog.SetDefault(logger)

	// 1. Configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger.Info("Starting interview coach",
		"version", version.Full(),
		"http_port", cfg.HTTP.Port,
		"model", cfg.LLM.Model,
		"max_turns", cfg.Interview.MaxTurns)

	// 2. Trace exporter (no-op unless Langfuse is configured)
	tracker := obs.NewTracker(obs.LangfuseConfig{
		Enabled:   cfg.Langfuse.Enabled,
		PublicKey: cfg.Langfuse.PublicKey,
		SecretKey: cfg.Langfuse.SecretKey,
		Host:      cfg.Langfuse.Host,
	}, logger)

	// 3. Model discovery client and cache. Sessions build their own
	// gateways; this client serves only the /models endpoint.
	discovery := llm.NewClient(llm.ClientConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout,
	}, llm.Options{Logger: logger})

	modelCache := cache.NewModelCache(cfg.RedisCache, logger)
	defer func() {
		if err := modelCache.Close(); err != nil {
			logger.Error("Error closing model cache", "error", err)
		}
	}()
	if cfg.RedisCache.Host != "" {
		logger.Info("Model cache enabled",
			"host", cfg.RedisCache.Host, "ttl", cfg.RedisCache.TTL)
	}

	// 4. Session manager and HTTP server
	manager := session.NewManager(cfg, session.Deps{
		Tracker: tracker,
		Logger:  logger,
	})
	httpServer := api.NewServer(manager, discovery, modelCache, cfg.HTTP, logger).HTTPServer()

	// 5. Start HTTP server (non-blocking)
	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			errCh <- err
		}
	}()

	// 6. Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case err := <-errCh:
		logger.Error("Server error triggered shutdown", "error", err)
	}

	// 7. Graceful shutdown: stop accepting requests, then flush traces
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	if err := tracker.Flush(shutdownCtx); err != nil {
		logger.Warn("Final trace flush failed", "error", err)
	}

	logger.Info("Shutdown complete")
}
