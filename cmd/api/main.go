package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"yardops/internal/app"
	"yardops/internal/config"
	"yardops/internal/httpserver"
	"yardops/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatalw("init app", "error", err)
	}
	defer a.Close()

	loadCtx, cancelLoad := context.WithTimeout(ctx, 30*time.Second)
	if err := a.Load(loadCtx); err != nil {
		// Readiness stays false until a later refresh succeeds.
		logger.Errorw("initial load failed", "error", err)
	}
	cancelLoad()

	srv, err := httpserver.New(cfg.HTTPAddr, logger, a.Deps(), httpserver.Options{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRPS:       cfg.RateLimitRPS,
		RateLimitBurst:     cfg.RateLimitBurst,
	})
	if err != nil {
		logger.Fatalw("init server", "error", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Infow("starting http server", "addr", cfg.HTTPAddr, "backend", cfg.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Infow("received signal, shutting down", "signal", sig.String())
	case err := <-serverErr:
		logger.Errorw("server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("graceful shutdown failed", "error", err)
	} else {
		logger.Infow("server stopped")
	}
}
