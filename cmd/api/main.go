package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/riskibarqy/matchfeed/internal/app"
	"github.com/riskibarqy/matchfeed/internal/config"
	"github.com/riskibarqy/matchfeed/internal/observability"
	"github.com/riskibarqy/matchfeed/internal/platform/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	telemetry, err := observability.Start(cfg)
	if err != nil {
		logging.NewJSON(cfg.LogLevel).Error("start telemetry", "error", err)
		return 1
	}
	logger := telemetry.Logger

	srv, cleanup, err := app.NewHTTPServer(cfg, logger)
	if err != nil {
		logger.Error("build app", "error", err)
		_ = telemetry.Shutdown(context.Background())
		return 1
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "addr", cfg.HTTPAddr, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	exitCode := 0
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		logger.Error("http server failed", "error", err)
		exitCode = 1
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		exitCode = 1
	}
	if err := cleanup(); err != nil {
		logger.Warn("close resources failed", "error", err)
	}

	logger.Info("http server stopped")
	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		logging.NewJSON(cfg.LogLevel).Warn("shutdown telemetry failed", "error", err)
		exitCode = 1
	}
	return exitCode
}
