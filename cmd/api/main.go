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

	"github.com/mohammadpnp/jobposting-import/internal/bootstrap"
	"github.com/mohammadpnp/jobposting-import/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := bootstrap.NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	log.SetFlags(0)
	log.SetOutput(logger)

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	application, err := bootstrap.NewApp(workerCtx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to start application")
	}
	defer application.Close()

	application.Scheduler.Start(workerCtx)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := application.Server.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-serverErr:
		logger.Error().Err(err).Msg("http server failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := application.Server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	stopWorkers()
	application.Runner.Wait()
	logger.Info().Msg("import runs stopped")
}
