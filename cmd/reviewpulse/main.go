package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"ReviewPulse/internal/app"
	"ReviewPulse/internal/config"
	"ReviewPulse/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Console)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("startup failed")
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("application stopped")
		os.Exit(1)
	}
}
