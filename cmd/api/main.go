package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"strawpoll/internal/app/bootstrap"
)

// API process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring (ports + adapters + use cases).
// 3) Start HTTP server.
func main() {
	slog.Info("strawpoll api starting", "event", "api_starting")
	app, err := bootstrap.BuildAPI()
	if err != nil {
		slog.Error("bootstrap api failed", "event", "api_bootstrap_failed", "error", err.Error())
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			slog.Error("api shutdown close failed", "event", "api_close_failed", "error", err.Error())
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		slog.Error("strawpoll api stopped with error", "event", "api_stopped", "error", err.Error())
	}
}
