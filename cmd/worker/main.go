package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"strawpoll/internal/app/bootstrap"
)

// Worker process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring.
// 3) Relay poll outbox rows to the event bus until signalled.
func main() {
	slog.Info("strawpoll worker starting", "event", "worker_starting")
	app, err := bootstrap.BuildWorker()
	if err != nil {
		slog.Error("bootstrap worker failed", "event", "worker_bootstrap_failed", "error", err.Error())
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			slog.Error("worker shutdown close failed", "event", "worker_close_failed", "error", err.Error())
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		slog.Error("strawpoll worker stopped with error", "event", "worker_stopped", "error", err.Error())
	}
}
