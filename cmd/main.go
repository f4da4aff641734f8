package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/clipcasthq/clipcast-backend/internal/app"
)

func main() {
	application, err := app.New()
	if err != nil {
		fmt.Printf("Failed to start: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	// Embedded worker pool; run cmd/worker separately to scale claims
	// across processes.
	application.Start()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application.Log.Info("API listening", "port", application.Cfg.Port)
	if err := application.Run(ctx); err != nil {
		application.Log.Error("Server failed", "error", err)
	}
}
