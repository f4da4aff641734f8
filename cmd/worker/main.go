package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/clipcasthq/clipcast-backend/internal/app"
)

// Worker-only process: claims and runs queued jobs against the shared
// store. Any number of these can run next to the API.
func main() {
	application, err := app.New()
	if err != nil {
		fmt.Printf("Failed to start: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	application.Start()
	application.Log.Info("Worker running", "max_attempts", application.Cfg.MaxJobAttempts)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	application.Log.Info("Worker shutting down")
}
