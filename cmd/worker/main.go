package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yungbote/interview-brief-backend/internal/app"
)

// worker runs the brief_run Temporal worker without the HTTP API.
func main() {
	os.Setenv("RUN_TEMPORAL_WORKER", "true")
	a, err := app.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init worker: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	if a.Services.TemporalWorker == nil {
		a.Log.Error("TEMPORAL_ADDRESS is required for the worker process")
		return
	}
	if err := a.Start(); err != nil {
		a.Log.Error("Worker start failed", "error", err)
		return
	}
	a.Log.Info("Worker running")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	a.Log.Info("Worker shutting down")
}
