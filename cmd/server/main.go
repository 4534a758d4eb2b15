// Package main serves run requests over HTTP together with health,
// status and Prometheus metrics endpoints.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"zone-signal-lab/internal/app"
	"zone-signal-lab/internal/logger"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "YAML config file")
	envFile := flag.String("env-file", ".env", "dotenv file with ZSL_* overrides")
	addr := flag.String("addr", ":8080", "HTTP listen address")
	shutdownTimeout := flag.Duration("shutdown-timeout", 30*time.Second, "Graceful shutdown timeout")
	flag.Parse()

	cfg, log, err := app.LoadConfig(*configPath, *envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	ctx, cancel := app.SignalContext(log)
	defer cancel()

	a, err := app.Open(ctx, cfg, log)
	if err != nil {
		log.Error("open backends", logger.Error(err))
		os.Exit(1)
	}
	defer a.Close()

	runner, err := a.Runner()
	if err != nil {
		log.Error("build runner", logger.Error(err))
		os.Exit(2)
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           NewServer(a, runner).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), *shutdownTimeout)
		defer done()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("graceful shutdown failed", logger.Error(err))
		}
	}()

	log.Info("starting HTTP server", logger.String("addr", *addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("HTTP server error", logger.Error(err))
		os.Exit(1)
	}

	a.WriteMetrics()
	log.Info("shutdown complete")
}
