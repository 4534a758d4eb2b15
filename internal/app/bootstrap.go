package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"zone-signal-lab/internal/config"
	"zone-signal-lab/internal/logger"
)

// LoadConfig loads configuration and builds the logger it describes.
func LoadConfig(path, envFile string) (*config.Config, *logger.Logger, error) {
	cfg, err := config.LoadWithEnv(path, envFile)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, log, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(log *logger.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			log.Warn("received signal, shutting down", logger.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// WriteMetrics exports metrics to the configured textfile, if any.
func (a *App) WriteMetrics() {
	path := a.Config.Metrics.TextfilePath
	if path == "" {
		return
	}
	if err := a.Metrics.WriteTextfile(path); err != nil {
		a.Log.Warn("write metrics textfile", logger.String("path", path), logger.Error(err))
	}
}
