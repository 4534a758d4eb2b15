package app

import (
	"context"
	"errors"

	"zone-signal-lab/internal/ingestion"
	"zone-signal-lab/internal/logger"
	"zone-signal-lab/internal/storage"
)

// IngestCSV loads bars of one series from path into the bar store.
// A series that is already stored for the range is left untouched.
func (a *App) IngestCSV(ctx context.Context, path, instrument, timeframe string, from, to int64) (int, error) {
	if path == "" {
		return 0, nil
	}

	m := ingestion.NewManager(ingestion.ManagerOptions{
		Source: ingestion.NewCSVSource(path),
		Store:  a.BarStore,
	})
	n, err := m.IngestBars(ctx, instrument, timeframe, from, to)
	if errors.Is(err, storage.ErrDuplicateKey) {
		a.Log.Info("bars already stored, skipping ingestion",
			logger.String("path", path),
			logger.String("instrument", instrument),
			logger.String("timeframe", timeframe),
		)
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	a.Log.Info("ingested bars",
		logger.String("path", path),
		logger.String("instrument", instrument),
		logger.String("timeframe", timeframe),
		logger.Int("bars", n),
	)
	return n, nil
}
