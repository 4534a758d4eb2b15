package ingestion

import (
	"context"

	"zone-signal-lab/internal/storage"
)

// Manager moves bars from a source into storage.
// It enforces deterministic ordering and uses storage layer for duplicate rejection.
type Manager struct {
	source BarSource
	store  storage.BarStore
}

// ManagerOptions contains configuration for creating a Manager.
type ManagerOptions struct {
	Source BarSource
	Store  storage.BarStore
}

// NewManager creates a new ingestion manager with the provided source and store.
func NewManager(opts ManagerOptions) *Manager {
	return &Manager{
		source: opts.Source,
		store:  opts.Store,
	}
}

// IngestBars fetches bars of one series and stores them.
// Bars are sorted by time, validated, and rejected on repeated timestamps.
// Returns count of ingested bars and any error.
// Bars already stored are rejected by the storage layer (ErrDuplicateKey).
func (m *Manager) IngestBars(ctx context.Context, instrument, timeframe string, from, to int64) (int, error) {
	if m.source == nil || m.store == nil {
		return 0, nil
	}

	bars, err := m.source.Fetch(ctx, instrument, timeframe, from, to)
	if err != nil {
		return 0, err
	}

	if len(bars) == 0 {
		return 0, nil
	}

	if err := ValidateBars(bars); err != nil {
		return 0, err
	}

	// Enforce deterministic ordering
	SortBars(bars)
	if err := ValidateBarOrdering(bars); err != nil {
		return 0, err
	}

	// Store via bulk insert - storage layer handles duplicates
	if err := m.store.InsertBulk(ctx, instrument, timeframe, bars); err != nil {
		return 0, err
	}

	return len(bars), nil
}
