package ingestion

import (
	"context"
	"fmt"
	"os"

	"zone-signal-lab/internal/domain"
	"zone-signal-lab/internal/storage"
)

// BarSource provides raw bars from an external source.
type BarSource interface {
	// Fetch returns bars of one series within time range [from, to] (inclusive).
	// Bars may be unordered; Manager enforces deterministic ordering.
	Fetch(ctx context.Context, instrument, timeframe string, from, to int64) ([]*domain.Bar, error)
}

// CSVSource reads one series from a CSV file.
// The file holds a single instrument and timeframe, so those arguments are ignored.
type CSVSource struct {
	path string
}

// NewCSVSource creates a source backed by the CSV file at path.
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

// Fetch reads the file and returns bars within [from, to].
// A zero to means no upper bound.
func (s *CSVSource) Fetch(_ context.Context, _, _ string, from, to int64) ([]*domain.Bar, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open bars csv: %w", err)
	}
	defer f.Close()

	bars, err := ReadBarsCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	return FilterRange(bars, from, to), nil
}

// StoreSource serves bars already persisted in a BarStore.
type StoreSource struct {
	store storage.BarStore
}

// NewStoreSource creates a source reading from store.
func NewStoreSource(store storage.BarStore) *StoreSource {
	return &StoreSource{store: store}
}

// Fetch delegates to BarStore.GetByTimeRange.
func (s *StoreSource) Fetch(ctx context.Context, instrument, timeframe string, from, to int64) ([]*domain.Bar, error) {
	return s.store.GetByTimeRange(ctx, instrument, timeframe, from, to)
}

// FilterRange keeps bars with from <= TimeMs <= to. A zero to means no upper bound.
func FilterRange(bars []*domain.Bar, from, to int64) []*domain.Bar {
	var out []*domain.Bar
	for _, b := range bars {
		if b.TimeMs < from || (to > 0 && b.TimeMs > to) {
			continue
		}
		out = append(out, b)
	}
	return out
}

var (
	_ BarSource = (*CSVSource)(nil)
	_ BarSource = (*StoreSource)(nil)
)
