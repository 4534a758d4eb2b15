package memory

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"

	"zone-signal-lab/internal/domain"
	"zone-signal-lab/internal/storage"
)

// BarStore is an in-memory implementation of storage.BarStore.
type BarStore struct {
	mu   sync.RWMutex
	data map[string]map[int64]*domain.Bar // series key -> time_ms -> bar
}

// NewBarStore creates a new in-memory bar store.
func NewBarStore() *BarStore {
	return &BarStore{
		data: make(map[string]map[int64]*domain.Bar),
	}
}

// seriesKey generates a unique key for a bar series.
func seriesKey(instrument, timeframe string) string {
	return fmt.Sprintf("%s|%s", instrument, timeframe)
}

// InsertBulk adds multiple bars. Fails entire batch on duplicate.
func (s *BarStore) InsertBulk(_ context.Context, instrument, timeframe string, bars []*domain.Bar) error {
	if instrument == "" || timeframe == "" {
		return storage.ErrInvalidInput
	}
	if len(bars) == 0 {
		return nil
	}

	key := seriesKey(instrument, timeframe)

	s.mu.Lock()
	defer s.mu.Unlock()

	series := s.data[key]

	// Track times in this batch to detect intra-batch duplicates
	batchTimes := make(map[int64]struct{}, len(bars))

	// First pass: check for duplicates (existing + intra-batch)
	for _, b := range bars {
		if b == nil {
			return storage.ErrInvalidInput
		}
		if _, exists := series[b.TimeMs]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchTimes[b.TimeMs]; exists {
			return storage.ErrDuplicateKey
		}
		batchTimes[b.TimeMs] = struct{}{}
	}

	// Second pass: insert all
	if series == nil {
		series = make(map[int64]*domain.Bar, len(bars))
		s.data[key] = series
	}
	for _, b := range bars {
		series[b.TimeMs] = copyBar(b)
	}

	return nil
}

// GetByTimeRange retrieves bars within [start, end] (inclusive), ordered by time ASC.
func (s *BarStore) GetByTimeRange(_ context.Context, instrument, timeframe string, start, end int64) ([]*domain.Bar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Bar
	for t, b := range s.data[seriesKey(instrument, timeframe)] {
		if t >= start && t <= end {
			result = append(result, copyBar(b))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TimeMs < result[j].TimeMs
	})

	return result, nil
}

func copyBar(b *domain.Bar) *domain.Bar {
	c := *b
	c.Indicators = maps.Clone(b.Indicators)
	return &c
}

var _ storage.BarStore = (*BarStore)(nil)
