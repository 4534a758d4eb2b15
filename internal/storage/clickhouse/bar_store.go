package clickhouse

import (
	"context"
	"fmt"

	"zone-signal-lab/internal/domain"
	"zone-signal-lab/internal/storage"
)

// BarStore implements storage.BarStore using ClickHouse.
type BarStore struct {
	conn *Conn
}

// NewBarStore creates a new BarStore.
func NewBarStore(conn *Conn) *BarStore {
	return &BarStore{conn: conn}
}

// Compile-time interface check.
var _ storage.BarStore = (*BarStore)(nil)

// InsertBulk adds multiple bars. Fails entire batch on duplicate time.
// MergeTree does not enforce uniqueness, so duplicates are checked before the batch is sent.
func (s *BarStore) InsertBulk(ctx context.Context, instrument, timeframe string, bars []*domain.Bar) error {
	if instrument == "" || timeframe == "" {
		return storage.ErrInvalidInput
	}
	if len(bars) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	seen := make(map[int64]struct{}, len(bars))
	minTs, maxTs := bars[0].TimeMs, bars[0].TimeMs
	for _, b := range bars {
		if b == nil {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[b.TimeMs]; exists {
			return storage.ErrDuplicateKey
		}
		seen[b.TimeMs] = struct{}{}
		minTs = min(minTs, b.TimeMs)
		maxTs = max(maxTs, b.TimeMs)
	}

	// Check for duplicates against existing rows
	existing, err := s.times(ctx, instrument, timeframe, minTs, maxTs)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	for _, t := range existing {
		if _, dup := seen[t]; dup {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO bars (
			instrument, timeframe, time_ms,
			open, high, low, close,
			indicators
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, b := range bars {
		indicators := b.Indicators
		if indicators == nil {
			indicators = map[string]float64{}
		}
		err = batch.Append(
			instrument, timeframe, b.TimeMs,
			b.Open, b.High, b.Low, b.Close,
			indicators,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByTimeRange retrieves bars within [start, end] (inclusive), ordered by time ASC.
func (s *BarStore) GetByTimeRange(ctx context.Context, instrument, timeframe string, start, end int64) ([]*domain.Bar, error) {
	query := `
		SELECT time_ms, open, high, low, close, indicators
		FROM bars
		WHERE instrument = ? AND timeframe = ? AND time_ms >= ? AND time_ms <= ?
		ORDER BY time_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, instrument, timeframe, start, end)
	if err != nil {
		return nil, fmt.Errorf("query bars: %w", err)
	}
	defer rows.Close()

	var bars []*domain.Bar
	for rows.Next() {
		var (
			b          domain.Bar
			indicators map[string]float64
		)
		if err := rows.Scan(&b.TimeMs, &b.Open, &b.High, &b.Low, &b.Close, &indicators); err != nil {
			return nil, fmt.Errorf("scan bar row: %w", err)
		}
		if len(indicators) > 0 {
			b.Indicators = indicators
		}
		bars = append(bars, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bar rows: %w", err)
	}

	return bars, nil
}

func (s *BarStore) times(ctx context.Context, instrument, timeframe string, start, end int64) ([]int64, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT time_ms FROM bars
		WHERE instrument = ? AND timeframe = ? AND time_ms >= ? AND time_ms <= ?
	`, instrument, timeframe, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var t int64
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
