package clickhouse

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"zone-signal-lab/internal/domain"
	"zone-signal-lab/internal/storage"
)

// SummaryStore implements storage.SummaryStore using ClickHouse.
type SummaryStore struct {
	conn *Conn
}

// NewSummaryStore creates a new SummaryStore.
func NewSummaryStore(conn *Conn) *SummaryStore {
	return &SummaryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SummaryStore = (*SummaryStore)(nil)

const summaryColumns = `
	run_id, strategy_id, instrument, timeframe,
	signals, target1_hits, target1_stops, target2_hits, target2_stops, target2_unresolved,
	target1_win_rate, target2_conversion_rate,
	mean_risk_reward, expectancy_r, max_consecutive_losses
`

// Insert adds a summary. Returns ErrDuplicateKey if run_id exists.
func (s *SummaryStore) Insert(ctx context.Context, sum *domain.RunSummary) error {
	if sum == nil || sum.RunID == "" {
		return storage.ErrInvalidInput
	}

	// Check if exists (ReplacingMergeTree will replace, but we want append-only semantics)
	exists, err := s.exists(ctx, sum.RunID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	err = s.conn.Exec(ctx, `INSERT INTO run_summaries (`+summaryColumns+`) VALUES (
			?, ?, ?, ?,
			?, ?, ?, ?, ?, ?,
			?, ?,
			?, ?, ?
		)`,
		sum.RunID, sum.StrategyID, sum.Instrument, sum.Timeframe,
		uint32(sum.Signals), uint32(sum.Target1Hits), uint32(sum.Target1Stops),
		uint32(sum.Target2Hits), uint32(sum.Target2Stops), uint32(sum.Target2Unresolved),
		sum.Target1WinRate, sum.Target2ConversionRate,
		sum.MeanRiskReward, sum.ExpectancyR, uint32(sum.MaxConsecutiveLosses),
	)
	if err != nil {
		return fmt.Errorf("insert run summary: %w", err)
	}
	return nil
}

// GetByRunID retrieves a summary. Returns ErrNotFound if not exists.
func (s *SummaryStore) GetByRunID(ctx context.Context, runID string) (*domain.RunSummary, error) {
	rows, err := s.conn.Query(ctx, `SELECT `+summaryColumns+` FROM run_summaries FINAL WHERE run_id = ? LIMIT 1`, runID)
	if err != nil {
		return nil, fmt.Errorf("query summary: %w", err)
	}
	defer rows.Close()

	sums, err := scanSummaries(rows)
	if err != nil {
		return nil, err
	}
	if len(sums) == 0 {
		return nil, storage.ErrNotFound
	}
	return sums[0], nil
}

// GetAll retrieves all summaries ordered by run_id.
func (s *SummaryStore) GetAll(ctx context.Context) ([]*domain.RunSummary, error) {
	rows, err := s.conn.Query(ctx, `SELECT `+summaryColumns+` FROM run_summaries FINAL ORDER BY run_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query all summaries: %w", err)
	}
	defer rows.Close()

	return scanSummaries(rows)
}

func (s *SummaryStore) exists(ctx context.Context, runID string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx, `SELECT count() FROM run_summaries WHERE run_id = ?`, runID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func scanSummaries(rows driver.Rows) ([]*domain.RunSummary, error) {
	var result []*domain.RunSummary

	for rows.Next() {
		var (
			sum                                    domain.RunSummary
			signals, t1Hits, t1Stops               uint32
			t2Hits, t2Stops, t2Unresolved, maxLoss uint32
		)
		err := rows.Scan(
			&sum.RunID, &sum.StrategyID, &sum.Instrument, &sum.Timeframe,
			&signals, &t1Hits, &t1Stops, &t2Hits, &t2Stops, &t2Unresolved,
			&sum.Target1WinRate, &sum.Target2ConversionRate,
			&sum.MeanRiskReward, &sum.ExpectancyR, &maxLoss,
		)
		if err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
		sum.Signals = int(signals)
		sum.Target1Hits = int(t1Hits)
		sum.Target1Stops = int(t1Stops)
		sum.Target2Hits = int(t2Hits)
		sum.Target2Stops = int(t2Stops)
		sum.Target2Unresolved = int(t2Unresolved)
		sum.MaxConsecutiveLosses = int(maxLoss)

		result = append(result, &sum)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summary rows: %w", err)
	}

	return result, nil
}
