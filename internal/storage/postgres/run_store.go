package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"zone-signal-lab/internal/domain"
	"zone-signal-lab/internal/storage"
)

// RunStore implements storage.RunStore using PostgreSQL.
type RunStore struct {
	pool *Pool
}

// NewRunStore creates a new RunStore.
func NewRunStore(pool *Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

const runColumns = `
	run_id, strategy_id, instrument, timeframe,
	window_from, window_to,
	stop_distance, target1_distance, target2_distance,
	pip_size, tie_break,
	raw_params, normalized_params, requester_id,
	identity_fallback, bar_count, signal_count, outcome_count,
	created_at_ms
`

const outcomeColumns = `
	outcome_id, run_id, signal_index, signal_time_ms,
	direction, entry_price, zone_type,
	stop_level, target_level, stop_distance, target_distance, risk_reward,
	phase, result, exit_time_ms
`

// Insert adds a run and its outcomes in one transaction.
// Returns ErrDuplicateKey if run_id or any outcome_id exists.
func (s *RunStore) Insert(ctx context.Context, run *domain.RunRecord, outcomes []*domain.OutcomeRecord) error {
	if run == nil || run.RunID == "" {
		return storage.ErrInvalidInput
	}

	raw, err := json.Marshal(paramsOrEmpty(run.Descriptor.RawParams))
	if err != nil {
		return fmt.Errorf("%w: raw params: %v", storage.ErrInvalidInput, err)
	}
	normalized, err := json.Marshal(paramsOrEmpty(run.Descriptor.NormalizedParams))
	if err != nil {
		return fmt.Errorf("%w: normalized params: %v", storage.ErrInvalidInput, err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	d := run.Descriptor
	_, err = tx.Exec(ctx, `INSERT INTO runs (`+runColumns+`) VALUES (
			$1, $2, $3, $4,
			$5, $6,
			$7, $8, $9,
			$10, $11,
			$12, $13, $14,
			$15, $16, $17, $18,
			$19
		)`,
		run.RunID, d.StrategyID, d.Instrument, d.Timeframe,
		d.Window.From, d.Window.To,
		d.StopDistance, d.Target1Distance, d.Target2Distance,
		d.PipSize, d.TieBreak,
		raw, normalized, d.RequesterID,
		run.IdentityFallback, run.BarCount, run.SignalCount, run.OutcomeCount,
		run.CreatedAtMs,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert run: %w", err)
	}

	query := `INSERT INTO outcome_records (` + outcomeColumns + `) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7,
			$8, $9, $10, $11, $12,
			$13, $14, $15
		)`

	for _, o := range outcomes {
		if o == nil || o.OutcomeID == "" || o.RunID != run.RunID {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, query,
			o.OutcomeID, o.RunID, o.SignalIndex, o.SignalTimeMs,
			string(o.Direction), o.EntryPrice, string(o.ZoneType),
			o.StopLevel, o.TargetLevel, o.StopDistance, o.TargetDistance, o.RiskReward,
			string(o.Phase), string(o.Result), o.ExitTimeMs,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert outcome record: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(ctx context.Context, runID string) (*domain.RunRecord, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = $1`, runID)
	r, err := scanRun(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get run by id: %w", err)
	}
	return r, nil
}

// GetOutcomes retrieves outcomes of a run, ordered by (signal_index, phase).
func (s *RunStore) GetOutcomes(ctx context.Context, runID string) ([]*domain.OutcomeRecord, error) {
	query := `SELECT ` + outcomeColumns + `
		FROM outcome_records
		WHERE run_id = $1
		ORDER BY signal_index ASC, phase ASC`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get outcome records by run id: %w", err)
	}
	defer rows.Close()

	return scanOutcomes(rows)
}

// GetAll retrieves all runs ordered by created_at ASC.
func (s *RunStore) GetAll(ctx context.Context) ([]*domain.RunRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+runColumns+` FROM runs ORDER BY created_at_ms ASC, run_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("get all runs: %w", err)
	}
	defer rows.Close()

	var runs []*domain.RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}

	return runs, nil
}

// scanRun scans a single row into a RunRecord.
func scanRun(row pgx.Row) (*domain.RunRecord, error) {
	var (
		r               domain.RunRecord
		raw, normalized []byte
	)
	d := &r.Descriptor

	err := row.Scan(
		&r.RunID, &d.StrategyID, &d.Instrument, &d.Timeframe,
		&d.Window.From, &d.Window.To,
		&d.StopDistance, &d.Target1Distance, &d.Target2Distance,
		&d.PipSize, &d.TieBreak,
		&raw, &normalized, &d.RequesterID,
		&r.IdentityFallback, &r.BarCount, &r.SignalCount, &r.OutcomeCount,
		&r.CreatedAtMs,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(raw, &d.RawParams); err != nil {
		return nil, fmt.Errorf("decode raw params: %w", err)
	}
	if err := json.Unmarshal(normalized, &d.NormalizedParams); err != nil {
		return nil, fmt.Errorf("decode normalized params: %w", err)
	}

	return &r, nil
}

// scanOutcomes scans multiple rows into a slice of OutcomeRecord.
func scanOutcomes(rows pgx.Rows) ([]*domain.OutcomeRecord, error) {
	var outcomes []*domain.OutcomeRecord

	for rows.Next() {
		var (
			o                              domain.OutcomeRecord
			direction, zone, phase, result string
		)

		err := rows.Scan(
			&o.OutcomeID, &o.RunID, &o.SignalIndex, &o.SignalTimeMs,
			&direction, &o.EntryPrice, &zone,
			&o.StopLevel, &o.TargetLevel, &o.StopDistance, &o.TargetDistance, &o.RiskReward,
			&phase, &result, &o.ExitTimeMs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan outcome record row: %w", err)
		}
		o.Direction = domain.Direction(direction)
		o.ZoneType = domain.ZoneType(zone)
		o.Phase = domain.Phase(phase)
		o.Result = domain.Result(result)

		outcomes = append(outcomes, &o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcome record rows: %w", err)
	}

	return outcomes, nil
}

func paramsOrEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
