package storage

import (
	"context"

	"zone-signal-lab/internal/domain"
)

// BarStore provides access to price bar storage.
// Bars are keyed by (instrument, timeframe, time_ms).
type BarStore interface {
	// InsertBulk adds multiple bars atomically. Fails entire batch on duplicate time.
	InsertBulk(ctx context.Context, instrument, timeframe string, bars []*domain.Bar) error

	// GetByTimeRange retrieves bars within [start, end] (inclusive), ordered by time ASC.
	GetByTimeRange(ctx context.Context, instrument, timeframe string, start, end int64) ([]*domain.Bar, error)
}

// RunStore provides access to runs and their outcome records.
type RunStore interface {
	// Insert adds a run and its outcomes atomically.
	// Returns ErrDuplicateKey if run_id or any outcome_id exists; nothing is written then.
	Insert(ctx context.Context, run *domain.RunRecord, outcomes []*domain.OutcomeRecord) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.RunRecord, error)

	// GetOutcomes retrieves outcomes of a run, ordered by (signal_index, phase).
	GetOutcomes(ctx context.Context, runID string) ([]*domain.OutcomeRecord, error)

	// GetAll retrieves all runs ordered by created_at ASC.
	GetAll(ctx context.Context) ([]*domain.RunRecord, error)
}

// SummaryStore provides access to run summaries.
type SummaryStore interface {
	// Insert adds a summary. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, s *domain.RunSummary) error

	// GetByRunID retrieves a summary. Returns ErrNotFound if not exists.
	GetByRunID(ctx context.Context, runID string) (*domain.RunSummary, error)

	// GetAll retrieves all summaries ordered by run_id.
	GetAll(ctx context.Context) ([]*domain.RunSummary, error)
}
