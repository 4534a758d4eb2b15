package app

import (
	"context"
	"errors"
	"time"

	"zone-signal-lab/internal/domain"
	"zone-signal-lab/internal/observability"
	"zone-signal-lab/internal/storage"
)

// Database labels for query metrics
const (
	dbPostgres   = "postgres"
	dbClickHouse = "clickhouse"
)

type queryTimer struct {
	database string
	metrics  *observability.Metrics
}

func (q queryTimer) observe(op string, start time.Time, err error) {
	q.metrics.RecordDBQuery(q.database, op, time.Since(start).Seconds(), err)
}

// observedRunStore records query duration and errors of a RunStore.
type observedRunStore struct {
	next storage.RunStore
	queryTimer
}

func observeRuns(next storage.RunStore, m *observability.Metrics) storage.RunStore {
	return &observedRunStore{next: next, queryTimer: queryTimer{database: dbPostgres, metrics: m}}
}

func (s *observedRunStore) Insert(ctx context.Context, run *domain.RunRecord, outcomes []*domain.OutcomeRecord) (err error) {
	defer func(start time.Time) { s.observe("insert_run", start, err) }(time.Now())
	return s.next.Insert(ctx, run, outcomes)
}

func (s *observedRunStore) GetByID(ctx context.Context, runID string) (r *domain.RunRecord, err error) {
	defer func(start time.Time) { s.observe("get_run", start, notFoundIsOK(err)) }(time.Now())
	return s.next.GetByID(ctx, runID)
}

func (s *observedRunStore) GetOutcomes(ctx context.Context, runID string) (o []*domain.OutcomeRecord, err error) {
	defer func(start time.Time) { s.observe("get_outcomes", start, err) }(time.Now())
	return s.next.GetOutcomes(ctx, runID)
}

func (s *observedRunStore) GetAll(ctx context.Context) (r []*domain.RunRecord, err error) {
	defer func(start time.Time) { s.observe("get_runs", start, err) }(time.Now())
	return s.next.GetAll(ctx)
}

// observedBarStore records query duration and errors of a BarStore.
type observedBarStore struct {
	next storage.BarStore
	queryTimer
}

func observeBars(next storage.BarStore, m *observability.Metrics) storage.BarStore {
	return &observedBarStore{next: next, queryTimer: queryTimer{database: dbClickHouse, metrics: m}}
}

func (s *observedBarStore) InsertBulk(ctx context.Context, instrument, timeframe string, bars []*domain.Bar) (err error) {
	defer func(start time.Time) { s.observe("insert_bars", start, err) }(time.Now())
	return s.next.InsertBulk(ctx, instrument, timeframe, bars)
}

func (s *observedBarStore) GetByTimeRange(ctx context.Context, instrument, timeframe string, start, end int64) (b []*domain.Bar, err error) {
	defer func(t time.Time) { s.observe("get_bars", t, err) }(time.Now())
	return s.next.GetByTimeRange(ctx, instrument, timeframe, start, end)
}

// observedSummaryStore records query duration and errors of a SummaryStore.
type observedSummaryStore struct {
	next storage.SummaryStore
	queryTimer
}

func observeSummaries(next storage.SummaryStore, m *observability.Metrics) storage.SummaryStore {
	return &observedSummaryStore{next: next, queryTimer: queryTimer{database: dbClickHouse, metrics: m}}
}

func (s *observedSummaryStore) Insert(ctx context.Context, sum *domain.RunSummary) (err error) {
	defer func(start time.Time) { s.observe("insert_summary", start, err) }(time.Now())
	return s.next.Insert(ctx, sum)
}

func (s *observedSummaryStore) GetByRunID(ctx context.Context, runID string) (sum *domain.RunSummary, err error) {
	defer func(start time.Time) { s.observe("get_summary", start, notFoundIsOK(err)) }(time.Now())
	return s.next.GetByRunID(ctx, runID)
}

func (s *observedSummaryStore) GetAll(ctx context.Context) (sums []*domain.RunSummary, err error) {
	defer func(start time.Time) { s.observe("get_summaries", start, err) }(time.Now())
	return s.next.GetAll(ctx)
}

// notFoundIsOK keeps expected lookups misses out of the error counter.
func notFoundIsOK(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return err
}

var (
	_ storage.RunStore     = (*observedRunStore)(nil)
	_ storage.BarStore     = (*observedBarStore)(nil)
	_ storage.SummaryStore = (*observedSummaryStore)(nil)
)
