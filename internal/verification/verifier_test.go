package verification

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zone-signal-lab/internal/domain"
	"zone-signal-lab/internal/outcome"
	"zone-signal-lab/internal/params"
	"zone-signal-lab/internal/simulation"
	"zone-signal-lab/internal/storage/memory"
)

func testOutcome() *domain.OutcomeRecord {
	return &domain.OutcomeRecord{
		OutcomeID:      "o1",
		RunID:          "run1",
		SignalIndex:    0,
		SignalTimeMs:   1000,
		Direction:      domain.DirectionLong,
		EntryPrice:     1.1,
		ZoneType:       domain.ZoneGapUp,
		StopLevel:      1.098,
		TargetLevel:    1.103,
		StopDistance:   0.002,
		TargetDistance: 0.003,
		RiskReward:     1.5,
		Phase:          domain.PhaseTarget1,
		Result:         domain.ResultTarget1Hit,
		ExitTimeMs:     2000,
	}
}

func TestCompareOutcomeRecords_ExactMatch(t *testing.T) {
	divergences := CompareOutcomeRecords(testOutcome(), testOutcome())
	if len(divergences) != 0 {
		t.Errorf("Expected 0 divergences, got %d: %v", len(divergences), divergences)
	}
}

func TestCompareOutcomeRecords_WithinTolerance(t *testing.T) {
	replayed := testOutcome()
	replayed.EntryPrice += 1e-10
	replayed.RiskReward -= 5e-10

	assert.Empty(t, CompareOutcomeRecords(testOutcome(), replayed))
}

func TestCompareOutcomeRecords_Divergences(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.OutcomeRecord)
		field  string
	}{
		{"result", func(o *domain.OutcomeRecord) { o.Result = domain.ResultStopHit }, "Result"},
		{"exit time", func(o *domain.OutcomeRecord) { o.ExitTimeMs = 3000 }, "ExitTimeMs"},
		{"stop level", func(o *domain.OutcomeRecord) { o.StopLevel += 1e-6 }, "StopLevel"},
		{"direction", func(o *domain.OutcomeRecord) { o.Direction = domain.DirectionShort }, "Direction"},
		{"signal index", func(o *domain.OutcomeRecord) { o.SignalIndex = 1 }, "SignalIndex"},
		{"nan entry", func(o *domain.OutcomeRecord) { o.EntryPrice = math.NaN() }, "EntryPrice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			replayed := testOutcome()
			tt.mutate(replayed)

			d := CompareOutcomeRecords(testOutcome(), replayed)
			require.Len(t, d, 1)
			assert.Equal(t, tt.field, d[0].Field)
		})
	}
}

func TestCompareOutcomeSets(t *testing.T) {
	a, b, c := testOutcome(), testOutcome(), testOutcome()
	b.OutcomeID = "o2"
	c.OutcomeID = "o3"

	changed := testOutcome()
	changed.OutcomeID = "o2"
	changed.Result = domain.ResultStopHit

	matched, results := CompareOutcomeSets(
		[]*domain.OutcomeRecord{a, b, c},
		[]*domain.OutcomeRecord{testOutcome(), changed, func() *domain.OutcomeRecord { x := testOutcome(); x.OutcomeID = "o4"; return x }()},
	)

	assert.Equal(t, 1, matched)
	require.Len(t, results, 3)
	assert.Equal(t, "o2", results[0].OutcomeID)
	assert.Len(t, results[0].Divergences, 1)
	assert.Equal(t, "o3", results[1].OutcomeID)
	assert.True(t, results[1].Missing)
	assert.Equal(t, "o4", results[2].OutcomeID)
	assert.True(t, results[2].Extra)
}

func TestCompareSummaries(t *testing.T) {
	s := &domain.RunSummary{Signals: 4, Target1Hits: 2, Target1WinRate: 0.5, ExpectancyR: 0.25}
	r := *s
	assert.Empty(t, CompareSummaries(s, &r))

	r.Target1WinRate = 0.75
	d := CompareSummaries(s, &r)
	require.Len(t, d, 1)
	assert.Equal(t, "Target1WinRate", d[0].Field)
}

// --- replay ---

var baseMs = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC).UnixMilli()

func replayBars() []*domain.Bar {
	const step = int64(5 * time.Minute / time.Millisecond)
	rows := [][4]float64{
		{98, 99, 97, 98.5},
		{99.5, 100.5, 99.2, 100.3},
		{101.5, 103, 101, 102.5},
		{100, 100, 98, 99},
		{101, 103.5, 100.5, 103},
		{103, 105.5, 101, 105},
	}
	bars := make([]*domain.Bar, len(rows))
	for i, r := range rows {
		bars[i] = &domain.Bar{TimeMs: baseMs + int64(i)*step, Open: r[0], High: r[1], Low: r[2], Close: r[3]}
	}
	return bars
}

type replayFixture struct {
	bars      *memory.BarStore
	runs      *memory.RunStore
	summaries *memory.SummaryStore
}

func newReplayFixture(t *testing.T) *replayFixture {
	t.Helper()
	f := &replayFixture{
		bars:      memory.NewBarStore(),
		runs:      memory.NewRunStore(),
		summaries: memory.NewSummaryStore(),
	}
	require.NoError(t, f.bars.InsertBulk(context.Background(), "TEST", "M5", replayBars()))
	return f
}

func (f *replayFixture) runner(tb outcome.TieBreak) *simulation.Runner {
	return simulation.NewRunner(simulation.RunnerOptions{
		BarStore:     f.bars,
		RunStore:     f.runs,
		SummaryStore: f.summaries,
		Normalizer:   params.NewNormalizer(params.WithPipSizes(map[string]float64{"TEST": 1})),
		Resolver:     outcome.NewResolver(tb),
	})
}

func (f *replayFixture) verifier(tb outcome.TieBreak) *ReplayVerifier {
	return NewReplayVerifier(ReplayVerifierOptions{
		Runner:       f.runner(tb),
		RunStore:     f.runs,
		BarStore:     f.bars,
		SummaryStore: f.summaries,
	})
}

func (f *replayFixture) storeRun(t *testing.T) string {
	t.Helper()
	res, err := f.runner(outcome.TargetFirst).Run(context.Background(), simulation.RunRequest{
		StrategyID:  "gap",
		Instrument:  "TEST",
		Timeframe:   "M5",
		Window:      domain.TimeWindow{From: "2024-03-04", To: "2024-03-04"},
		StopPips:    2,
		Target1Pips: 2,
		Target2Pips: 4,
		Params:      map[string]any{"min_gap": 1.5, "min_overlap_ratio": 0.25},
	})
	require.NoError(t, err)
	return res.Run.RunID
}

func TestVerifyRun_Match(t *testing.T) {
	f := newReplayFixture(t)
	runID := f.storeRun(t)

	report, err := f.verifier(outcome.TargetFirst).VerifyRun(context.Background(), runID)
	require.NoError(t, err)

	assert.True(t, report.Match(), "results: %+v", report.Results)
	assert.Equal(t, runID, report.ReplayedRunID)
	assert.Equal(t, 2, report.StoredOutcomes)
	assert.Equal(t, 2, report.ReplayedOutcomes)
	assert.Equal(t, 2, report.Matched)
}

func TestVerifyRun_DetectsChangedBars(t *testing.T) {
	f := newReplayFixture(t)
	runID := f.storeRun(t)

	// Replace the store with a series where target-1 is never reached
	f.bars = memory.NewBarStore()
	bars := replayBars()
	bars[4].High = 102
	bars[5].High = 102
	require.NoError(t, f.bars.InsertBulk(context.Background(), "TEST", "M5", bars))

	report, err := f.verifier(outcome.TargetFirst).VerifyRun(context.Background(), runID)
	require.NoError(t, err)

	assert.False(t, report.Match())
	assert.Equal(t, 1, report.ReplayedOutcomes)
	assert.Positive(t, report.Divergent)
}

func TestVerifyRun_ReplaysStoredEngineSettings(t *testing.T) {
	f := newReplayFixture(t)
	runID := f.storeRun(t)

	// A verifier configured with another tie-break and pip size still
	// replays under the settings stored with the run
	v := NewReplayVerifier(ReplayVerifierOptions{
		Runner: simulation.NewRunner(simulation.RunnerOptions{
			Normalizer: params.NewNormalizer(params.WithPipSizes(map[string]float64{"TEST": 0.01})),
			Resolver:   outcome.NewResolver(outcome.StopFirst),
		}),
		RunStore:     f.runs,
		BarStore:     f.bars,
		SummaryStore: f.summaries,
	})

	report, err := v.VerifyRun(context.Background(), runID)
	require.NoError(t, err)
	assert.True(t, report.Match(), "results: %+v", report.Results)
	assert.Equal(t, runID, report.ReplayedRunID)
}

func TestVerifyRun_NoBars(t *testing.T) {
	f := newReplayFixture(t)
	runID := f.storeRun(t)
	f.bars = memory.NewBarStore()

	report, err := f.verifier(outcome.TargetFirst).VerifyRun(context.Background(), runID)
	require.NoError(t, err)
	assert.False(t, report.Match())
	assert.NotEmpty(t, report.Error)
}

func TestVerifyRun_UnknownRun(t *testing.T) {
	f := newReplayFixture(t)

	_, err := f.verifier(outcome.TargetFirst).VerifyRun(context.Background(), "missing")
	require.ErrorIs(t, err, ErrRunNotFound)
}

func TestVerifyAll(t *testing.T) {
	f := newReplayFixture(t)
	f.storeRun(t)

	batch, err := f.verifier(outcome.TargetFirst).VerifyAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, batch.TotalRuns)
	assert.Equal(t, 1, batch.MatchedRuns)
	assert.Equal(t, 0, batch.DivergentRuns)
}
