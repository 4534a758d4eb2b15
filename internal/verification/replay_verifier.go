package verification

import (
	"context"
	"errors"
	"fmt"

	"zone-signal-lab/internal/domain"
	"zone-signal-lab/internal/lookup"
	"zone-signal-lab/internal/simulation"
	"zone-signal-lab/internal/storage"
)

// ErrRunNotFound is returned when run ID doesn't exist.
var ErrRunNotFound = errors.New("run not found")

// ReplayVerifier implements Verifier by re-evaluating stored bars.
type ReplayVerifier struct {
	runner       *simulation.Runner
	runStore     storage.RunStore
	barStore     storage.BarStore
	summaryStore storage.SummaryStore
}

// ReplayVerifierOptions contains configuration for creating a ReplayVerifier.
// The Runner must be configured with the unit sizes and tie-break policy
// the runs were produced with.
type ReplayVerifierOptions struct {
	Runner       *simulation.Runner
	RunStore     storage.RunStore
	BarStore     storage.BarStore
	SummaryStore storage.SummaryStore // optional
}

// NewReplayVerifier creates a new ReplayVerifier.
func NewReplayVerifier(opts ReplayVerifierOptions) *ReplayVerifier {
	return &ReplayVerifier{
		runner:       opts.Runner,
		runStore:     opts.RunStore,
		barStore:     opts.BarStore,
		summaryStore: opts.SummaryStore,
	}
}

var _ Verifier = (*ReplayVerifier)(nil)

// VerifyRun replays one run. Replay failures are reported in Report.Error;
// the returned error covers storage failures and unknown runs.
func (v *ReplayVerifier) VerifyRun(ctx context.Context, runID string) (*Report, error) {
	// 1. Load stored run
	run, err := v.runStore.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	stored, err := v.runStore.GetOutcomes(ctx, runID)
	if err != nil {
		return nil, err
	}

	report := &Report{
		RunID:          runID,
		StoredOutcomes: len(stored),
	}

	// 2. Replay
	eval, err := v.replay(ctx, run.Descriptor)
	if err != nil {
		report.Error = err.Error()
		return report, nil
	}
	report.ReplayedRunID = eval.Identity.ID
	report.ReplayedOutcomes = len(eval.Outcomes)

	// 3. Compare records
	report.Matched, report.Results = CompareOutcomeSets(stored, eval.Outcomes)
	report.Divergent = len(report.Results)

	// 4. Compare stored summary
	if v.summaryStore != nil {
		summary, err := v.summaryStore.GetByRunID(ctx, runID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
		case err != nil:
			return nil, err
		default:
			if d := CompareSummaries(summary, eval.Summary); len(d) > 0 {
				report.Results = append(report.Results, OutcomeResult{OutcomeID: "summary", Divergences: d})
				report.Divergent++
			}
		}
	}

	return report, nil
}

// VerifyAll verifies all stored runs.
func (v *ReplayVerifier) VerifyAll(ctx context.Context) (*BatchReport, error) {
	runs, err := v.runStore.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	batch := &BatchReport{
		TotalRuns: len(runs),
		Reports:   make([]*Report, 0, len(runs)),
	}
	for _, run := range runs {
		report, err := v.VerifyRun(ctx, run.RunID)
		if err != nil {
			return nil, fmt.Errorf("verify run %s: %w", run.RunID, err)
		}
		batch.Reports = append(batch.Reports, report)
		if report.Match() {
			batch.MatchedRuns++
		} else {
			batch.DivergentRuns++
		}
	}
	return batch, nil
}

func (v *ReplayVerifier) replay(ctx context.Context, desc domain.RunDescriptor) (*simulation.Evaluation, error) {
	from, to, err := desc.Window.Bounds()
	if err != nil {
		return nil, err
	}
	bars, err := v.barStore.GetByTimeRange(ctx, desc.Instrument, desc.Timeframe, from, to)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, lookup.ErrNoBarData
	}
	return v.runner.Evaluate(desc, bars)
}
