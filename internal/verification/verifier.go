// Package verification replays stored runs and checks that the engine
// still produces the same outcome records.
package verification

import (
	"context"
	"math"
	"sort"

	"zone-signal-lab/internal/domain"
)

// FloatTolerance is the tolerance for float64 comparisons.
const FloatTolerance = 1e-9

// FieldDivergence represents a mismatch between stored and replayed values.
type FieldDivergence struct {
	Field    string // field name
	Expected any    // stored value
	Actual   any    // replayed value
}

// OutcomeResult contains the comparison of one outcome record.
type OutcomeResult struct {
	OutcomeID   string
	Match       bool
	Missing     bool // stored but not replayed
	Extra       bool // replayed but not stored
	Divergences []FieldDivergence
}

// Report contains the verification of one run.
type Report struct {
	RunID            string
	ReplayedRunID    string
	StoredOutcomes   int
	ReplayedOutcomes int
	Matched          int
	Divergent        int
	Results          []OutcomeResult // divergent records only
	Error            string          // replay failure, empty on success
}

// Match reports whether the replay reproduced the run exactly.
func (r *Report) Match() bool {
	return r.Error == "" && r.RunID == r.ReplayedRunID && r.Divergent == 0
}

// BatchReport aggregates run reports.
type BatchReport struct {
	TotalRuns     int
	MatchedRuns   int
	DivergentRuns int
	Reports       []*Report
}

// Verifier replays stored runs.
type Verifier interface {
	// VerifyRun re-evaluates a stored run and compares every outcome record.
	VerifyRun(ctx context.Context, runID string) (*Report, error)

	// VerifyAll verifies all stored runs.
	VerifyAll(ctx context.Context) (*BatchReport, error)
}

// CompareOutcomeSets matches records by OutcomeID and compares each pair.
// Results are ordered by OutcomeID and contain only mismatches.
func CompareOutcomeSets(stored, replayed []*domain.OutcomeRecord) (matched int, results []OutcomeResult) {
	byID := make(map[string]*domain.OutcomeRecord, len(replayed))
	for _, r := range replayed {
		byID[r.OutcomeID] = r
	}

	seen := make(map[string]struct{}, len(stored))
	for _, s := range stored {
		seen[s.OutcomeID] = struct{}{}
		r, ok := byID[s.OutcomeID]
		if !ok {
			results = append(results, OutcomeResult{OutcomeID: s.OutcomeID, Missing: true})
			continue
		}
		if d := CompareOutcomeRecords(s, r); len(d) > 0 {
			results = append(results, OutcomeResult{OutcomeID: s.OutcomeID, Divergences: d})
			continue
		}
		matched++
	}
	for _, r := range replayed {
		if _, ok := seen[r.OutcomeID]; !ok {
			results = append(results, OutcomeResult{OutcomeID: r.OutcomeID, Extra: true})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].OutcomeID < results[j].OutcomeID
	})
	return matched, results
}

// CompareOutcomeRecords compares two outcome records and returns divergences.
// Uses FloatTolerance for float64 comparisons.
func CompareOutcomeRecords(stored, replayed *domain.OutcomeRecord) []FieldDivergence {
	var d divergences

	// Identity
	d.exact("OutcomeID", stored.OutcomeID, replayed.OutcomeID)
	d.exact("RunID", stored.RunID, replayed.RunID)
	d.exact("SignalIndex", stored.SignalIndex, replayed.SignalIndex)
	d.exact("SignalTimeMs", stored.SignalTimeMs, replayed.SignalTimeMs)
	d.exact("Direction", stored.Direction, replayed.Direction)
	d.exact("ZoneType", stored.ZoneType, replayed.ZoneType)

	// Levels
	d.float("EntryPrice", stored.EntryPrice, replayed.EntryPrice)
	d.float("StopLevel", stored.StopLevel, replayed.StopLevel)
	d.float("TargetLevel", stored.TargetLevel, replayed.TargetLevel)
	d.float("StopDistance", stored.StopDistance, replayed.StopDistance)
	d.float("TargetDistance", stored.TargetDistance, replayed.TargetDistance)
	d.float("RiskReward", stored.RiskReward, replayed.RiskReward)

	// Resolution
	d.exact("Phase", stored.Phase, replayed.Phase)
	d.exact("Result", stored.Result, replayed.Result)
	d.exact("ExitTimeMs", stored.ExitTimeMs, replayed.ExitTimeMs)

	return d
}

// CompareSummaries compares stored and recomputed run summaries.
func CompareSummaries(stored, replayed *domain.RunSummary) []FieldDivergence {
	var d divergences

	d.exact("Signals", stored.Signals, replayed.Signals)
	d.exact("Target1Hits", stored.Target1Hits, replayed.Target1Hits)
	d.exact("Target1Stops", stored.Target1Stops, replayed.Target1Stops)
	d.exact("Target2Hits", stored.Target2Hits, replayed.Target2Hits)
	d.exact("Target2Stops", stored.Target2Stops, replayed.Target2Stops)
	d.exact("Target2Unresolved", stored.Target2Unresolved, replayed.Target2Unresolved)
	d.float("Target1WinRate", stored.Target1WinRate, replayed.Target1WinRate)
	d.float("Target2ConversionRate", stored.Target2ConversionRate, replayed.Target2ConversionRate)
	d.float("MeanRiskReward", stored.MeanRiskReward, replayed.MeanRiskReward)
	d.float("ExpectancyR", stored.ExpectancyR, replayed.ExpectancyR)
	d.exact("MaxConsecutiveLosses", stored.MaxConsecutiveLosses, replayed.MaxConsecutiveLosses)

	return d
}

type divergences []FieldDivergence

func (d *divergences) exact(field string, expected, actual any) {
	if expected != actual {
		*d = append(*d, FieldDivergence{Field: field, Expected: expected, Actual: actual})
	}
}

func (d *divergences) float(field string, expected, actual float64) {
	if !floatEquals(expected, actual) {
		*d = append(*d, FieldDivergence{Field: field, Expected: expected, Actual: actual})
	}
}

// floatEquals compares two float64 values within FloatTolerance.
// NaN equals NaN so that unset values compare equal.
func floatEquals(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return math.Abs(a-b) <= FloatTolerance
}
