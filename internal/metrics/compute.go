package metrics

import (
	"sort"

	"zone-signal-lab/internal/domain"
)

// ComputeSummary aggregates the outcome records of one run.
// Target-1 records are ordered by signal time, signal index, outcome id
// before computing order-dependent metrics (MaxConsecutiveLosses).
func ComputeSummary(runID string, desc domain.RunDescriptor, records []*domain.OutcomeRecord) *domain.RunSummary {
	s := &domain.RunSummary{
		RunID:      runID,
		StrategyID: desc.StrategyID,
		Instrument: desc.Instrument,
		Timeframe:  desc.Timeframe,
	}

	var target1 []*domain.OutcomeRecord
	for _, r := range records {
		switch r.Phase {
		case domain.PhaseTarget1:
			target1 = append(target1, r)
			switch r.Result {
			case domain.ResultTarget1Hit:
				s.Target1Hits++
			case domain.ResultStopHit:
				s.Target1Stops++
			}
		case domain.PhaseTarget2:
			switch r.Result {
			case domain.ResultTarget2Hit:
				s.Target2Hits++
			case domain.ResultStopHit:
				s.Target2Stops++
			case domain.ResultUnresolved:
				s.Target2Unresolved++
			}
		}
	}

	s.Signals = len(target1)
	if s.Signals == 0 {
		return s
	}

	sortChronological(target1)

	rr := make([]float64, len(target1))
	rMultiples := make([]float64, len(target1))
	for i, r := range target1 {
		rr[i] = r.RiskReward
		rMultiples[i] = computeRMultiple(r)
	}

	s.Target1WinRate = computeRate(s.Target1Hits, s.Signals)
	s.Target2ConversionRate = computeRate(s.Target2Hits, s.Target1Hits)
	s.MeanRiskReward = computeMean(rr)
	s.ExpectancyR = computeMean(rMultiples)
	s.MaxConsecutiveLosses = computeMaxConsecutiveLosses(target1)

	return s
}

func sortChronological(records []*domain.OutcomeRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.SignalTimeMs != b.SignalTimeMs {
			return a.SignalTimeMs < b.SignalTimeMs
		}
		if a.SignalIndex != b.SignalIndex {
			return a.SignalIndex < b.SignalIndex
		}
		return a.OutcomeID < b.OutcomeID
	})
}

// computeRMultiple returns +RR for a target-1 hit, -1 for a stop.
func computeRMultiple(r *domain.OutcomeRecord) float64 {
	if r.Result == domain.ResultTarget1Hit {
		return r.RiskReward
	}
	return -1
}

// computeRate calculates n / total, 0 when total is 0.
func computeRate(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}

// computeMean calculates arithmetic mean.
func computeMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// computeMaxConsecutiveLosses finds longest streak of target-1 stops.
// Records must be in chronological order.
func computeMaxConsecutiveLosses(records []*domain.OutcomeRecord) int {
	maxStreak := 0
	currentStreak := 0

	for _, r := range records {
		if r.Result == domain.ResultStopHit {
			currentStreak++
			if currentStreak > maxStreak {
				maxStreak = currentStreak
			}
		} else {
			currentStreak = 0
		}
	}
	return maxStreak
}
