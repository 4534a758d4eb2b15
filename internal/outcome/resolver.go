package outcome

import (
	"errors"
	"fmt"
	"strings"

	"zone-signal-lab/internal/domain"
	"zone-signal-lab/internal/lookup"
)

// ErrUnknownTieBreak is returned for an unrecognized tie-break label.
var ErrUnknownTieBreak = errors.New("unknown tie-break policy")

// TieBreak orders target and stop checks when both trade in the same bar.
// Intrabar path is unknown, so either order is an approximation.
type TieBreak string

// Tie-break policies
const (
	TargetFirst TieBreak = "target_first" // favorable fill
	StopFirst   TieBreak = "stop_first"   // conservative fill
)

// ParseTieBreak parses a policy label. Empty selects TargetFirst.
func ParseTieBreak(s string) (TieBreak, error) {
	switch TieBreak(strings.ToLower(strings.TrimSpace(s))) {
	case "", TargetFirst:
		return TargetFirst, nil
	case StopFirst:
		return StopFirst, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTieBreak, s)
	}
}

// Resolver classifies signals against stop and two targets.
type Resolver struct {
	TieBreak TieBreak
}

// NewResolver creates a Resolver. Empty policy selects TargetFirst.
func NewResolver(tb TieBreak) *Resolver {
	if tb == "" {
		tb = TargetFirst
	}
	return &Resolver{TieBreak: tb}
}

// walk holds the state of one forward scan.
type walk struct {
	t1Reached bool
	t1Result  domain.Result
	t1ExitMs  int64
	t2Result  domain.Result
	t2ExitMs  int64
}

func (w *walk) mark(timeMs int64) {
	w.t1Reached = true
	w.t1Result = domain.ResultTarget1Hit
	w.t1ExitMs = timeMs
}

// Resolve walks bars forward from the signal's entry bar.
// Returns nil when the entry time is not in index.
// Otherwise returns one TARGET1 record, followed by one TARGET2 record
// only when target-1 was hit.
func (r *Resolver) Resolve(sig *domain.Signal, dist Distances, bars []*domain.Bar, index *lookup.BarIndex) []*domain.OutcomeRecord {
	start, ok := index.IndexOf(sig.TimeMs)
	if !ok {
		return nil
	}

	lv := ComputeLevels(sig.Direction, sig.EntryPrice, dist)
	w := r.scan(sig.Direction, lv, bars[start+1:])

	// Bars ran out
	if w.t1Result == "" {
		w.t1Result = domain.ResultStopHit
	}
	if w.t1Reached && w.t2Result == "" {
		w.t2Result = domain.ResultUnresolved
	}

	records := []*domain.OutcomeRecord{
		newRecord(sig, lv.Stop, lv.Target1, dist.Stop, dist.Target1, domain.PhaseTarget1, w.t1Result, w.t1ExitMs),
	}
	if w.t1Result == domain.ResultTarget1Hit {
		records = append(records,
			newRecord(sig, lv.Stop, lv.Target2, dist.Stop, dist.Target2, domain.PhaseTarget2, w.t2Result, w.t2ExitMs))
	}
	return records
}

func (r *Resolver) scan(dir domain.Direction, lv Levels, bars []*domain.Bar) walk {
	var w walk
	for _, bar := range bars {
		if bar == nil {
			continue
		}
		if r.step(&w, dir, lv, bar) {
			break
		}
	}
	return w
}

// step applies one bar and reports whether the walk is finished.
// Checks run in sequence, so a bar that marks target-1 may also resolve target-2.
func (r *Resolver) step(w *walk, dir domain.Direction, lv Levels, bar *domain.Bar) bool {
	hitT1 := targetReached(dir, bar, lv.Target1)
	hitT2 := targetReached(dir, bar, lv.Target2)
	hitStop := stopReached(dir, bar, lv.Stop)

	if r.TieBreak == StopFirst {
		// 1. Target-1 phase: stop before target
		if !w.t1Reached && hitStop {
			w.t1Result, w.t1ExitMs = domain.ResultStopHit, bar.TimeMs
			return true
		}
		if !w.t1Reached && hitT1 {
			w.mark(bar.TimeMs)
		}

		// 2. Target-2 phase: original stop before target-2
		if w.t1Reached && hitStop {
			w.t2Result, w.t2ExitMs = domain.ResultStopHit, bar.TimeMs
			return true
		}
		if w.t1Reached && hitT2 {
			w.t2Result, w.t2ExitMs = domain.ResultTarget2Hit, bar.TimeMs
			return true
		}
		return false
	}

	// 1. Target-1 phase: target before stop
	if !w.t1Reached && hitT1 {
		w.mark(bar.TimeMs)
	}
	if !w.t1Reached && hitStop {
		w.t1Result, w.t1ExitMs = domain.ResultStopHit, bar.TimeMs
		return true
	}

	// 2. Target-2 phase: target-2 before original stop
	if w.t1Reached && hitT2 {
		w.t2Result, w.t2ExitMs = domain.ResultTarget2Hit, bar.TimeMs
		return true
	}
	if w.t1Reached && hitStop {
		w.t2Result, w.t2ExitMs = domain.ResultStopHit, bar.TimeMs
		return true
	}
	return false
}

func newRecord(sig *domain.Signal, stop, target, stopDist, targetDist float64, phase domain.Phase, result domain.Result, exitMs int64) *domain.OutcomeRecord {
	return &domain.OutcomeRecord{
		SignalTimeMs:   sig.TimeMs,
		Direction:      sig.Direction,
		EntryPrice:     sig.EntryPrice,
		ZoneType:       sig.ZoneType,
		StopLevel:      stop,
		TargetLevel:    target,
		StopDistance:   stopDist,
		TargetDistance: targetDist,
		RiskReward:     RiskReward(targetDist, stopDist),
		Phase:          phase,
		Result:         result,
		ExitTimeMs:     exitMs,
	}
}
