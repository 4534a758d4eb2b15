package simulation

import (
	"fmt"

	"zone-signal-lab/internal/detector"
	"zone-signal-lab/internal/domain"
	"zone-signal-lab/internal/idhash"
	"zone-signal-lab/internal/ingestion"
	"zone-signal-lab/internal/logger"
	"zone-signal-lab/internal/lookup"
	"zone-signal-lab/internal/metrics"
	"zone-signal-lab/internal/outcome"
	"zone-signal-lab/internal/params"
)

// Evaluation is the complete engine output for one descriptor and bar sequence.
type Evaluation struct {
	Identity   idhash.Identity
	Descriptor domain.RunDescriptor
	BarCount   int

	Signals  []*domain.Signal
	Outcomes []*domain.OutcomeRecord
	Summary  *domain.RunSummary
	Stats    detector.Stats

	DroppedSignals int // malformed, removed before resolution
	SkippedSignals int // entry time not among the bars
}

// Describe builds the run descriptor of req, normalizing parameters
// against the schema of the requested detector.
func (r *Runner) Describe(req RunRequest) (domain.RunDescriptor, error) {
	if err := req.Validate(); err != nil {
		return domain.RunDescriptor{}, err
	}
	det, err := detector.Lookup(req.StrategyID)
	if err != nil {
		return domain.RunDescriptor{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	desc := req.descriptor()
	desc.PipSize = r.normalizer.PipSize(req.Instrument)
	desc.TieBreak = string(r.resolver.TieBreak)
	desc.NormalizedParams = r.normalizer.Normalize(req.Params, det.Schema(), req.Instrument)
	return desc, nil
}

// Evaluate runs the engine on bars. It has no side effects besides logging,
// so identical inputs always produce identical evaluations.
//
// Missing mandatory bar fields and detector errors fail the whole evaluation.
// Malformed signals are dropped; signals whose entry bar is absent are skipped.
func (r *Runner) Evaluate(desc domain.RunDescriptor, bars []*domain.Bar) (*Evaluation, error) {
	det, err := detector.Lookup(desc.StrategyID)
	if err != nil {
		return nil, err
	}

	identity := idhash.ComputeRunID(desc)

	if err := ingestion.ValidateBars(bars); err != nil {
		return nil, err
	}

	res, err := det.Detect(bars, desc.NormalizedParams)
	if err != nil {
		return nil, fmt.Errorf("detector %s: %w", det.ID(), err)
	}

	pip := desc.PipSize
	if pip <= 0 {
		pip = r.normalizer.PipSize(desc.Instrument)
	}
	resolver := r.resolver
	if desc.TieBreak != "" && outcome.TieBreak(desc.TieBreak) != resolver.TieBreak {
		tb, err := outcome.ParseTieBreak(desc.TieBreak)
		if err != nil {
			return nil, err
		}
		resolver = outcome.NewResolver(tb)
	}
	dist, err := priceDistances(desc, pip)
	if err != nil {
		return nil, err
	}

	eval := &Evaluation{
		Identity:   identity,
		Descriptor: desc,
		BarCount:   len(bars),
		Stats:      res.Stats,
	}

	index := lookup.NewBarIndex(bars)
	for i, sig := range res.Signals {
		if err := validateSignal(sig); err != nil {
			eval.DroppedSignals++
			r.log.Warn("dropping signal",
				logger.String("run_id", identity.ID),
				logger.Int("signal_index", i),
				logger.Error(err),
			)
			continue
		}
		eval.Signals = append(eval.Signals, sig)

		records := resolver.Resolve(sig, dist, bars, index)
		if len(records) == 0 {
			eval.SkippedSignals++
			continue
		}
		for _, rec := range records {
			rec.RunID = identity.ID
			rec.SignalIndex = i
			rec.OutcomeID = idhash.ComputeOutcomeID(identity.ID, i, rec.SignalTimeMs, rec.Phase)
			eval.Outcomes = append(eval.Outcomes, rec)
		}
	}

	eval.Summary = metrics.ComputeSummary(identity.ID, desc, eval.Outcomes)
	return eval, nil
}

// priceDistances converts the descriptor's pip distances to price units.
func priceDistances(desc domain.RunDescriptor, pip float64) (outcome.Distances, error) {
	var dist outcome.Distances
	for _, d := range []struct {
		name string
		pips float64
		dst  *float64
	}{
		{"stop", desc.StopDistance, &dist.Stop},
		{"target1", desc.Target1Distance, &dist.Target1},
		{"target2", desc.Target2Distance, &dist.Target2},
	} {
		price, ok := params.PipsToPrice(d.pips, pip)
		if !ok {
			return outcome.Distances{}, fmt.Errorf("%w: %s distance %v pips at pip size %v", ErrInvalidRequest, d.name, d.pips, pip)
		}
		*d.dst = price
	}
	return dist, nil
}
