package simulation

import (
	"fmt"
	"maps"
	"math"

	"zone-signal-lab/internal/domain"
)

// RunRequest is one fully specified evaluation as supplied by a caller.
// Distances are in pips.
type RunRequest struct {
	StrategyID  string
	Instrument  string
	Timeframe   string
	Window      domain.TimeWindow
	StopPips    float64
	Target1Pips float64
	Target2Pips float64
	Params      map[string]any
	RequesterID string
}

// Validate checks the fields every run needs.
func (r RunRequest) Validate() error {
	if r.StrategyID == "" {
		return fmt.Errorf("%w: strategy is required", ErrInvalidRequest)
	}
	if r.Instrument == "" {
		return fmt.Errorf("%w: instrument is required", ErrInvalidRequest)
	}
	if r.Timeframe == "" {
		return fmt.Errorf("%w: timeframe is required", ErrInvalidRequest)
	}
	if _, _, err := r.Window.Bounds(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	for _, d := range []struct {
		name  string
		value float64
	}{
		{"stop", r.StopPips},
		{"target1", r.Target1Pips},
		{"target2", r.Target2Pips},
	} {
		if math.IsNaN(d.value) || math.IsInf(d.value, 0) || d.value <= 0 {
			return fmt.Errorf("%w: %s distance must be a positive number of pips, got %v", ErrInvalidRequest, d.name, d.value)
		}
	}
	return nil
}

// descriptor builds the run descriptor; normalized parameters are filled by the caller.
func (r RunRequest) descriptor() domain.RunDescriptor {
	return domain.RunDescriptor{
		StrategyID:      r.StrategyID,
		Instrument:      r.Instrument,
		Timeframe:       r.Timeframe,
		Window:          r.Window,
		StopDistance:    r.StopPips,
		Target1Distance: r.Target1Pips,
		Target2Distance: r.Target2Pips,
		RawParams:       maps.Clone(r.Params),
		RequesterID:     r.RequesterID,
	}
}
