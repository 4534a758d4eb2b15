package detector

import "zone-signal-lab/internal/domain"

// Filter gates a touch before it becomes a signal.
type Filter interface {
	Name() string
	// Allow reports whether a touch in direction dir on bar passes.
	// A bar missing the required indicator does not pass.
	Allow(bar *domain.Bar, dir domain.Direction) bool
}

// TrendFilter requires the fast reference above the slow one for longs, below for shorts.
type TrendFilter struct {
	Fast string
	Slow string
}

func (f TrendFilter) Name() string { return "trend" }

func (f TrendFilter) Allow(bar *domain.Bar, dir domain.Direction) bool {
	fast, ok := bar.Indicator(f.Fast)
	if !ok {
		return false
	}
	slow, ok := bar.Indicator(f.Slow)
	if !ok {
		return false
	}
	if dir == domain.DirectionLong {
		return fast > slow
	}
	return fast < slow
}

// MomentumFilter requires the oscillator below LongBelow for longs, above ShortAbove for shorts.
type MomentumFilter struct {
	Oscillator string
	LongBelow  float64
	ShortAbove float64
}

func (f MomentumFilter) Name() string { return "momentum" }

func (f MomentumFilter) Allow(bar *domain.Bar, dir domain.Direction) bool {
	v, ok := bar.Indicator(f.Oscillator)
	if !ok {
		return false
	}
	if dir == domain.DirectionLong {
		return v < f.LongBelow
	}
	return v > f.ShortAbove
}

var (
	_ Filter = TrendFilter{}
	_ Filter = MomentumFilter{}
)
