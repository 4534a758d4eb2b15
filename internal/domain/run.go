package domain

import (
	"fmt"
	"strings"
	"time"
)

// TimeWindow is the requested evaluation range, inclusive on both ends.
type TimeWindow struct {
	From string // 2006-01-02 or RFC3339
	To   string
}

// String renders the window as "from..to".
func (w TimeWindow) String() string {
	return w.From + ".." + w.To
}

// ParseTimeWindow parses "from..to".
func ParseTimeWindow(s string) (TimeWindow, error) {
	from, to, ok := strings.Cut(s, "..")
	if !ok || from == "" || to == "" {
		return TimeWindow{}, fmt.Errorf("invalid window %q: want from..to", s)
	}
	return TimeWindow{From: from, To: to}, nil
}

// Bounds returns the window as Unix milliseconds.
// A date-only To covers the whole day.
func (w TimeWindow) Bounds() (int64, int64, error) {
	from, _, err := parseWindowTime(w.From)
	if err != nil {
		return 0, 0, fmt.Errorf("window from: %w", err)
	}
	to, dateOnly, err := parseWindowTime(w.To)
	if err != nil {
		return 0, 0, fmt.Errorf("window to: %w", err)
	}
	if dateOnly {
		to = to.Add(24*time.Hour - time.Millisecond)
	}
	if to.Before(from) {
		return 0, 0, fmt.Errorf("window %s ends before it starts", w)
	}
	return from.UnixMilli(), to.UnixMilli(), nil
}

func parseWindowTime(s string) (time.Time, bool, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, false, nil
}

// RunDescriptor is the complete configuration of one evaluation.
// Its run identity is a pure function of these fields.
type RunDescriptor struct {
	StrategyID string
	Instrument string
	Timeframe  string
	Window     TimeWindow

	// Risk distances as requested (pips)
	StopDistance    float64
	Target1Distance float64
	Target2Distance float64

	// Engine settings the evaluation depends on
	PipSize  float64 // price units per pip for Instrument
	TieBreak string  // same-bar target/stop policy label

	RawParams        map[string]any
	NormalizedParams map[string]any

	RequesterID string
}

// RunRecord is the persisted header of one completed run.
type RunRecord struct {
	RunID            string
	Descriptor       RunDescriptor
	IdentityFallback bool // identity computed from the secondary canonical form
	BarCount         int
	SignalCount      int
	OutcomeCount     int
	CreatedAtMs      int64
}
