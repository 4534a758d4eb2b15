package detector

import "zone-signal-lab/internal/domain"

// ZoneRule decides whether the bar at index i completes a pattern.
type ZoneRule interface {
	Name() string
	// Match returns a new zone or nil. It creates at most one zone per index.
	Match(bars []*domain.Bar, i int) *domain.Zone
}

// GapRule compares the bar two positions back with the current bar.
type GapRule struct {
	MinGap float64 // price units
}

func (r GapRule) Name() string { return "gap" }

// Match creates GAP_UP when low[i] clears high[i-2] by MinGap, GAP_DOWN for the mirror case.
func (r GapRule) Match(bars []*domain.Bar, i int) *domain.Zone {
	if i < 2 {
		return nil
	}
	prev, cur := bars[i-2], bars[i]

	if gap := cur.Low - prev.High; gap >= 0 && gap >= r.MinGap {
		return &domain.Zone{
			Type:         domain.ZoneGapUp,
			Lower:        prev.High,
			Upper:        cur.Low,
			CreatedIndex: i,
		}
	}
	if gap := prev.Low - cur.High; gap >= 0 && gap >= r.MinGap {
		return &domain.Zone{
			Type:         domain.ZoneGapDown,
			Lower:        cur.High,
			Upper:        prev.Low,
			CreatedIndex: i,
		}
	}
	return nil
}

// ReversalRule uses pre (i-2), reversal (i-1) and confirmation (i) candles.
type ReversalRule struct {
	// GapConfirmed requires the confirmation range not to overlap the reversal range.
	GapConfirmed bool
}

func (r ReversalRule) Name() string {
	if r.GapConfirmed {
		return "gap_reversal"
	}
	return "reversal"
}

// Match creates a zone spanning the reversal candle body.
func (r ReversalRule) Match(bars []*domain.Bar, i int) *domain.Zone {
	if i < 2 {
		return nil
	}
	pre, rev, conf := bars[i-2], bars[i-1], bars[i]

	var zone *domain.Zone
	switch {
	case pre.Bearish() && rev.Bullish():
		zone = &domain.Zone{Type: domain.ZoneReversalLow, Lower: rev.Open, Upper: rev.Close}
	case pre.Bullish() && rev.Bearish():
		zone = &domain.Zone{Type: domain.ZoneReversalHigh, Lower: rev.Close, Upper: rev.Open}
	default:
		return nil
	}

	if r.GapConfirmed && rangesOverlap(conf, rev) {
		return nil
	}

	zone.CreatedIndex = i
	return zone
}

func rangesOverlap(a, b *domain.Bar) bool {
	return a.Low <= b.High && a.High >= b.Low
}

var (
	_ ZoneRule = GapRule{}
	_ ZoneRule = ReversalRule{}
)
