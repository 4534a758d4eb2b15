package lookup

import (
	"errors"

	"zone-signal-lab/internal/domain"
)

// Errors returned by lookup functions.
var (
	ErrNoBarData = errors.New("no bar data available")
)

// BarIndex maps bar times to positions in an ordered bar slice.
type BarIndex struct {
	positions map[int64]int
}

// NewBarIndex indexes bars by TimeMs.
// For duplicate timestamps the first occurrence wins.
func NewBarIndex(bars []*domain.Bar) *BarIndex {
	positions := make(map[int64]int, len(bars))
	for i, b := range bars {
		if b == nil {
			continue
		}
		if _, ok := positions[b.TimeMs]; !ok {
			positions[b.TimeMs] = i
		}
	}
	return &BarIndex{positions: positions}
}

// IndexOf returns the position of the bar at timeMs.
func (x *BarIndex) IndexOf(timeMs int64) (int, bool) {
	i, ok := x.positions[timeMs]
	return i, ok
}

// Len returns the number of distinct bar times.
func (x *BarIndex) Len() int {
	return len(x.positions)
}
