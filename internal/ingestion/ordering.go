package ingestion

import (
	"sort"

	"zone-signal-lab/internal/domain"
)

// SortBars orders bars by time ASC. Equal times keep input order.
func SortBars(bars []*domain.Bar) {
	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].TimeMs < bars[j].TimeMs
	})
}

// ValidateBarOrdering checks that bar times strictly increase.
// Returns ErrInvalidOrdering if not.
func ValidateBarOrdering(bars []*domain.Bar) error {
	for i := 1; i < len(bars); i++ {
		if bars[i-1].TimeMs >= bars[i].TimeMs {
			return ErrInvalidOrdering
		}
	}
	return nil
}
