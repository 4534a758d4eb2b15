package ingestion

import (
	"fmt"
	"math"

	"zone-signal-lab/internal/domain"
)

// ValidateBars checks the mandatory fields of every bar.
// It does not judge data quality beyond that.
func ValidateBars(bars []*domain.Bar) error {
	for i, b := range bars {
		if b == nil {
			return fmt.Errorf("%w: bar %d is nil", ErrMissingBarField, i)
		}
		if b.TimeMs <= 0 {
			return fmt.Errorf("%w: bar %d has no time", ErrMissingBarField, i)
		}
		for _, f := range []struct {
			name  string
			value float64
		}{
			{ColumnOpen, b.Open},
			{ColumnHigh, b.High},
			{ColumnLow, b.Low},
			{ColumnClose, b.Close},
		} {
			if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
				return fmt.Errorf("%w: bar %d (%d) has no %s", ErrMissingBarField, i, b.TimeMs, f.name)
			}
		}
	}
	return nil
}
