package params

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// PipsSuffix marks parameters expressed in instrument-relative units.
const PipsSuffix = "_pips"

// Default unit sizes.
const (
	DefaultPipSize = 0.0001
	JPYPipSize     = 0.01
)

// PipSize returns the unit size of instrument. Overrides are matched
// case-insensitively; JPY-quoted pairs default to 0.01.
func PipSize(instrument string, overrides map[string]float64) float64 {
	inst := strings.ToUpper(strings.TrimSpace(instrument))
	for name, size := range overrides {
		if strings.ToUpper(name) == inst && size > 0 {
			return size
		}
	}
	if strings.Contains(inst, "JPY") {
		return JPYPipSize
	}
	return DefaultPipSize
}

// PipsToPrice converts a distance in pips to absolute price units.
// It reports false when either input is NaN or infinite.
func PipsToPrice(pips, pipSize float64) (float64, bool) {
	if !isFinite(pips) || !isFinite(pipSize) {
		return 0, false
	}
	return decimal.NewFromFloat(pips).Mul(decimal.NewFromFloat(pipSize)).InexactFloat64(), true
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
