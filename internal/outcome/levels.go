package outcome

import (
	"math"

	"github.com/shopspring/decimal"

	"zone-signal-lab/internal/domain"
)

// Distances are risk distances in absolute price units.
type Distances struct {
	Stop    float64
	Target1 float64
	Target2 float64
}

// Levels are absolute stop and target prices of one position.
type Levels struct {
	Stop    float64
	Target1 float64
	Target2 float64
}

// ComputeLevels derives levels from entry and distances.
// Long: targets above entry, stop below. Short: mirrored.
// Non-finite inputs fall back to float arithmetic.
func ComputeLevels(dir domain.Direction, entry float64, dist Distances) Levels {
	if !finite(entry, dist.Stop, dist.Target1, dist.Target2) {
		sign := 1.0
		if dir == domain.DirectionShort {
			sign = -1
		}
		return Levels{
			Stop:    entry - sign*dist.Stop,
			Target1: entry + sign*dist.Target1,
			Target2: entry + sign*dist.Target2,
		}
	}

	e := decimal.NewFromFloat(entry)
	stop := decimal.NewFromFloat(dist.Stop)
	t1 := decimal.NewFromFloat(dist.Target1)
	t2 := decimal.NewFromFloat(dist.Target2)

	if dir == domain.DirectionShort {
		return Levels{
			Stop:    e.Add(stop).InexactFloat64(),
			Target1: e.Sub(t1).InexactFloat64(),
			Target2: e.Sub(t2).InexactFloat64(),
		}
	}
	return Levels{
		Stop:    e.Sub(stop).InexactFloat64(),
		Target1: e.Add(t1).InexactFloat64(),
		Target2: e.Add(t2).InexactFloat64(),
	}
}

// RiskReward returns target / stop, 0 when stop is 0.
func RiskReward(targetDist, stopDist float64) float64 {
	if stopDist == 0 {
		return 0
	}
	if !finite(targetDist, stopDist) {
		return targetDist / stopDist
	}
	return decimal.NewFromFloat(targetDist).
		DivRound(decimal.NewFromFloat(stopDist), 8).
		InexactFloat64()
}

// targetReached reports whether bar trades through a profit level.
func targetReached(dir domain.Direction, bar *domain.Bar, level float64) bool {
	if dir == domain.DirectionShort {
		return bar.Low <= level
	}
	return bar.High >= level
}

// stopReached reports whether bar trades through the stop level.
func stopReached(dir domain.Direction, bar *domain.Bar, level float64) bool {
	if dir == domain.DirectionShort {
		return bar.High >= level
	}
	return bar.Low <= level
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
