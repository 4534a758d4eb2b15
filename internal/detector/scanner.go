package detector

import (
	"math"

	"zone-signal-lab/internal/domain"
)

// scanConfig holds the zone lifecycle settings shared by all variants.
type scanConfig struct {
	MinWaitBars          int
	MaxWaitBars          int
	MinOverlapRatio      float64
	MaxTouches           int // <= 0 unlimited when multiple entries are allowed
	AllowMultipleEntries bool
	MaxActiveZones       int // 0 unlimited
}

// scanner is the generic zone scanning loop.
// Zones are owned by a single scan call and discarded when it returns.
type scanner struct {
	rule    ZoneRule
	filters []Filter
	cfg     scanConfig
}

func (s *scanner) scan(bars []*domain.Bar) *Result {
	res := &Result{
		Stats: Stats{CreatedByType: make(map[domain.ZoneType]int)},
	}

	// Active zones in creation order
	var active []*domain.Zone

	for i, bar := range bars {
		kept := active[:0]
		for _, z := range active {
			if s.step(z, bar, res) {
				kept = append(kept, z)
			}
		}
		for j := len(kept); j < len(active); j++ {
			active[j] = nil
		}
		active = kept

		zone := s.rule.Match(bars, i)
		if zone == nil {
			continue
		}
		if s.cfg.MaxActiveZones > 0 && len(active) >= s.cfg.MaxActiveZones {
			res.Stats.ZonesSkipped++
			continue
		}
		active = append(active, zone)
		res.Stats.ZonesCreated++
		res.Stats.CreatedByType[zone.Type]++
	}

	res.Stats.ActiveAtEnd = len(active)
	return res
}

// step advances one zone by one bar and reports whether it stays active.
func (s *scanner) step(z *domain.Zone, bar *domain.Bar, res *Result) bool {
	// 1. Age
	z.Age++

	// 2. Expiry applies to untouched zones only
	if z.Age > s.cfg.MaxWaitBars && !z.Touched {
		res.Stats.ZonesExpired++
		return false
	}

	// 3. Touch test once the minimum wait has passed
	if z.Age < s.cfg.MinWaitBars {
		return true
	}
	width := z.Width()
	if width <= 0 {
		res.Stats.DegenerateSkips++
		return true
	}
	overlap := math.Min(bar.High, z.Upper) - math.Max(bar.Low, z.Lower)
	if overlap < 0 || overlap/width < s.cfg.MinOverlapRatio {
		return true
	}
	// Overlap alone marks the zone touched, even when a filter rejects the bar
	z.Touched = true

	// 4. Filters, then fire
	dir := z.Type.Direction()
	for _, f := range s.filters {
		if !f.Allow(bar, dir) {
			res.Stats.FilteredTouches++
			return true
		}
	}
	z.TouchCount++
	res.Signals = append(res.Signals, &domain.Signal{
		TimeMs:           bar.TimeMs,
		EntryPrice:       z.EntryPrice(),
		Direction:        dir,
		ZoneType:         z.Type,
		ZoneLower:        z.Lower,
		ZoneUpper:        z.Upper,
		ZoneCreatedIndex: z.CreatedIndex,
		TouchNumber:      z.TouchCount,
	})

	// 5. Touch cap
	if !s.cfg.AllowMultipleEntries || (s.cfg.MaxTouches > 0 && z.TouchCount >= s.cfg.MaxTouches) {
		res.Stats.ZonesConsumed++
		return false
	}
	return true
}
