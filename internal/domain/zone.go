package domain

// ZoneType identifies the pattern that created a candidate zone.
type ZoneType string

// Zone type constants
const (
	ZoneGapUp        ZoneType = "GAP_UP"
	ZoneGapDown      ZoneType = "GAP_DOWN"
	ZoneReversalHigh ZoneType = "REVERSAL_HIGH"
	ZoneReversalLow  ZoneType = "REVERSAL_LOW"
)

// Direction returns the trade direction a touch of this zone produces.
func (z ZoneType) Direction() Direction {
	switch z {
	case ZoneGapUp, ZoneReversalLow:
		return DirectionLong
	default:
		return DirectionShort
	}
}

// Zone is a price interval tracked by one detector invocation.
type Zone struct {
	Type         ZoneType
	Lower        float64
	Upper        float64
	CreatedIndex int // bar index at creation
	Age          int // bars elapsed since creation
	TouchCount   int // signals fired
	Touched      bool
}

// Width returns Upper - Lower.
func (z *Zone) Width() float64 {
	return z.Upper - z.Lower
}

// EntryPrice returns the bound a position enters at: upper for long zones, lower for short.
func (z *Zone) EntryPrice() float64 {
	if z.Type.Direction() == DirectionLong {
		return z.Upper
	}
	return z.Lower
}
