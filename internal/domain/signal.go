package domain

// Direction is the side of a position.
type Direction string

// Direction constants
const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// Valid reports whether d is LONG or SHORT.
func (d Direction) Valid() bool {
	return d == DirectionLong || d == DirectionShort
}

// Signal is a directional entry emitted when a zone is touched.
type Signal struct {
	TimeMs     int64     // bar time of the touch
	EntryPrice float64   // zone bound
	Direction  Direction // LONG | SHORT

	// Provenance
	ZoneType         ZoneType
	ZoneLower        float64
	ZoneUpper        float64
	ZoneCreatedIndex int
	TouchNumber      int // 1 for the first signal of a zone
}
