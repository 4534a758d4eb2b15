// Package detector implements the zone-based signal detectors: one scanning
// core parameterized by a zone creation rule and optional filters.
package detector

import (
	"errors"

	"zone-signal-lab/internal/domain"
	"zone-signal-lab/internal/params"
)

// Detector errors
var (
	ErrUnknownDetector = errors.New("unknown detector")
)

// Detector scans bars and emits entry signals.
type Detector interface {
	// ID returns the variant identifier.
	ID() string

	// Schema returns the parameters the detector accepts.
	Schema() params.Schema

	// Detect scans bars with normalized parameters. Unknown parameters are ignored.
	// Bars must be ordered by time and carry mandatory fields.
	Detect(bars []*domain.Bar, values map[string]any) (*Result, error)
}

// Result holds the signals of one scan and its zone bookkeeping.
type Result struct {
	Signals []*domain.Signal
	Stats   Stats
}

// Stats counts zone lifecycle events of one scan.
type Stats struct {
	ZonesCreated    int
	ZonesExpired    int // untouched and older than max wait
	ZonesConsumed   int // dropped after reaching the touch cap
	ZonesSkipped    int // pattern matched while max_active_zones were live
	FilteredTouches int // touches rejected by a filter
	DegenerateSkips int // zero-width zone evaluations
	ActiveAtEnd     int

	CreatedByType map[domain.ZoneType]int
}
