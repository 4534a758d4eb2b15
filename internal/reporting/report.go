package reporting

import (
	"time"

	"zone-signal-lab/internal/domain"
)

// Report describes one stored run.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	Run         *domain.RunRecord

	// Aggregates
	Summary *domain.RunSummary

	// Breakdowns (sorted by key)
	ResultBreakdown []ResultRow
	ZoneBreakdown   []ZoneRow

	// Outcome records ordered by (signal_index, phase)
	Outcomes []*domain.OutcomeRecord
}

// ResultRow counts records of one (phase, result).
type ResultRow struct {
	Phase  domain.Phase
	Result domain.Result
	Count  int
}

// ZoneRow aggregates target-1 records by zone type.
type ZoneRow struct {
	ZoneType    domain.ZoneType
	Signals     int
	Target1Hits int
	WinRate     float64 // target-1 hits / signals
}
