package domain

// Phase of an outcome record.
type Phase string

// Phase constants
const (
	PhaseTarget1 Phase = "TARGET1"
	PhaseTarget2 Phase = "TARGET2"
)

// Result of one phase. Values are mutually exclusive within a phase:
// TARGET1 resolves to TARGET1_HIT or STOP_HIT, TARGET2 to TARGET2_HIT, STOP_HIT or UNRESOLVED.
type Result string

// Result constants
const (
	ResultTarget1Hit Result = "TARGET1_HIT"
	ResultTarget2Hit Result = "TARGET2_HIT"
	ResultStopHit    Result = "STOP_HIT"
	ResultUnresolved Result = "UNRESOLVED"
)

// Outcome class constants
const (
	OutcomeClassWin  = "WIN"
	OutcomeClassLoss = "LOSS"
	OutcomeClassOpen = "OPEN"
)

// OutcomeRecord is the classified result of one signal for one phase.
// Records are append-only and keyed by OutcomeID.
type OutcomeRecord struct {
	OutcomeID string // deterministic hash
	RunID     string // run identity

	// Signal
	SignalIndex  int // position in detection order
	SignalTimeMs int64
	Direction    Direction
	EntryPrice   float64
	ZoneType     ZoneType

	// Levels (absolute price units)
	StopLevel      float64
	TargetLevel    float64 // target-1 or target-2 level depending on Phase
	StopDistance   float64
	TargetDistance float64
	RiskReward     float64 // TargetDistance / StopDistance

	// Resolution
	Phase      Phase
	Result     Result
	ExitTimeMs int64 // bar that resolved the phase, 0 when bars ran out
}

// OutcomeClass returns WIN for target hits, LOSS for stop hits, OPEN otherwise.
func (r *OutcomeRecord) OutcomeClass() string {
	switch r.Result {
	case ResultTarget1Hit, ResultTarget2Hit:
		return OutcomeClassWin
	case ResultStopHit:
		return OutcomeClassLoss
	default:
		return OutcomeClassOpen
	}
}
