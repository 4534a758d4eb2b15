package idhash

import (
	"fmt"

	"zone-signal-lab/internal/domain"
)

// ComputeOutcomeID computes a deterministic outcome_id using SHA256.
// Formula: SHA256(run_id|signal_index|signal_time|phase)
// signal_index is the signal's position in detection order, which keeps
// ids distinct when two zones fire on the same bar.
// Returns hex-encoded hash (64 characters).
func ComputeOutcomeID(
	runID string,
	signalIndex int,
	signalTimeMs int64,
	phase domain.Phase,
) string {
	data := fmt.Sprintf("%s|%d|%d|%s",
		runID,
		signalIndex,
		signalTimeMs,
		string(phase),
	)

	return digest([]byte(data))
}
