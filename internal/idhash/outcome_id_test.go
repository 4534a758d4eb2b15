package idhash

import (
	"testing"

	"zone-signal-lab/internal/domain"
)

func TestComputeOutcomeID(t *testing.T) {
	tests := []struct {
		name        string
		runID       string
		signalIndex int
		signalTime  int64
		phase       domain.Phase
	}{
		{"target-1 phase", "3f2a9c01bd", 0, 1704067500000, domain.PhaseTarget1},
		{"target-2 phase", "3f2a9c01bd", 0, 1704067500000, domain.PhaseTarget2},
		{"later signal", "3f2a9c01bd", 1, 1704067800000, domain.PhaseTarget1},
	}

	seen := make(map[string]string)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeOutcomeID(tt.runID, tt.signalIndex, tt.signalTime, tt.phase)

			if len(got) != 64 {
				t.Errorf("ComputeOutcomeID() length = %d, want 64", len(got))
			}

			// Verify determinism: same inputs should produce same output
			got2 := ComputeOutcomeID(tt.runID, tt.signalIndex, tt.signalTime, tt.phase)
			if got != got2 {
				t.Errorf("ComputeOutcomeID() not deterministic: %s != %s", got, got2)
			}

			if prev, ok := seen[got]; ok {
				t.Errorf("ComputeOutcomeID() collision with %s", prev)
			}
			seen[got] = tt.name
		})
	}
}

func TestComputeOutcomeID_SameBarDistinctSignals(t *testing.T) {
	a := ComputeOutcomeID("3f2a9c01bd", 3, 1704067500000, domain.PhaseTarget1)
	b := ComputeOutcomeID("3f2a9c01bd", 4, 1704067500000, domain.PhaseTarget1)
	if a == b {
		t.Error("expected distinct ids for distinct signals on one bar")
	}
}
