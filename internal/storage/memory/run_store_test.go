package memory

import (
	"context"
	"errors"
	"testing"

	"zone-signal-lab/internal/domain"
	"zone-signal-lab/internal/storage"
)

func testRun(id string, createdAt int64) *domain.RunRecord {
	return &domain.RunRecord{
		RunID: id,
		Descriptor: domain.RunDescriptor{
			StrategyID: "gap",
			Instrument: "EURUSD",
			Timeframe:  "M5",
			RawParams:  map[string]any{"min_gap": 5},
		},
		CreatedAtMs: createdAt,
	}
}

func testOutcomes(runID string) []*domain.OutcomeRecord {
	return []*domain.OutcomeRecord{
		{OutcomeID: runID + "-1b", RunID: runID, SignalIndex: 1, Phase: domain.PhaseTarget1, Result: domain.ResultStopHit},
		{OutcomeID: runID + "-0b", RunID: runID, SignalIndex: 0, Phase: domain.PhaseTarget2, Result: domain.ResultTarget2Hit},
		{OutcomeID: runID + "-0a", RunID: runID, SignalIndex: 0, Phase: domain.PhaseTarget1, Result: domain.ResultTarget1Hit},
	}
}

func TestRunStore_InsertAndGet(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	if err := store.Insert(ctx, testRun("run1", 1000), testOutcomes("run1")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	run, err := store.GetByID(ctx, "run1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if run.Descriptor.RawParams["min_gap"] != 5 {
		t.Errorf("RawParams mismatch: %v", run.Descriptor.RawParams)
	}

	outcomes, err := store.GetOutcomes(ctx, "run1")
	if err != nil {
		t.Fatalf("GetOutcomes failed: %v", err)
	}
	if len(outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(outcomes))
	}
	wantIDs := []string{"run1-0a", "run1-0b", "run1-1b"}
	for i, want := range wantIDs {
		if outcomes[i].OutcomeID != want {
			t.Errorf("outcome %d: got %s, want %s", i, outcomes[i].OutcomeID, want)
		}
	}
}

func TestRunStore_DuplicateRun(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	if err := store.Insert(ctx, testRun("run1", 1000), nil); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.Insert(ctx, testRun("run1", 2000), nil)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestRunStore_AtomicOnDuplicateOutcome(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	outcomes := testOutcomes("run1")
	outcomes = append(outcomes, outcomes[0])

	err := store.Insert(ctx, testRun("run1", 1000), outcomes)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("Expected ErrDuplicateKey, got %v", err)
	}

	if _, err := store.GetByID(ctx, "run1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("run must not be stored after failed insert, got %v", err)
	}
}

func TestRunStore_OutcomeRunMismatch(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	err := store.Insert(ctx, testRun("run1", 1000), testOutcomes("run2"))
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestRunStore_GetAllOrdered(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	for _, r := range []*domain.RunRecord{testRun("b", 2000), testRun("a", 3000), testRun("c", 1000)} {
		if err := store.Insert(ctx, r, nil); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	runs, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	got := []string{runs[0].RunID, runs[1].RunID, runs[2].RunID}
	if got[0] != "c" || got[1] != "b" || got[2] != "a" {
		t.Errorf("unexpected order %v", got)
	}
}

func TestRunStore_NotFound(t *testing.T) {
	store := NewRunStore()

	_, err := store.GetByID(context.Background(), "nonexistent")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
