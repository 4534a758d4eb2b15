package memory

import (
	"context"
	"errors"
	"testing"

	"zone-signal-lab/internal/domain"
	"zone-signal-lab/internal/storage"
)

func TestSummaryStore_InsertAndGet(t *testing.T) {
	store := NewSummaryStore()
	ctx := context.Background()

	sum := &domain.RunSummary{RunID: "run1", StrategyID: "gap", Signals: 4, Target1WinRate: 0.5}
	if err := store.Insert(ctx, sum); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByRunID(ctx, "run1")
	if err != nil {
		t.Fatalf("GetByRunID failed: %v", err)
	}
	if got.Signals != 4 || got.Target1WinRate != 0.5 {
		t.Errorf("unexpected summary %+v", got)
	}

	if err := store.Insert(ctx, sum); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestSummaryStore_GetAllOrdered(t *testing.T) {
	store := NewSummaryStore()
	ctx := context.Background()

	for _, id := range []string{"b", "c", "a"} {
		if err := store.Insert(ctx, &domain.RunSummary{RunID: id}); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	all, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(all) != 3 || all[0].RunID != "a" || all[2].RunID != "c" {
		t.Errorf("unexpected order")
	}
}

func TestSummaryStore_NotFound(t *testing.T) {
	store := NewSummaryStore()

	_, err := store.GetByRunID(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
