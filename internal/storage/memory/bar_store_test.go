package memory

import (
	"context"
	"errors"
	"testing"

	"zone-signal-lab/internal/domain"
	"zone-signal-lab/internal/storage"
)

func TestBarStore_InsertAndGetRange(t *testing.T) {
	store := NewBarStore()
	ctx := context.Background()

	bars := []*domain.Bar{
		{TimeMs: 3000, Close: 1.3},
		{TimeMs: 1000, Close: 1.1, Indicators: map[string]float64{"rsi": 55}},
		{TimeMs: 2000, Close: 1.2},
	}
	if err := store.InsertBulk(ctx, "EURUSD", "M5", bars); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByTimeRange(ctx, "EURUSD", "M5", 1000, 2000)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(got))
	}
	if got[0].TimeMs != 1000 || got[1].TimeMs != 2000 {
		t.Errorf("expected ordered times 1000, 2000, got %d, %d", got[0].TimeMs, got[1].TimeMs)
	}
	if v, ok := got[0].Indicator("rsi"); !ok || v != 55 {
		t.Errorf("expected rsi 55, got %v %v", v, ok)
	}

	// Stored bars are copies
	bars[1].Indicators["rsi"] = 10
	got, _ = store.GetByTimeRange(ctx, "EURUSD", "M5", 1000, 1000)
	if v, _ := got[0].Indicator("rsi"); v != 55 {
		t.Errorf("stored bar was mutated through input: rsi %v", v)
	}
}

func TestBarStore_SeriesIsolation(t *testing.T) {
	store := NewBarStore()
	ctx := context.Background()

	if err := store.InsertBulk(ctx, "EURUSD", "M5", []*domain.Bar{{TimeMs: 1000}}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}
	// Same time, other series
	if err := store.InsertBulk(ctx, "EURUSD", "M15", []*domain.Bar{{TimeMs: 1000}}); err != nil {
		t.Fatalf("InsertBulk other timeframe failed: %v", err)
	}

	got, _ := store.GetByTimeRange(ctx, "USDJPY", "M5", 0, 5000)
	if len(got) != 0 {
		t.Errorf("expected empty result for unknown series, got %d", len(got))
	}
}

func TestBarStore_DuplicateRejectsBatch(t *testing.T) {
	store := NewBarStore()
	ctx := context.Background()

	if err := store.InsertBulk(ctx, "EURUSD", "M5", []*domain.Bar{{TimeMs: 1000}}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	err := store.InsertBulk(ctx, "EURUSD", "M5", []*domain.Bar{{TimeMs: 2000}, {TimeMs: 1000}})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}

	got, _ := store.GetByTimeRange(ctx, "EURUSD", "M5", 0, 5000)
	if len(got) != 1 {
		t.Errorf("failed batch must not be partially applied, got %d bars", len(got))
	}

	err = store.InsertBulk(ctx, "EURUSD", "M5", []*domain.Bar{{TimeMs: 3000}, {TimeMs: 3000}})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey for intra-batch duplicate, got %v", err)
	}
}

func TestBarStore_InvalidInput(t *testing.T) {
	store := NewBarStore()
	ctx := context.Background()

	if err := store.InsertBulk(ctx, "", "M5", []*domain.Bar{{TimeMs: 1}}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty instrument, got %v", err)
	}
	if err := store.InsertBulk(ctx, "EURUSD", "M5", []*domain.Bar{nil}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for nil bar, got %v", err)
	}
}
