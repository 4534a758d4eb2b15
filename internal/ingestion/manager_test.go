package ingestion

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"zone-signal-lab/internal/domain"
	"zone-signal-lab/internal/ingestion/stub"
	"zone-signal-lab/internal/storage"
	"zone-signal-lab/internal/storage/memory"
)

// orderValidatingBarStore wraps a BarStore and validates ordering in InsertBulk.
// Returns ErrInvalidOrdering if bars are not properly ordered.
type orderValidatingBarStore struct {
	storage.BarStore
}

func (s *orderValidatingBarStore) InsertBulk(ctx context.Context, instrument, timeframe string, bars []*domain.Bar) error {
	if err := ValidateBarOrdering(bars); err != nil {
		return err
	}
	return s.BarStore.InsertBulk(ctx, instrument, timeframe, bars)
}

func bar(timeMs int64) *domain.Bar {
	return &domain.Bar{TimeMs: timeMs, Open: 1, High: 2, Low: 0.5, Close: 1.5}
}

func TestManager_IngestBars_Ordering(t *testing.T) {
	source := stub.NewStubBarSource([]*domain.Bar{bar(3000), bar(1000), bar(2000)})
	store := &orderValidatingBarStore{BarStore: memory.NewBarStore()}

	mgr := NewManager(ManagerOptions{Source: source, Store: store})

	ctx := context.Background()
	count, err := mgr.IngestBars(ctx, "EURUSD", "M5", 0, 10000)
	if err != nil {
		t.Fatalf("IngestBars failed: %v (Manager must sort before InsertBulk)", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 bars ingested, got %d", count)
	}

	stored, err := store.GetByTimeRange(ctx, "EURUSD", "M5", 0, 10000)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(stored) != 3 || stored[0].TimeMs != 1000 || stored[2].TimeMs != 3000 {
		t.Errorf("unexpected stored bars: %+v", stored)
	}
}

func TestManager_IngestBars_DuplicateRejection(t *testing.T) {
	source := stub.NewStubBarSource([]*domain.Bar{bar(1000)})
	mgr := NewManager(ManagerOptions{Source: source, Store: memory.NewBarStore()})

	ctx := context.Background()
	if _, err := mgr.IngestBars(ctx, "EURUSD", "M5", 0, 10000); err != nil {
		t.Fatalf("First ingest failed: %v", err)
	}

	_, err := mgr.IngestBars(ctx, "EURUSD", "M5", 0, 10000)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey on second ingest, got %v", err)
	}
}

func TestManager_IngestBars_RepeatedTimestamp(t *testing.T) {
	source := stub.NewStubBarSource([]*domain.Bar{bar(1000), bar(1000)})
	mgr := NewManager(ManagerOptions{Source: source, Store: memory.NewBarStore()})

	_, err := mgr.IngestBars(context.Background(), "EURUSD", "M5", 0, 10000)
	if !errors.Is(err, ErrInvalidOrdering) {
		t.Errorf("Expected ErrInvalidOrdering, got %v", err)
	}
}

func TestManager_IngestBars_InvalidBar(t *testing.T) {
	bad := bar(0)
	source := stub.NewStubBarSource([]*domain.Bar{bad})
	mgr := NewManager(ManagerOptions{Source: source, Store: memory.NewBarStore()})

	_, err := mgr.IngestBars(context.Background(), "EURUSD", "M5", 0, 10000)
	if !errors.Is(err, ErrMissingBarField) {
		t.Errorf("Expected ErrMissingBarField, got %v", err)
	}
}

func TestManager_IngestBars_SourceError(t *testing.T) {
	want := errors.New("source down")
	mgr := NewManager(ManagerOptions{
		Source: stub.NewFailingBarSource(want),
		Store:  memory.NewBarStore(),
	})

	_, err := mgr.IngestBars(context.Background(), "EURUSD", "M5", 0, 10000)
	if !errors.Is(err, want) {
		t.Errorf("Expected source error, got %v", err)
	}
}

func TestManager_NilSourceOrStore(t *testing.T) {
	mgr := NewManager(ManagerOptions{})
	count, err := mgr.IngestBars(context.Background(), "EURUSD", "M5", 0, 10000)
	if err != nil || count != 0 {
		t.Errorf("Expected (0, nil), got (%d, %v)", count, err)
	}
}

func TestCSVSource_Fetch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bars.csv")
	content := "time,open,high,low,close\n" +
		"3000,1,2,0.5,1.5\n" +
		"1000,1,2,0.5,1.5\n" +
		"2000,1,2,0.5,1.5\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	src := NewCSVSource(path)
	bars, err := src.Fetch(context.Background(), "", "", 1500, 0)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(bars) != 2 || bars[0].TimeMs != 2000 || bars[1].TimeMs != 3000 {
		t.Errorf("unexpected bars: %+v", bars)
	}
}

func TestCSVSource_MissingFile(t *testing.T) {
	src := NewCSVSource(filepath.Join(t.TempDir(), "missing.csv"))
	if _, err := src.Fetch(context.Background(), "", "", 0, 0); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestStoreSource_Fetch(t *testing.T) {
	ctx := context.Background()
	store := memory.NewBarStore()
	if err := store.InsertBulk(ctx, "EURUSD", "M5", []*domain.Bar{bar(1000), bar(2000)}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	bars, err := NewStoreSource(store).Fetch(ctx, "EURUSD", "M5", 1500, 3000)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(bars) != 1 || bars[0].TimeMs != 2000 {
		t.Errorf("unexpected bars: %+v", bars)
	}
}
