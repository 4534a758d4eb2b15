package memory

import (
	"context"
	"maps"
	"sort"
	"sync"

	"zone-signal-lab/internal/domain"
	"zone-signal-lab/internal/storage"
)

// RunStore is an in-memory implementation of storage.RunStore.
type RunStore struct {
	mu       sync.RWMutex
	runs     map[string]*domain.RunRecord       // keyed by run_id
	outcomes map[string][]*domain.OutcomeRecord // keyed by run_id
	ids      map[string]struct{}                // outcome_ids
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		runs:     make(map[string]*domain.RunRecord),
		outcomes: make(map[string][]*domain.OutcomeRecord),
		ids:      make(map[string]struct{}),
	}
}

// Insert adds a run and its outcomes atomically.
func (s *RunStore) Insert(_ context.Context, run *domain.RunRecord, outcomes []*domain.OutcomeRecord) error {
	if run == nil || run.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[run.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(outcomes))

	// First pass: validate outcomes
	for _, o := range outcomes {
		if o == nil || o.OutcomeID == "" || o.RunID != run.RunID {
			return storage.ErrInvalidInput
		}
		if _, exists := s.ids[o.OutcomeID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[o.OutcomeID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[o.OutcomeID] = struct{}{}
	}

	// Second pass: insert all
	stored := make([]*domain.OutcomeRecord, 0, len(outcomes))
	for _, o := range outcomes {
		oc := *o
		stored = append(stored, &oc)
		s.ids[o.OutcomeID] = struct{}{}
	}
	s.outcomes[run.RunID] = stored
	s.runs[run.RunID] = copyRun(run)

	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(_ context.Context, runID string) (*domain.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.runs[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyRun(r), nil
}

// GetOutcomes retrieves outcomes of a run, ordered by (signal_index, phase).
func (s *RunStore) GetOutcomes(_ context.Context, runID string) ([]*domain.OutcomeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.OutcomeRecord, 0, len(s.outcomes[runID]))
	for _, o := range s.outcomes[runID] {
		oc := *o
		result = append(result, &oc)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].SignalIndex != result[j].SignalIndex {
			return result[i].SignalIndex < result[j].SignalIndex
		}
		return result[i].Phase < result[j].Phase
	})

	return result, nil
}

// GetAll retrieves all runs ordered by created_at ASC.
func (s *RunStore) GetAll(_ context.Context) ([]*domain.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.RunRecord, 0, len(s.runs))
	for _, r := range s.runs {
		result = append(result, copyRun(r))
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAtMs != result[j].CreatedAtMs {
			return result[i].CreatedAtMs < result[j].CreatedAtMs
		}
		return result[i].RunID < result[j].RunID
	})

	return result, nil
}

func copyRun(r *domain.RunRecord) *domain.RunRecord {
	c := *r
	c.Descriptor.RawParams = maps.Clone(r.Descriptor.RawParams)
	c.Descriptor.NormalizedParams = maps.Clone(r.Descriptor.NormalizedParams)
	return &c
}

var _ storage.RunStore = (*RunStore)(nil)
