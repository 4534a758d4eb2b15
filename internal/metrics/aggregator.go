package metrics

import (
	"context"
	"errors"
	"fmt"

	"zone-signal-lab/internal/domain"
	"zone-signal-lab/internal/storage"
)

// Aggregator builds summaries for stored runs.
type Aggregator struct {
	runStore     storage.RunStore
	summaryStore storage.SummaryStore
}

// NewAggregator creates a new metrics aggregator.
func NewAggregator(runStore storage.RunStore, summaryStore storage.SummaryStore) *Aggregator {
	return &Aggregator{
		runStore:     runStore,
		summaryStore: summaryStore,
	}
}

// Summarize returns the stored summary of runID, computing and storing it when absent.
// A nil summary store always computes.
// Returns storage.ErrNotFound if the run does not exist.
func (a *Aggregator) Summarize(ctx context.Context, runID string) (*domain.RunSummary, error) {
	if a.summaryStore != nil {
		existing, err := a.summaryStore.GetByRunID(ctx, runID)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
	}

	run, err := a.runStore.GetByID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}
	outcomes, err := a.runStore.GetOutcomes(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load outcomes %s: %w", runID, err)
	}

	summary := ComputeSummary(run.RunID, run.Descriptor, outcomes)
	if a.summaryStore == nil {
		return summary, nil
	}
	if err := a.summaryStore.Insert(ctx, summary); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		return nil, fmt.Errorf("store summary %s: %w", runID, err)
	}
	return summary, nil
}

// SummarizeAll summarizes every stored run, ordered like RunStore.GetAll.
func (a *Aggregator) SummarizeAll(ctx context.Context) ([]*domain.RunSummary, error) {
	runs, err := a.runStore.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]*domain.RunSummary, 0, len(runs))
	for _, run := range runs {
		s, err := a.Summarize(ctx, run.RunID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}
