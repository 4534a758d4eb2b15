package reporting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"zone-signal-lab/internal/domain"
	"zone-signal-lab/internal/metrics"
	"zone-signal-lab/internal/storage"
)

// Generator produces reports from stored runs.
type Generator struct {
	runStore   storage.RunStore
	aggregator *metrics.Aggregator
	now        func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(runStore storage.RunStore, summaryStore storage.SummaryStore) *Generator {
	return &Generator{
		runStore:   runStore,
		aggregator: metrics.NewAggregator(runStore, summaryStore),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces the report of one run.
// Returns storage.ErrNotFound if the run does not exist.
func (g *Generator) Generate(ctx context.Context, runID string) (*Report, error) {
	run, err := g.runStore.GetByID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}

	outcomes, err := g.runStore.GetOutcomes(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load outcomes %s: %w", runID, err)
	}

	summary, err := g.aggregator.Summarize(ctx, runID)
	if err != nil {
		return nil, err
	}

	return &Report{
		GeneratedAt:     g.now(),
		Run:             run,
		Summary:         summary,
		ResultBreakdown: resultBreakdown(outcomes),
		ZoneBreakdown:   zoneBreakdown(outcomes),
		Outcomes:        outcomes,
	}, nil
}

func resultBreakdown(outcomes []*domain.OutcomeRecord) []ResultRow {
	type key struct {
		phase  domain.Phase
		result domain.Result
	}
	counts := make(map[key]int)
	for _, o := range outcomes {
		counts[key{o.Phase, o.Result}]++
	}

	rows := make([]ResultRow, 0, len(counts))
	for k, n := range counts {
		rows = append(rows, ResultRow{Phase: k.phase, Result: k.result, Count: n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Phase != rows[j].Phase {
			return rows[i].Phase < rows[j].Phase
		}
		return rows[i].Result < rows[j].Result
	})
	return rows
}

func zoneBreakdown(outcomes []*domain.OutcomeRecord) []ZoneRow {
	byZone := make(map[domain.ZoneType]*ZoneRow)
	for _, o := range outcomes {
		if o.Phase != domain.PhaseTarget1 {
			continue
		}
		row, ok := byZone[o.ZoneType]
		if !ok {
			row = &ZoneRow{ZoneType: o.ZoneType}
			byZone[o.ZoneType] = row
		}
		row.Signals++
		if o.Result == domain.ResultTarget1Hit {
			row.Target1Hits++
		}
	}

	rows := make([]ZoneRow, 0, len(byZone))
	for _, row := range byZone {
		row.WinRate = float64(row.Target1Hits) / float64(row.Signals)
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].ZoneType < rows[j].ZoneType
	})
	return rows
}
