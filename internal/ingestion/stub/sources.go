package stub

import (
	"context"

	"zone-signal-lab/internal/domain"
)

// StubBarSource returns fixed in-memory bars for testing.
// Bars can be intentionally unordered to test sorting.
// Implements ingestion.BarSource interface.
type StubBarSource struct {
	bars []*domain.Bar
	err  error
}

// NewStubBarSource creates a new stub bar source with the given bars.
func NewStubBarSource(bars []*domain.Bar) *StubBarSource {
	return &StubBarSource{bars: bars}
}

// NewFailingBarSource creates a stub source whose Fetch always fails with err.
func NewFailingBarSource(err error) *StubBarSource {
	return &StubBarSource{err: err}
}

// Fetch returns bars within the time range.
// Returns copies to prevent mutation.
func (s *StubBarSource) Fetch(_ context.Context, _, _ string, from, to int64) ([]*domain.Bar, error) {
	if s.err != nil {
		return nil, s.err
	}
	var result []*domain.Bar
	for _, bar := range s.bars {
		if bar.TimeMs >= from && bar.TimeMs <= to {
			copy := *bar
			result = append(result, &copy)
		}
	}
	return result, nil
}
