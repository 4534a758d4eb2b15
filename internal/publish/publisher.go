// Package publish emits completed run results to downstream consumers.
package publish

import (
	"context"

	"zone-signal-lab/internal/domain"
)

// Event types carried in Event.Type
const (
	EventOutcome      = "outcome"
	EventRunCompleted = "run_completed"
)

// Publisher sends the results of one run.
type Publisher interface {
	PublishRun(ctx context.Context, run *domain.RunRecord, outcomes []*domain.OutcomeRecord, summary *domain.RunSummary) error
	Close() error
}

// Event is the JSON body of every published message.
type Event struct {
	Type    string        `json:"type"`
	RunID   string        `json:"run_id"`
	Outcome *OutcomeEvent `json:"outcome,omitempty"`
	Run     *RunEvent     `json:"run,omitempty"`
}

// OutcomeEvent mirrors domain.OutcomeRecord.
type OutcomeEvent struct {
	OutcomeID      string  `json:"outcome_id"`
	SignalIndex    int     `json:"signal_index"`
	SignalTimeMs   int64   `json:"signal_time_ms"`
	Direction      string  `json:"direction"`
	ZoneType       string  `json:"zone_type"`
	EntryPrice     float64 `json:"entry_price"`
	StopLevel      float64 `json:"stop_level"`
	TargetLevel    float64 `json:"target_level"`
	StopDistance   float64 `json:"stop_distance"`
	TargetDistance float64 `json:"target_distance"`
	RiskReward     float64 `json:"risk_reward"`
	Phase          string  `json:"phase"`
	Result         string  `json:"result"`
	Class          string  `json:"class"`
	ExitTimeMs     int64   `json:"exit_time_ms"`
}

// RunEvent closes the stream of one run.
type RunEvent struct {
	StrategyID     string   `json:"strategy_id"`
	Instrument     string   `json:"instrument"`
	Timeframe      string   `json:"timeframe"`
	Window         string   `json:"window"`
	BarCount       int      `json:"bar_count"`
	SignalCount    int      `json:"signal_count"`
	OutcomeCount   int      `json:"outcome_count"`
	Target1WinRate *float64 `json:"target1_win_rate,omitempty"`
	ExpectancyR    *float64 `json:"expectancy_r,omitempty"`
	CreatedAtMs    int64    `json:"created_at_ms"`
}

// Message is one keyed event.
type Message struct {
	Key   []byte
	Value Event
}

// BuildMessages converts a run into messages keyed by run id:
// one per outcome record in the given order, then a run_completed event.
func BuildMessages(run *domain.RunRecord, outcomes []*domain.OutcomeRecord, summary *domain.RunSummary) []Message {
	key := []byte(run.RunID)
	msgs := make([]Message, 0, len(outcomes)+1)

	for _, r := range outcomes {
		msgs = append(msgs, Message{
			Key: key,
			Value: Event{
				Type:  EventOutcome,
				RunID: run.RunID,
				Outcome: &OutcomeEvent{
					OutcomeID:      r.OutcomeID,
					SignalIndex:    r.SignalIndex,
					SignalTimeMs:   r.SignalTimeMs,
					Direction:      string(r.Direction),
					ZoneType:       string(r.ZoneType),
					EntryPrice:     r.EntryPrice,
					StopLevel:      r.StopLevel,
					TargetLevel:    r.TargetLevel,
					StopDistance:   r.StopDistance,
					TargetDistance: r.TargetDistance,
					RiskReward:     r.RiskReward,
					Phase:          string(r.Phase),
					Result:         string(r.Result),
					Class:          r.OutcomeClass(),
					ExitTimeMs:     r.ExitTimeMs,
				},
			},
		})
	}

	d := run.Descriptor
	completed := &RunEvent{
		StrategyID:   d.StrategyID,
		Instrument:   d.Instrument,
		Timeframe:    d.Timeframe,
		Window:       d.Window.String(),
		BarCount:     run.BarCount,
		SignalCount:  run.SignalCount,
		OutcomeCount: run.OutcomeCount,
		CreatedAtMs:  run.CreatedAtMs,
	}
	if summary != nil {
		winRate, expectancy := summary.Target1WinRate, summary.ExpectancyR
		completed.Target1WinRate = &winRate
		completed.ExpectancyR = &expectancy
	}
	msgs = append(msgs, Message{
		Key:   key,
		Value: Event{Type: EventRunCompleted, RunID: run.RunID, Run: completed},
	})

	return msgs
}

// NopPublisher discards everything.
type NopPublisher struct{}

// PublishRun does nothing.
func (NopPublisher) PublishRun(context.Context, *domain.RunRecord, []*domain.OutcomeRecord, *domain.RunSummary) error {
	return nil
}

// Close does nothing.
func (NopPublisher) Close() error { return nil }

var (
	_ Publisher = NopPublisher{}
	_ Publisher = (*KafkaPublisher)(nil)
)
