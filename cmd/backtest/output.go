package main

import (
	"zone-signal-lab/internal/domain"
	"zone-signal-lab/internal/simulation"
)

type resultJSON struct {
	RunID       string         `json:"run_id"`
	ExecutionID string         `json:"execution_id"`
	Reused      bool           `json:"reused"`
	Fallback    bool           `json:"identity_fallback"`
	Strategy    string         `json:"strategy"`
	Instrument  string         `json:"instrument"`
	Timeframe   string         `json:"timeframe"`
	Window      string         `json:"window"`
	Params      map[string]any `json:"normalized_params"`
	Bars        int            `json:"bars"`
	Signals     int            `json:"signals"`
	Summary     *summaryJSON   `json:"summary,omitempty"`
}

type summaryJSON struct {
	Signals               int     `json:"signals"`
	Target1Hits           int     `json:"target1_hits"`
	Target1Stops          int     `json:"target1_stops"`
	Target2Hits           int     `json:"target2_hits"`
	Target2Stops          int     `json:"target2_stops"`
	Target2Unresolved     int     `json:"target2_unresolved"`
	Target1WinRate        float64 `json:"target1_win_rate"`
	Target2ConversionRate float64 `json:"target2_conversion_rate"`
	MeanRiskReward        float64 `json:"mean_risk_reward"`
	ExpectancyR           float64 `json:"expectancy_r"`
	MaxConsecutiveLosses  int     `json:"max_consecutive_losses"`
}

func newResultJSON(res *simulation.RunResult) resultJSON {
	run := res.Run
	d := run.Descriptor
	out := resultJSON{
		RunID:       run.RunID,
		ExecutionID: res.ExecutionID,
		Reused:      res.Reused,
		Fallback:    run.IdentityFallback,
		Strategy:    d.StrategyID,
		Instrument:  d.Instrument,
		Timeframe:   d.Timeframe,
		Window:      d.Window.String(),
		Params:      d.NormalizedParams,
		Bars:        run.BarCount,
		Signals:     run.SignalCount,
	}
	if res.Summary != nil {
		out.Summary = newSummaryJSON(res.Summary)
	}
	return out
}

func newSummaryJSON(s *domain.RunSummary) *summaryJSON {
	return &summaryJSON{
		Signals:               s.Signals,
		Target1Hits:           s.Target1Hits,
		Target1Stops:          s.Target1Stops,
		Target2Hits:           s.Target2Hits,
		Target2Stops:          s.Target2Stops,
		Target2Unresolved:     s.Target2Unresolved,
		Target1WinRate:        s.Target1WinRate,
		Target2ConversionRate: s.Target2ConversionRate,
		MeanRiskReward:        s.MeanRiskReward,
		ExpectancyR:           s.ExpectancyR,
		MaxConsecutiveLosses:  s.MaxConsecutiveLosses,
	}
}
