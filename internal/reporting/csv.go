package reporting

import (
	"fmt"
	"strings"

	"zone-signal-lab/internal/domain"
)

// RenderOutcomesCSV renders outcome records as CSV string.
func RenderOutcomesCSV(records []*domain.OutcomeRecord) string {
	var sb strings.Builder

	// Header
	sb.WriteString("outcome_id,run_id,signal_index,signal_time_ms,direction,zone_type,entry_price,")
	sb.WriteString("stop_level,target_level,stop_distance,target_distance,risk_reward,")
	sb.WriteString("phase,result,class,exit_time_ms\n")

	// Rows
	for _, r := range records {
		sb.WriteString(fmt.Sprintf("%s,%s,%d,%d,%s,%s,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%s,%s,%s,%d\n",
			r.OutcomeID,
			r.RunID,
			r.SignalIndex,
			r.SignalTimeMs,
			r.Direction,
			r.ZoneType,
			r.EntryPrice,
			r.StopLevel,
			r.TargetLevel,
			r.StopDistance,
			r.TargetDistance,
			r.RiskReward,
			r.Phase,
			r.Result,
			r.OutcomeClass(),
			r.ExitTimeMs,
		))
	}

	return sb.String()
}

// RenderSummaryCSV renders run summaries as CSV string.
func RenderSummaryCSV(summaries []*domain.RunSummary) string {
	var sb strings.Builder

	// Header
	sb.WriteString("run_id,strategy_id,instrument,timeframe,signals,target1_hits,target1_stops,")
	sb.WriteString("target2_hits,target2_stops,target2_unresolved,target1_win_rate,target2_conversion_rate,")
	sb.WriteString("mean_risk_reward,expectancy_r,max_consecutive_losses\n")

	// Rows
	for _, s := range summaries {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%d,%d,%d,%d,%d,%d,%.6f,%.6f,%.6f,%.6f,%d\n",
			s.RunID,
			s.StrategyID,
			s.Instrument,
			s.Timeframe,
			s.Signals,
			s.Target1Hits,
			s.Target1Stops,
			s.Target2Hits,
			s.Target2Stops,
			s.Target2Unresolved,
			s.Target1WinRate,
			s.Target2ConversionRate,
			s.MeanRiskReward,
			s.ExpectancyR,
			s.MaxConsecutiveLosses,
		))
	}

	return sb.String()
}
