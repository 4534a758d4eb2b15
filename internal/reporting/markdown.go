package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder
	d := r.Run.Descriptor

	// Header
	sb.WriteString(fmt.Sprintf("# Run %s\n\n", r.Run.RunID))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	// Configuration
	sb.WriteString("## Configuration\n\n")
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|-------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Strategy | %s |\n", d.StrategyID))
	sb.WriteString(fmt.Sprintf("| Instrument | %s |\n", d.Instrument))
	sb.WriteString(fmt.Sprintf("| Timeframe | %s |\n", d.Timeframe))
	sb.WriteString(fmt.Sprintf("| Window | %s |\n", d.Window))
	sb.WriteString(fmt.Sprintf("| Stop / Target1 / Target2 (pips) | %g / %g / %g |\n",
		d.StopDistance, d.Target1Distance, d.Target2Distance))
	sb.WriteString(fmt.Sprintf("| Bars | %d |\n", r.Run.BarCount))
	if r.Run.IdentityFallback {
		sb.WriteString("| Identity | fallback canonical form |\n")
	}
	sb.WriteString("\n")

	// Summary
	sb.WriteString("## Summary\n\n")
	if s := r.Summary; s != nil && s.Signals > 0 {
		sb.WriteString("| Signals | T1 Hits | T1 Stops | T2 Hits | T2 Stops | T2 Open | WinRate | T2Conv | MeanRR | ExpR | MaxLoss |\n")
		sb.WriteString("|---------|---------|----------|---------|----------|---------|---------|--------|--------|------|---------|\n")
		sb.WriteString(fmt.Sprintf("| %d | %d | %d | %d | %d | %d | %.4f | %.4f | %.4f | %.4f | %d |\n",
			s.Signals, s.Target1Hits, s.Target1Stops, s.Target2Hits, s.Target2Stops, s.Target2Unresolved,
			s.Target1WinRate, s.Target2ConversionRate, s.MeanRiskReward, s.ExpectancyR, s.MaxConsecutiveLosses))
	} else {
		sb.WriteString("No signals.\n")
	}
	sb.WriteString("\n")

	// Results
	sb.WriteString("## Results\n\n")
	if len(r.ResultBreakdown) > 0 {
		sb.WriteString("| Phase | Result | Count |\n")
		sb.WriteString("|-------|--------|-------|\n")
		for _, row := range r.ResultBreakdown {
			sb.WriteString(fmt.Sprintf("| %s | %s | %d |\n", row.Phase, row.Result, row.Count))
		}
	} else {
		sb.WriteString("No outcome records.\n")
	}
	sb.WriteString("\n")

	// Zones
	sb.WriteString("## Zones\n\n")
	if len(r.ZoneBreakdown) > 0 {
		sb.WriteString("| Zone | Signals | T1 Hits | WinRate |\n")
		sb.WriteString("|------|---------|---------|---------|\n")
		for _, row := range r.ZoneBreakdown {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %.4f |\n", row.ZoneType, row.Signals, row.Target1Hits, row.WinRate))
		}
	} else {
		sb.WriteString("No zone data available.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}
