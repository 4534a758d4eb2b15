package domain

// RunSummary aggregates the outcome records of one run.
type RunSummary struct {
	RunID      string
	StrategyID string
	Instrument string
	Timeframe  string

	// Counts
	Signals           int // signals that produced records
	Target1Hits       int
	Target1Stops      int
	Target2Hits       int
	Target2Stops      int
	Target2Unresolved int

	// Rates
	Target1WinRate        float64 // target-1 hits / signals
	Target2ConversionRate float64 // target-2 hits / target-1 hits

	// Risk
	MeanRiskReward       float64 // mean target-1 risk-reward
	ExpectancyR          float64 // mean target-1 result in R units (+RR win, -1 loss)
	MaxConsecutiveLosses int     // longest target-1 stop streak
}
