package detector

import "zone-signal-lab/internal/params"

// Parameter names
const (
	ParamMinWaitBars          = "min_wait_bars"
	ParamMaxWaitBars          = "max_wait_bars"
	ParamMinOverlapRatio      = "min_overlap_ratio"
	ParamMaxTouches           = "max_touches"
	ParamAllowMultipleEntries = "allow_multiple_entries"
	ParamMaxActiveZones       = "max_active_zones"
	ParamMinGap               = params.MinGapParam
	ParamFastIndicator        = "fast_indicator"
	ParamSlowIndicator        = "slow_indicator"
	ParamOscillator           = "oscillator"
	ParamMomentumLongBelow    = "momentum_long_below"
	ParamMomentumShortAbove   = "momentum_short_above"
)

var commonSchema = params.Schema{
	{Name: ParamMinWaitBars, Default: 1, Aliases: []string{"min_wait"}},
	{Name: ParamMaxWaitBars, Default: 50, Aliases: []string{"max_wait", "expiry_bars"}},
	{Name: ParamMinOverlapRatio, Default: 0.0, Aliases: []string{"overlap_ratio", "min_overlap"}},
	{Name: ParamMaxTouches, Default: 1, Aliases: []string{"touch_limit"}},
	{Name: ParamAllowMultipleEntries, Default: false, Aliases: []string{"multiple_entries"}},
	{Name: ParamMaxActiveZones, Default: 0},
}

var gapSchema = params.Schema{
	{Name: ParamMinGap, Type: params.Float, Aliases: []string{"gap"}},
}

var trendSchema = params.Schema{
	{Name: ParamFastIndicator, Default: "ema_fast", Aliases: []string{"fast_ma"}},
	{Name: ParamSlowIndicator, Default: "ema_slow", Aliases: []string{"slow_ma"}},
}

var momentumSchema = params.Schema{
	{Name: ParamOscillator, Default: "rsi"},
	{Name: ParamMomentumLongBelow, Default: 70.0, Aliases: []string{"rsi_long_below"}},
	{Name: ParamMomentumShortAbove, Default: 30.0, Aliases: []string{"rsi_short_above"}},
}
