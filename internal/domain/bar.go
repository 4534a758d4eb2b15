package domain

// Bar is one OHLC sample of a fixed interval.
// Bars are ordered by TimeMs and addressed by it.
type Bar struct {
	TimeMs int64 // interval open time, Unix milliseconds
	Open   float64
	High   float64
	Low    float64
	Close  float64

	// Indicators holds optional precomputed columns (ema_fast, ema_slow, rsi, ...).
	Indicators map[string]float64
}

// Indicator returns a precomputed indicator value if the bar carries it.
func (b *Bar) Indicator(name string) (float64, bool) {
	if b.Indicators == nil {
		return 0, false
	}
	v, ok := b.Indicators[name]
	return v, ok
}

// Bullish reports whether the bar closed above its open.
func (b *Bar) Bullish() bool {
	return b.Close > b.Open
}

// Bearish reports whether the bar closed below its open.
func (b *Bar) Bearish() bool {
	return b.Close < b.Open
}
