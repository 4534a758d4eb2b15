package params

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zone-signal-lab/internal/logger"
)

func testSchema() Schema {
	return Schema{
		{Name: "min_wait_bars", Default: 1, Aliases: []string{"min_wait"}},
		{Name: "max_wait_bars", Default: 50, Aliases: []string{"max_wait", "expiry_bars"}},
		{Name: "min_overlap_ratio", Default: 0.0, Aliases: []string{"overlap_ratio"}},
		{Name: "allow_multiple_entries", Default: false, Aliases: []string{"multiple_entries"}},
		{Name: "min_gap", Type: Float, Aliases: []string{"gap"}},
		{Name: "oscillator", Default: "rsi"},
	}
}

func TestNormalize_CoercesStrings(t *testing.T) {
	n := NewNormalizer()

	got := n.Normalize(map[string]any{
		"min_wait_bars":          "3",
		"max_wait_bars":          "20.0",
		"min_overlap_ratio":      "0.25",
		"allow_multiple_entries": "yes",
		"min_gap":                "0.0005",
		"oscillator":             "stoch",
	}, testSchema(), "EURUSD")

	assert.Equal(t, 3, got["min_wait_bars"])
	assert.Equal(t, 20, got["max_wait_bars"])
	assert.Equal(t, 0.25, got["min_overlap_ratio"])
	assert.Equal(t, true, got["allow_multiple_entries"])
	assert.Equal(t, 0.0005, got["min_gap"])
	assert.Equal(t, "stoch", got["oscillator"])
}

func TestNormalize_BooleanWords(t *testing.T) {
	tests := []struct {
		in   any
		want bool
	}{
		{"true", true},
		{"1", true},
		{"YES", true},
		{"on", true},
		{"false", false},
		{"0", false},
		{"no", false},
		{1, true},
		{0, false},
		{true, true},
	}

	n := NewNormalizer()
	for _, tt := range tests {
		got := n.Normalize(map[string]any{"allow_multiple_entries": tt.in}, testSchema(), "EURUSD")
		if got["allow_multiple_entries"] != tt.want {
			t.Errorf("bool(%v) = %v, want %v", tt.in, got["allow_multiple_entries"], tt.want)
		}
	}
}

func TestNormalize_Aliases(t *testing.T) {
	n := NewNormalizer()

	got := n.Normalize(map[string]any{
		"min_wait":    "2",
		"expiry_bars": 30,
	}, testSchema(), "EURUSD")

	assert.Equal(t, 2, got["min_wait_bars"])
	assert.Equal(t, 30, got["max_wait_bars"])
	assert.NotContains(t, got, "min_wait")
	assert.NotContains(t, got, "expiry_bars")
}

func TestNormalize_CanonicalWinsOverAlias(t *testing.T) {
	n := NewNormalizer()

	got := n.Normalize(map[string]any{
		"min_wait_bars": 4,
		"min_wait":      9,
	}, testSchema(), "EURUSD")

	assert.Equal(t, 4, got["min_wait_bars"])
}

func TestNormalize_PipsConvertedToPrice(t *testing.T) {
	n := NewNormalizer()

	got := n.Normalize(map[string]any{"min_gap_pips": "5"}, testSchema(), "EURUSD")
	assert.Equal(t, 0.0005, got["min_gap"])

	got = n.Normalize(map[string]any{"min_gap_pips": 5}, testSchema(), "USDJPY")
	assert.Equal(t, 0.05, got["min_gap"])
}

func TestNormalize_PipSizeOverride(t *testing.T) {
	n := NewNormalizer(WithPipSizes(map[string]float64{"xauusd": 0.1}))

	got := n.Normalize(map[string]any{"min_gap_pips": 3}, testSchema(), "XAUUSD")
	assert.InDelta(t, 0.3, got["min_gap"], 1e-12)
}

func TestNormalize_ExplicitValueBeatsPips(t *testing.T) {
	n := NewNormalizer()

	got := n.Normalize(map[string]any{
		"min_gap":      0.002,
		"min_gap_pips": 5,
	}, testSchema(), "EURUSD")

	assert.Equal(t, 0.002, got["min_gap"])
	assert.NotContains(t, got, "min_gap_pips")
}

func TestNormalize_UnconvertiblePipsDropped(t *testing.T) {
	var buf bytes.Buffer
	n := NewNormalizer(WithLogger(logger.NewWithWriter(&buf, zerolog.WarnLevel)))

	got := n.Normalize(map[string]any{
		"min_gap_pips":  "five",
		"min_wait_bars": 2,
	}, testSchema(), "EURUSD")

	// Falls back to the instrument default, the call does not fail
	assert.Equal(t, 0.0001, got["min_gap"])
	assert.Equal(t, 2, got["min_wait_bars"])
	assert.True(t, strings.Contains(buf.String(), "dropping pip parameter"))
}

func TestNormalize_NonFinitePipsDropped(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{"nan string", "NaN"},
		{"inf string", "Inf"},
		{"negative inf string", "-inf"},
		{"nan float", math.NaN()},
		{"inf float", math.Inf(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			n := NewNormalizer(WithLogger(logger.NewWithWriter(&buf, zerolog.WarnLevel)))

			got := n.Normalize(map[string]any{"min_gap_pips": tt.value}, testSchema(), "EURUSD")

			assert.Equal(t, 0.0001, got["min_gap"])
			assert.NotContains(t, got, "min_gap_pips")
			assert.True(t, strings.Contains(buf.String(), "dropping pip parameter"))
		})
	}
}

func TestNormalize_NonFiniteFloatKeptRaw(t *testing.T) {
	n := NewNormalizer()

	got := n.Normalize(map[string]any{"min_gap": "NaN"}, testSchema(), "EURUSD")
	assert.Equal(t, "NaN", got["min_gap"])

	r := NewReader(got, testSchema())
	_ = r.Float("min_gap")
	require.ErrorIs(t, r.Err(), ErrInvalidParam)
}

func TestPipsToPrice(t *testing.T) {
	price, ok := PipsToPrice(20, 0.0001)
	require.True(t, ok)
	assert.Equal(t, 0.002, price)

	for _, in := range [][2]float64{
		{math.NaN(), 0.0001},
		{math.Inf(1), 0.0001},
		{5, math.Inf(-1)},
	} {
		if _, ok := PipsToPrice(in[0], in[1]); ok {
			t.Errorf("PipsToPrice(%v, %v) should report failure", in[0], in[1])
		}
	}
}

func TestNormalize_MinGapDefault(t *testing.T) {
	n := NewNormalizer(WithDefaultMinGapPips(2))

	got := n.Normalize(map[string]any{}, testSchema(), "EURUSD")
	assert.Equal(t, 0.0002, got["min_gap"])

	withoutGap := Schema{{Name: "min_wait_bars", Default: 1}}
	got = n.Normalize(map[string]any{}, withoutGap, "EURUSD")
	assert.NotContains(t, got, "min_gap")
}

func TestNormalize_DiscardsUndeclared(t *testing.T) {
	n := NewNormalizer()

	got := n.Normalize(map[string]any{
		"min_wait_bars": 1,
		"future_knob":   "x",
		"nil_value":     nil,
	}, testSchema(), "EURUSD")

	for k := range got {
		if !testSchema().Declares(k) {
			t.Errorf("undeclared key %q survived normalization", k)
		}
	}
}

func TestNormalize_UncoercibleKeptRaw(t *testing.T) {
	n := NewNormalizer()

	got := n.Normalize(map[string]any{"min_wait_bars": "soon"}, testSchema(), "EURUSD")
	assert.Equal(t, "soon", got["min_wait_bars"])

	r := NewReader(got, testSchema())
	_ = r.Int("min_wait_bars")
	require.ErrorIs(t, r.Err(), ErrInvalidParam)
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	n := NewNormalizer()
	raw := map[string]any{"min_gap_pips": 5, "min_wait": "2"}

	_ = n.Normalize(raw, testSchema(), "EURUSD")

	assert.Equal(t, map[string]any{"min_gap_pips": 5, "min_wait": "2"}, raw)
}

func TestPipSize(t *testing.T) {
	tests := []struct {
		instrument string
		overrides  map[string]float64
		want       float64
	}{
		{"EURUSD", nil, 0.0001},
		{"usdjpy", nil, 0.01},
		{"EURJPY", nil, 0.01},
		{"XAUUSD", map[string]float64{"XAUUSD": 0.1}, 0.1},
		{"GBPUSD", map[string]float64{"GBPUSD": 0}, 0.0001},
	}

	for _, tt := range tests {
		t.Run(tt.instrument, func(t *testing.T) {
			if got := PipSize(tt.instrument, tt.overrides); got != tt.want {
				t.Errorf("PipSize(%s) = %v, want %v", tt.instrument, got, tt.want)
			}
		})
	}
}
