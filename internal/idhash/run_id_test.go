package idhash

import (
	"math"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zone-signal-lab/internal/domain"
)

var hexID = regexp.MustCompile(`^[0-9a-f]{10}$`)

func baseDescriptor() domain.RunDescriptor {
	return domain.RunDescriptor{
		StrategyID:      "gap_reversal",
		Instrument:      "EURUSD",
		Timeframe:       "M5",
		Window:          domain.TimeWindow{From: "2024-01-01", To: "2024-01-31"},
		StopDistance:    20,
		Target1Distance: 20,
		Target2Distance: 40,
		PipSize:         0.0001,
		TieBreak:        "target_first",
		RawParams:       map[string]any{"min_gap": 5},
		RequesterID:     "u1",
	}
}

func TestComputeRunID_Deterministic(t *testing.T) {
	first := ComputeRunID(baseDescriptor())
	second := ComputeRunID(baseDescriptor())

	if !hexID.MatchString(first.ID) {
		t.Fatalf("expected 10 hex characters, got %q", first.ID)
	}
	assert.Equal(t, first, second)
	assert.False(t, first.Fallback)

	changed := baseDescriptor()
	changed.RequesterID = "u2"
	assert.NotEqual(t, first.ID, ComputeRunID(changed).ID)
}

func TestComputeRunID_FieldChanges(t *testing.T) {
	base := ComputeRunID(baseDescriptor()).ID

	tests := []struct {
		name   string
		mutate func(d *domain.RunDescriptor)
	}{
		{"strategy", func(d *domain.RunDescriptor) { d.StrategyID = "gap" }},
		{"instrument", func(d *domain.RunDescriptor) { d.Instrument = "GBPUSD" }},
		{"timeframe", func(d *domain.RunDescriptor) { d.Timeframe = "M15" }},
		{"window", func(d *domain.RunDescriptor) { d.Window.To = "2024-02-01" }},
		{"stop", func(d *domain.RunDescriptor) { d.StopDistance = 21 }},
		{"target1", func(d *domain.RunDescriptor) { d.Target1Distance = 25 }},
		{"target2", func(d *domain.RunDescriptor) { d.Target2Distance = 41 }},
		{"pip size", func(d *domain.RunDescriptor) { d.PipSize = 0.01 }},
		{"tie break", func(d *domain.RunDescriptor) { d.TieBreak = "stop_first" }},
		{"raw param", func(d *domain.RunDescriptor) { d.RawParams["min_gap"] = 6 }},
		{"normalized param", func(d *domain.RunDescriptor) {
			d.NormalizedParams = map[string]any{"min_gap": 0.0005}
		}},
		{"nested param", func(d *domain.RunDescriptor) {
			d.RawParams["filters"] = map[string]any{"trend": true}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := baseDescriptor()
			tt.mutate(&d)
			assert.NotEqual(t, base, ComputeRunID(d).ID)
		})
	}
}

func TestComputeRunID_NestedParamChange(t *testing.T) {
	a := baseDescriptor()
	a.RawParams["filters"] = map[string]any{"trend": true, "fast": "ema_fast"}
	b := baseDescriptor()
	b.RawParams["filters"] = map[string]any{"trend": false, "fast": "ema_fast"}

	assert.NotEqual(t, ComputeRunID(a).ID, ComputeRunID(b).ID)
}

func TestComputeRunID_MapOrderIrrelevant(t *testing.T) {
	a := baseDescriptor()
	a.RawParams = map[string]any{"a": 1, "b": "x", "c": true}
	b := baseDescriptor()
	b.RawParams = map[string]any{"c": true, "b": "x", "a": 1}

	assert.Equal(t, ComputeRunID(a).ID, ComputeRunID(b).ID)
}

func TestComputeRunID_NilParamsDropped(t *testing.T) {
	a := baseDescriptor()
	b := baseDescriptor()
	b.RawParams["unset"] = nil

	assert.Equal(t, ComputeRunID(a).ID, ComputeRunID(b).ID)
}

func TestComputeRunID_Fallback(t *testing.T) {
	d := baseDescriptor()
	d.RawParams["ratio"] = math.NaN()

	first := ComputeRunID(d)
	second := ComputeRunID(d)

	require.True(t, first.Fallback)
	if !hexID.MatchString(first.ID) {
		t.Fatalf("expected 10 hex characters, got %q", first.ID)
	}
	assert.Equal(t, first.ID, second.ID)

	d.StopDistance = math.Inf(1)
	assert.True(t, ComputeRunID(d).Fallback)
	assert.NotEqual(t, first.ID, ComputeRunID(d).ID)
}

func TestNormalizeParams(t *testing.T) {
	in := map[string]any{
		"int":    5,
		"float":  0.5,
		"bool":   true,
		"string": "x",
		"nil":    nil,
		"list":   []int{1, 2},
		"nested": map[string]any{"b": 2, "a": 1},
	}

	out := NormalizeParams(in)

	assert.Equal(t, 5, out["int"])
	assert.Equal(t, 0.5, out["float"])
	assert.Equal(t, true, out["bool"])
	assert.Equal(t, "x", out["string"])
	assert.NotContains(t, out, "nil")
	assert.Equal(t, "[1,2]", out["list"])
	assert.Equal(t, `{"a":1,"b":2}`, out["nested"])
	assert.Contains(t, in, "nil", "input must not be modified")
}

func TestNormalizeParams_UnserializableNested(t *testing.T) {
	out := NormalizeParams(map[string]any{"nested": map[string]any{"x": math.NaN()}})
	assert.Equal(t, "map[x:NaN]", out["nested"])
}
