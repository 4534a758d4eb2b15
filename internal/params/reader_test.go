package params

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReader_DefaultsAndValues(t *testing.T) {
	schema := Schema{
		{Name: "min_wait_bars", Default: 1},
		{Name: "min_overlap_ratio", Default: 0.0},
		{Name: "allow_multiple_entries", Default: false},
		{Name: "oscillator", Default: "rsi"},
		{Name: "min_gap", Type: Float},
	}

	r := NewReader(map[string]any{
		"min_wait_bars":     3,
		"min_overlap_ratio": 0.5,
	}, schema)

	assert.Equal(t, 3, r.Int("min_wait_bars"))
	assert.Equal(t, 0.5, r.Float("min_overlap_ratio"))
	assert.Equal(t, false, r.Bool("allow_multiple_entries"))
	assert.Equal(t, "rsi", r.String("oscillator"))
	assert.Equal(t, 0.0, r.Float("min_gap"))
	assert.False(t, r.Has("min_gap"))
	assert.NoError(t, r.Err())
}

func TestReader_KeepsFirstError(t *testing.T) {
	r := NewReader(map[string]any{
		"a": "x",
		"b": "y",
	}, Schema{{Name: "a", Type: Int}, {Name: "b", Type: Float}})

	r.Int("a")
	r.Float("b")

	if !errors.Is(r.Err(), ErrInvalidParam) {
		t.Fatalf("expected ErrInvalidParam, got %v", r.Err())
	}
	assert.Contains(t, r.Err().Error(), "a:")
}

func TestSchema_Merge(t *testing.T) {
	base := Schema{{Name: "a", Default: 1}, {Name: "b", Default: 2}}
	merged := base.Merge(Schema{{Name: "b", Default: 3}, {Name: "c", Default: 4}})

	assert.Equal(t, []string{"a", "b", "c"}, merged.Names())
	spec, _ := merged.Lookup("b")
	assert.Equal(t, 3, spec.Default)
}

func TestSpec_ExpectedType(t *testing.T) {
	tests := []struct {
		spec Spec
		want Type
	}{
		{Spec{Default: 1}, Int},
		{Spec{Default: 1.5}, Float},
		{Spec{Default: true}, Bool},
		{Spec{Default: "x"}, String},
		{Spec{Type: Float}, Float},
		{Spec{}, Auto},
	}

	for _, tt := range tests {
		if got := tt.spec.ExpectedType(); got != tt.want {
			t.Errorf("ExpectedType(%+v) = %v, want %v", tt.spec, got, tt.want)
		}
	}
}
