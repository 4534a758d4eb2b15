package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_WritesFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, zerolog.DebugLevel)

	log.Info("run completed",
		String("run_id", "abc123"),
		Int("signals", 3),
		Float64("win_rate", 0.5),
		Bool("reused", false),
		Duration("elapsed", 1500*time.Millisecond),
		Error(errors.New("boom")),
	)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))

	assert.Equal(t, "info", got["level"])
	assert.Equal(t, "run completed", got["message"])
	assert.Equal(t, "abc123", got["run_id"])
	assert.Equal(t, float64(3), got["signals"])
	assert.Equal(t, 0.5, got["win_rate"])
	assert.Equal(t, false, got["reused"])
	assert.Equal(t, float64(1500), got["elapsed"])
	assert.Equal(t, "boom", got["error"])
}

func TestLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, zerolog.WarnLevel)

	log.Debug("hidden")
	log.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn, got %q", buf.String())
	}

	log.Warn("shown")
	if buf.Len() == 0 {
		t.Fatal("expected warn output")
	}
}

func TestLogger_WithCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, zerolog.InfoLevel).With(String("execution_id", "e1"))

	log.Info("step")

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "e1", got["execution_id"])
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud"})
	if err == nil {
		t.Fatal("expected error for invalid level")
	}
}

func TestNop_DoesNotPanic(t *testing.T) {
	Nop().Error("ignored", String("k", "v"))
}
