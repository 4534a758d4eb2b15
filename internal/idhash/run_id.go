package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"zone-signal-lab/internal/domain"
)

// RunIDLength is the number of hex characters kept from the digest.
const RunIDLength = 10

// Identity is the content key of one run.
type Identity struct {
	ID string
	// Fallback is set when the descriptor could not be serialized as JSON
	// and the secondary text form was hashed instead.
	Fallback bool
}

// ComputeRunID computes a deterministic run_id using SHA256.
// Formula: SHA256(canonical_json(descriptor))[:10]
// Canonical JSON has sorted keys and no whitespace. When serialization
// fails (NaN or Inf values) the sorted key=value text form is hashed.
func ComputeRunID(d domain.RunDescriptor) Identity {
	payload := canonicalDescriptor(d)

	data, err := json.Marshal(payload)
	if err != nil {
		return Identity{
			ID:       digest([]byte(canonicalText(payload)))[:RunIDLength],
			Fallback: true,
		}
	}
	return Identity{ID: digest(data)[:RunIDLength]}
}

func canonicalDescriptor(d domain.RunDescriptor) map[string]any {
	return map[string]any{
		"strategy":   d.StrategyID,
		"instrument": d.Instrument,
		"timeframe":  d.Timeframe,
		"window":     d.Window.String(),
		"stop":       d.StopDistance,
		"target1":    d.Target1Distance,
		"target2":    d.Target2Distance,
		"pip_size":   d.PipSize,
		"tie_break":  d.TieBreak,
		"params": map[string]any{
			"raw":        NormalizeParams(d.RawParams),
			"normalized": NormalizeParams(d.NormalizedParams),
		},
		"requester": d.RequesterID,
	}
}

// NormalizeParams prepares a parameter mapping for hashing.
// Nil values are dropped, scalars kept, and anything else is replaced by
// its compact JSON text (fmt %v when JSON fails).
func NormalizeParams(params map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		if v == nil {
			continue
		}
		if isScalar(v) {
			out[k] = v
			continue
		}
		if b, err := json.Marshal(v); err == nil {
			out[k] = string(b)
		} else {
			out[k] = fmt.Sprintf("%v", v)
		}
	}
	return out
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, bool, json.Number,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}

// canonicalText renders v with map keys sorted.
func canonicalText(v any) string {
	var b strings.Builder
	writeCanonical(&b, v)
	return b.String()
}

func writeCanonical(b *strings.Builder, v any) {
	switch x := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(';')
			}
			b.WriteString(strconv.Quote(k))
			b.WriteByte('=')
			writeCanonical(b, x[k])
		}
		b.WriteByte('}')
	case string:
		b.WriteString(strconv.Quote(x))
	case float64:
		b.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
	case float32:
		b.WriteString(strconv.FormatFloat(float64(x), 'g', -1, 32))
	default:
		fmt.Fprintf(b, "%v", x)
	}
}

func digest(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
