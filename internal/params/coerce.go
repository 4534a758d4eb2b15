package params

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	trueWords  = map[string]struct{}{"true": {}, "1": {}, "yes": {}, "y": {}, "on": {}, "t": {}}
	falseWords = map[string]struct{}{"false": {}, "0": {}, "no": {}, "n": {}, "off": {}, "f": {}}
)

// coerce converts v to t. Auto passes v through.
func coerce(v any, t Type) (any, bool) {
	switch t {
	case Int:
		i, ok := toInt(v)
		return i, ok
	case Float:
		f, ok := toFloat(v)
		return f, ok
	case Bool:
		b, ok := toBool(v)
		return b, ok
	case String:
		s, ok := toString(v)
		return s, ok
	default:
		return v, true
	}
}

func toInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int32:
		return int(x), true
	case int64:
		return int(x), true
	case float32:
		return floatToInt(float64(x))
	case float64:
		return floatToInt(x)
	case json.Number:
		return toInt(string(x))
	case string:
		s := strings.TrimSpace(x)
		if i, err := strconv.Atoi(s); err == nil {
			return i, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return floatToInt(f)
	default:
		return 0, false
	}
}

// floatToInt accepts integral values only.
func floatToInt(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// toFloat accepts finite numbers only.
func toFloat(v any) (float64, bool) {
	f, ok := rawFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func rawFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func toBool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case int:
		return x != 0, true
	case int64:
		return x != 0, true
	case float64:
		return x != 0, true
	case string:
		w := strings.ToLower(strings.TrimSpace(x))
		if _, ok := trueWords[w]; ok {
			return true, true
		}
		if _, ok := falseWords[w]; ok {
			return false, true
		}
		return false, false
	default:
		return false, false
	}
}

func toString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case bool, int, int32, int64, float32, float64, json.Number:
		return fmt.Sprint(x), true
	default:
		return "", false
	}
}
