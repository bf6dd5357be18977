package assessment

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// numberReplacer strips formatting users type into numeric inputs.
var numberReplacer = strings.NewReplacer("$", "", ",", "", "%", "", "_", "", " ", "")

// toFloat converts a decoded answer to a finite float64.
func toFloat(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		s := numberReplacer.Replace(strings.TrimSpace(x))
		if s == "" {
			return 0, false
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// toBool converts a decoded answer to a boolean. Unrecognized strings and
// non-scalar values report ok=false.
func toBool(v any) (value, ok bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "yes", "y", "1", "on":
			return true, true
		case "false", "no", "n", "0", "off":
			return false, true
		}
		return false, false
	default:
		if f, ok := toFloat(v); ok {
			return f != 0, true
		}
		return false, false
	}
}

// isBlank reports whether an answer counts as not given: absent, nil, an
// empty or whitespace string, or false. Zero is a real answer.
func isBlank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case bool:
		return !x
	default:
		return false
	}
}

func flag(b bool) int {
	if b {
		return 1
	}
	return 0
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
