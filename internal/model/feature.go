package model

import (
	"sort"

	"github.com/rotisserie/eris"
)

// FeatureVector is the flat record posted to the prediction backend.
// Numbers are float64, flags are int 0/1, enums are string.
type FeatureVector map[string]any

// Keys returns the vector's keys sorted alphabetically.
func (v FeatureVector) Keys() []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Float returns a numeric feature as float64. Flags are widened.
func (v FeatureVector) Float(name string) (float64, bool) {
	switch x := v[name].(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}

// String returns an enum feature.
func (v FeatureVector) String(name string) (string, bool) {
	s, ok := v[name].(string)
	return s, ok
}

// Int returns a flag feature.
func (v FeatureVector) Int(name string) (int, bool) {
	i, ok := v[name].(int)
	return i, ok
}

// CheckShape verifies that v has exactly the registry's keys and that each
// value has the Go type its kind requires.
func (v FeatureVector) CheckShape(reg *FeatureRegistry) error {
	if len(v) != reg.Len() {
		return eris.Errorf("feature vector: want %d keys, got %d", reg.Len(), len(v))
	}
	for _, f := range reg.Features {
		val, ok := v[f.Name]
		if !ok {
			return eris.Errorf("feature vector: missing key %s", f.Name)
		}
		switch f.Kind {
		case KindFlag:
			i, ok := val.(int)
			if !ok || (i != 0 && i != 1) {
				return eris.Errorf("feature vector: %s must be int 0/1, got %v", f.Name, val)
			}
		case KindEnum:
			if _, ok := val.(string); !ok {
				return eris.Errorf("feature vector: %s must be string, got %T", f.Name, val)
			}
		default:
			if _, ok := val.(float64); !ok {
				return eris.Errorf("feature vector: %s must be float64, got %T", f.Name, val)
			}
		}
	}
	return nil
}
