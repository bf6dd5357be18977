package assessment

import (
	"fmt"
	"math"
	"sync"

	"github.com/sells-group/flash-cli/internal/model"
)

// Report describes how a record was transformed.
type Report struct {
	// Defaulted lists features that fell back to their default because the
	// answer was absent, unparseable, or an unmapped enum.
	Defaulted []string `json:"defaulted,omitempty"`
	// Unmapped lists enum features whose answer was given but had no lookup
	// entry, with the raw answer.
	Unmapped map[string]string `json:"unmapped,omitempty"`
}

// Transformer maps assessment records onto feature vectors.
type Transformer struct {
	schema  *model.FeatureRegistry
	lookups *Lookups
}

// NewTransformer returns a Transformer using the given lookup tables. A nil
// lookups uses DefaultLookups.
func NewTransformer(lookups *Lookups) *Transformer {
	if lookups == nil {
		lookups = DefaultLookups()
	}
	return &Transformer{schema: Schema, lookups: lookups}
}

// Transform maps rec onto a feature vector. It never fails: missing or
// invalid answers take the feature default.
func (t *Transformer) Transform(rec model.AssessmentRecord) model.FeatureVector {
	v, _ := t.TransformWithReport(rec)
	return v
}

// TransformWithReport is Transform plus a report of defaulted features.
func (t *Transformer) TransformWithReport(rec model.AssessmentRecord) (model.FeatureVector, Report) {
	v := make(model.FeatureVector, t.schema.Len())
	var rep Report

	for i := range t.schema.Features {
		f := &t.schema.Features[i]
		if f.Kind == model.KindDerived {
			continue
		}
		raw, present := rec.Group(f.Page)[f.Source]
		val, ok := t.convert(f, raw)
		if !ok {
			rep.Defaulted = append(rep.Defaulted, f.Name)
			if f.Kind == model.KindEnum && present && !isBlank(raw) {
				if rep.Unmapped == nil {
					rep.Unmapped = make(map[string]string)
				}
				rep.Unmapped[f.Name] = fmt.Sprint(raw)
			}
		}
		v[f.Name] = val
	}

	derive(v, rec)
	return v, rep
}

// convert applies the feature's kind to a raw answer. On failure it returns
// the feature default and false.
func (t *Transformer) convert(f *model.FeatureSpec, raw any) (any, bool) {
	switch f.Kind {
	case model.KindFlag:
		b, ok := toBool(raw)
		if !ok {
			return 0, false
		}
		return flag(b), true

	case model.KindEnum:
		fallback := t.lookups.Fallback(f.Lookup)
		s, ok := raw.(string)
		if !ok || isBlank(s) {
			return fallback, false
		}
		return t.lookups.Resolve(f.Lookup, s)

	case model.KindScale:
		n, ok := toFloat(raw)
		if !ok {
			return DefaultScale, false
		}
		return clamp(math.Round(n), 1, 5), true

	case model.KindRatio:
		n, ok := toFloat(raw)
		if !ok {
			return 0.0, false
		}
		return n / 100, true

	default: // number, percent
		n, ok := toFloat(raw)
		if !ok {
			return 0.0, false
		}
		return n, true
	}
}

var (
	defaultTransformerOnce sync.Once
	defaultTransformer     *Transformer
)

// Transform maps rec onto a feature vector using the embedded lookup tables.
func Transform(rec model.AssessmentRecord) model.FeatureVector {
	defaultTransformerOnce.Do(func() {
		defaultTransformer = NewTransformer(nil)
	})
	return defaultTransformer.Transform(rec)
}
