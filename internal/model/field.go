package model

// Pillar is the scoring pillar a feature belongs to. The four CAMP pillars
// plus product.
type Pillar string

const (
	PillarCapital   Pillar = "capital"
	PillarAdvantage Pillar = "advantage"
	PillarMarket    Pillar = "market"
	PillarPeople    Pillar = "people"
	PillarProduct   Pillar = "product"
)

// FeatureKind controls how a source answer is converted into a feature value.
type FeatureKind string

const (
	// KindNumber passes a numeric answer through as float64.
	KindNumber FeatureKind = "number"
	// KindFlag converts a boolean answer to int 0/1.
	KindFlag FeatureKind = "flag"
	// KindRatio divides a 0-100 percentage answer by 100.
	KindRatio FeatureKind = "ratio"
	// KindPercent passes a 0-100 percentage answer through unchanged.
	KindPercent FeatureKind = "percent"
	// KindScale is a 1-5 answer, rounded and clamped.
	KindScale FeatureKind = "scale"
	// KindEnum maps a free-form answer through a lookup table.
	KindEnum FeatureKind = "enum"
	// KindDerived is computed from other answers and never read directly.
	KindDerived FeatureKind = "derived"
)

// FeatureSpec describes one of the backend's feature-vector keys and where
// its value comes from in the wizard record.
type FeatureSpec struct {
	Name    string      `json:"name"`
	Pillar  Pillar      `json:"pillar"`
	Kind    FeatureKind `json:"kind"`
	Page    Page        `json:"page,omitempty"`
	Source  string      `json:"source,omitempty"`
	Lookup  string      `json:"lookup,omitempty"` // lookup table name for KindEnum
	Default any         `json:"default"`
}

// FeatureRegistry is an indexed, ordered collection of feature specs.
type FeatureRegistry struct {
	Features []FeatureSpec
	byName   map[string]*FeatureSpec
	bySource map[Page]map[string]*FeatureSpec
	byPillar map[Pillar][]*FeatureSpec
}

// NewFeatureRegistry creates a FeatureRegistry with indexed lookups.
func NewFeatureRegistry(features []FeatureSpec) *FeatureRegistry {
	r := &FeatureRegistry{
		Features: features,
		byName:   make(map[string]*FeatureSpec, len(features)),
		bySource: make(map[Page]map[string]*FeatureSpec),
		byPillar: make(map[Pillar][]*FeatureSpec),
	}
	for i := range r.Features {
		f := &r.Features[i]
		r.byName[f.Name] = f
		r.byPillar[f.Pillar] = append(r.byPillar[f.Pillar], f)
		if f.Source != "" {
			if r.bySource[f.Page] == nil {
				r.bySource[f.Page] = make(map[string]*FeatureSpec)
			}
			r.bySource[f.Page][f.Source] = f
		}
	}
	return r
}

// ByName returns the FeatureSpec for a key, or nil if not found.
func (r *FeatureRegistry) ByName(name string) *FeatureSpec {
	return r.byName[name]
}

// BySource returns the FeatureSpec fed by the given page field, or nil.
func (r *FeatureRegistry) BySource(page Page, field string) *FeatureSpec {
	return r.bySource[page][field]
}

// ByPillar returns the FeatureSpecs of a pillar in declaration order.
func (r *FeatureRegistry) ByPillar(p Pillar) []*FeatureSpec {
	return r.byPillar[p]
}

// Names returns all feature keys in declaration order.
func (r *FeatureRegistry) Names() []string {
	names := make([]string, len(r.Features))
	for i, f := range r.Features {
		names[i] = f.Name
	}
	return names
}

// Len returns the number of features.
func (r *FeatureRegistry) Len() int {
	return len(r.Features)
}
