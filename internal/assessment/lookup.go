package assessment

import (
	_ "embed"
	"os"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

//go:embed lookups.yaml
var defaultLookupsYAML []byte

// requiredLookups must be present in any lookup document.
var requiredLookups = []string{LookupSector, LookupInvestorTier, LookupProductStage, LookupFundingStage}

// LookupTable maps free-form answers onto one enum's canonical values.
type LookupTable struct {
	Fallback string              `yaml:"fallback"`
	Values   map[string][]string `yaml:"values"`

	index map[string]string // normalized alias -> canonical
}

// Resolve maps a raw answer to its canonical value. The second result is
// false when the answer had no entry and the fallback was used.
func (t *LookupTable) Resolve(raw string) (string, bool) {
	if v, ok := t.index[NormalizeKey(raw)]; ok {
		return v, true
	}
	return t.Fallback, false
}

// Canonical returns the table's canonical values sorted.
func (t *LookupTable) Canonical() []string {
	out := make([]string, 0, len(t.Values))
	for k := range t.Values {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Lookups is a set of named lookup tables.
type Lookups struct {
	tables map[string]*LookupTable
}

// Table returns the named table, or nil.
func (l *Lookups) Table(name string) *LookupTable {
	return l.tables[name]
}

// Resolve maps a raw answer through the named table. Unknown tables resolve
// to "" and false.
func (l *Lookups) Resolve(table, raw string) (string, bool) {
	t := l.tables[table]
	if t == nil {
		return "", false
	}
	return t.Resolve(raw)
}

// Fallback returns the named table's fallback value.
func (l *Lookups) Fallback(table string) string {
	if t := l.tables[table]; t != nil {
		return t.Fallback
	}
	return ""
}

// ParseLookups parses a lookup YAML document with a top-level "lookups" key.
func ParseLookups(data []byte) (*Lookups, error) {
	var doc struct {
		Lookups map[string]*LookupTable `yaml:"lookups"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "lookups: parse")
	}

	for _, name := range requiredLookups {
		if doc.Lookups[name] == nil {
			return nil, eris.Errorf("lookups: missing table %s", name)
		}
	}

	for name, t := range doc.Lookups {
		if t == nil {
			return nil, eris.Errorf("lookups: table %s is empty", name)
		}
		if _, ok := t.Values[t.Fallback]; !ok {
			return nil, eris.Errorf("lookups: table %s fallback %q is not a canonical value", name, t.Fallback)
		}
		t.index = make(map[string]string)
		for canonical, aliases := range t.Values {
			keys := append([]string{canonical}, aliases...)
			for _, a := range keys {
				k := NormalizeKey(a)
				if prev, ok := t.index[k]; ok && prev != canonical {
					return nil, eris.Errorf("lookups: table %s alias %q maps to both %s and %s", name, a, prev, canonical)
				}
				t.index[k] = canonical
			}
		}
	}

	return &Lookups{tables: doc.Lookups}, nil
}

// LoadLookups reads a lookup YAML file from disk.
func LoadLookups(path string) (*Lookups, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "lookups: read %s", path)
	}
	return ParseLookups(data)
}

var (
	defaultLookupsOnce sync.Once
	defaultLookups     *Lookups
)

// DefaultLookups returns the tables embedded in the binary.
func DefaultLookups() *Lookups {
	defaultLookupsOnce.Do(func() {
		l, err := ParseLookups(defaultLookupsYAML)
		if err != nil {
			panic(err)
		}
		defaultLookups = l
	})
	return defaultLookups
}

// NormalizeKey case-folds an answer and collapses every run of non
// alphanumeric characters to a single underscore: "AI/ML" -> "ai_ml",
// "Series A" -> "series_a".
func NormalizeKey(s string) string {
	folded := cases.Fold().String(strings.TrimSpace(s))

	var b strings.Builder
	b.Grow(len(folded))
	pendingSep := false
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}
