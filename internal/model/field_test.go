package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFeatureRegistry(t *testing.T) {
	t.Parallel()

	features := []FeatureSpec{
		{Name: "cash_on_hand_usd", Pillar: PillarCapital, Kind: KindNumber, Page: PageCapital, Source: "cashOnHand", Default: 0.0},
		{Name: "has_debt", Pillar: PillarCapital, Kind: KindFlag, Page: PageCapital, Source: "hasDebt", Default: 0},
		{Name: "runway_months", Pillar: PillarCapital, Kind: KindDerived, Default: 0.0},
		{Name: "sector", Pillar: PillarMarket, Kind: KindEnum, Page: PageCompanyInfo, Source: "sector", Lookup: "sector", Default: "other"},
	}

	reg := NewFeatureRegistry(features)

	t.Run("ByName returns correct spec", func(t *testing.T) {
		t.Parallel()
		f := reg.ByName("has_debt")
		require.NotNil(t, f)
		assert.Equal(t, KindFlag, f.Kind)
	})

	t.Run("ByName returns nil for unknown key", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, reg.ByName("nonexistent"))
	})

	t.Run("BySource resolves page field", func(t *testing.T) {
		t.Parallel()
		f := reg.BySource(PageCapital, "cashOnHand")
		require.NotNil(t, f)
		assert.Equal(t, "cash_on_hand_usd", f.Name)
	})

	t.Run("BySource ignores derived features", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, reg.BySource(PageCapital, "runway_months"))
		assert.Nil(t, reg.BySource(PageMarket, "sector"))
	})

	t.Run("ByPillar keeps declaration order", func(t *testing.T) {
		t.Parallel()
		capital := reg.ByPillar(PillarCapital)
		require.Len(t, capital, 3)
		assert.Equal(t, "cash_on_hand_usd", capital[0].Name)
		assert.Equal(t, "runway_months", capital[2].Name)
	})

	t.Run("Names and Len", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, 4, reg.Len())
		assert.Equal(t, []string{"cash_on_hand_usd", "has_debt", "runway_months", "sector"}, reg.Names())
	})
}

func TestFeatureVector_CheckShape(t *testing.T) {
	t.Parallel()

	reg := NewFeatureRegistry([]FeatureSpec{
		{Name: "cash_on_hand_usd", Kind: KindNumber},
		{Name: "has_debt", Kind: KindFlag},
		{Name: "sector", Kind: KindEnum},
	})

	tests := []struct {
		name    string
		vec     FeatureVector
		wantErr string
	}{
		{
			name: "valid",
			vec:  FeatureVector{"cash_on_hand_usd": 10.0, "has_debt": 1, "sector": "saas"},
		},
		{
			name:    "missing key",
			vec:     FeatureVector{"cash_on_hand_usd": 10.0, "has_debt": 1},
			wantErr: "want 3 keys, got 2",
		},
		{
			name:    "extra key replaces required one",
			vec:     FeatureVector{"cash_on_hand_usd": 10.0, "has_debt": 1, "extra": "x"},
			wantErr: "missing key sector",
		},
		{
			name:    "boolean flag",
			vec:     FeatureVector{"cash_on_hand_usd": 10.0, "has_debt": true, "sector": "saas"},
			wantErr: "has_debt must be int 0/1",
		},
		{
			name:    "flag out of range",
			vec:     FeatureVector{"cash_on_hand_usd": 10.0, "has_debt": 2, "sector": "saas"},
			wantErr: "has_debt must be int 0/1",
		},
		{
			name:    "numeric enum",
			vec:     FeatureVector{"cash_on_hand_usd": 10.0, "has_debt": 0, "sector": 3.0},
			wantErr: "sector must be string",
		},
		{
			name:    "string number",
			vec:     FeatureVector{"cash_on_hand_usd": "10", "has_debt": 0, "sector": "saas"},
			wantErr: "cash_on_hand_usd must be float64",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.vec.CheckShape(reg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFeatureVector_Accessors(t *testing.T) {
	t.Parallel()

	v := FeatureVector{"a": 1.5, "b": 1, "c": "saas"}

	f, ok := v.Float("a")
	assert.True(t, ok)
	assert.InDelta(t, 1.5, f, 1e-9)

	f, ok = v.Float("b")
	assert.True(t, ok)
	assert.InDelta(t, 1.0, f, 1e-9)

	_, ok = v.Float("c")
	assert.False(t, ok)

	i, ok := v.Int("b")
	assert.True(t, ok)
	assert.Equal(t, 1, i)

	s, ok := v.String("c")
	assert.True(t, ok)
	assert.Equal(t, "saas", s)

	assert.Equal(t, []string{"a", "b", "c"}, v.Keys())
}
