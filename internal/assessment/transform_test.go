package assessment

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/flash-cli/internal/model"
)

func TestSchema_Shape(t *testing.T) {
	t.Parallel()

	assert.Equal(t, FeatureCount, Schema.Len())

	counts := map[model.Pillar]int{}
	for _, f := range Schema.Features {
		counts[f.Pillar]++
	}
	assert.Equal(t, 7, counts[model.PillarCapital])
	assert.Equal(t, 8, counts[model.PillarAdvantage])
	assert.Equal(t, 11, counts[model.PillarMarket])
	assert.Equal(t, 10, counts[model.PillarPeople])
	assert.Equal(t, 9, counts[model.PillarProduct])

	seen := map[string]bool{}
	for _, f := range Schema.Features {
		assert.False(t, seen[f.Name], "duplicate feature %s", f.Name)
		seen[f.Name] = true
		if f.Kind == model.KindEnum {
			assert.NotNil(t, DefaultLookups().Table(f.Lookup), "lookup %s", f.Lookup)
			assert.Equal(t, DefaultLookups().Fallback(f.Lookup), f.Default, f.Name)
		}
	}
}

func TestTransform_KeyCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rec  model.AssessmentRecord
	}{
		{name: "empty record", rec: model.AssessmentRecord{}},
		{name: "full record", rec: validRecord()},
		{name: "capital only", rec: model.AssessmentRecord{Capital: model.Group{"cashOnHand": 10.0}}},
		{name: "extra fields ignored", rec: model.AssessmentRecord{Market: model.Group{"unknownField": 1.0, "tam": 5.0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			v := Transform(tt.rec)
			assert.Len(t, v, FeatureCount)
			require.NoError(t, v.CheckShape(Schema))
		})
	}
}

func TestTransform_CapitalScenario(t *testing.T) {
	t.Parallel()

	rec := model.AssessmentRecord{Capital: model.Group{
		"totalRaised": 500000.0,
		"cashOnHand":  300000.0,
		"monthlyBurn": 25000.0,
		"hasDebt":     true,
	}}

	v := Transform(rec)

	debt, ok := v.Int("has_debt")
	require.True(t, ok)
	assert.Equal(t, 1, debt)

	runway, ok := v.Float("runway_months")
	require.True(t, ok)
	assert.Equal(t, 12.0, runway)

	assert.Equal(t, 500000.0, v["total_capital_raised_usd"])
	assert.Equal(t, MaxBurnMultiple, v["burn_multiple"])
}

func TestTransform_Flags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   any
		want int
	}{
		{"true", true, 1},
		{"false", false, 0},
		{"yes string", "Yes", 1},
		{"no string", "no", 0},
		{"numeric one", 1.0, 1},
		{"numeric zero", 0.0, 0},
		{"nil", nil, 0},
		{"garbage", "maybe", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			v := Transform(model.AssessmentRecord{Capital: model.Group{"hasDebt": tt.in}})
			assert.Equal(t, tt.want, v["has_debt"])
		})
	}

	v := Transform(validRecord())
	for _, f := range Schema.Features {
		if f.Kind != model.KindFlag {
			continue
		}
		n, ok := v.Int(f.Name)
		require.True(t, ok, "%s is not an int", f.Name)
		assert.Contains(t, []int{0, 1}, n, f.Name)
	}
}

func TestTransform_Ratios(t *testing.T) {
	t.Parallel()

	for _, pct := range []float64{0, 1, 33.3, 50, 99.9, 100} {
		v := Transform(model.AssessmentRecord{Market: model.Group{
			"retention30d": pct,
			"retention90d": pct,
			"dauMau":       pct,
		}})
		for _, key := range []string{"product_retention_30d", "product_retention_90d", "dau_mau_ratio"} {
			got, ok := v.Float(key)
			require.True(t, ok)
			assert.InDelta(t, pct/100, got, 1e-12, key)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		}
	}

	v := Transform(model.AssessmentRecord{Market: model.Group{"grossMargin": 70.0}})
	assert.Equal(t, 70.0, v["gross_margin_percent"], "percent features pass through")
}

func TestTransform_Scales(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   any
		want float64
	}{
		{"in range", 4.0, 4},
		{"rounded", 2.6, 3},
		{"clamped high", 9.0, 5},
		{"clamped low", -1.0, 1},
		{"string", "2", 2},
		{"missing", nil, DefaultScale},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			v := Transform(model.AssessmentRecord{Advantage: model.Group{"scalability": tt.in}})
			assert.Equal(t, tt.want, v["scalability_score"])
		})
	}
}

func TestTransform_Enums(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		page  model.Page
		field string
		in    any
		key   string
		want  string
	}{
		{"sector alias", model.PageCompanyInfo, "sector", "Artificial Intelligence", "sector", "ai_ml"},
		{"sector canonical", model.PageCompanyInfo, "sector", "fintech", "sector", "fintech"},
		{"sector unmapped", model.PageCompanyInfo, "sector", "nonexistent_sector", "sector", "other"},
		{"sector non-string", model.PageCompanyInfo, "sector", 42.0, "sector", "other"},
		{"investor tier", model.PageCapital, "investorTier", "Top Tier", "investor_tier_primary", "tier_1"},
		{"investor tier missing", model.PageCapital, "investorTier", nil, "investor_tier_primary", "none"},
		{"product stage", model.PageCompanyInfo, "productStage", "Prototype", "product_stage", "mvp"},
		{"product stage unmapped", model.PageCompanyInfo, "productStage", "???", "product_stage", "concept"},
		{"funding stage", model.PageCompanyInfo, "fundingStage", "Series A", "funding_stage", "series_a"},
		{"funding stage unmapped", model.PageCompanyInfo, "fundingStage", "IPO", "funding_stage", "pre_seed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var rec model.AssessmentRecord
			rec.SetGroup(tt.page, model.Group{tt.field: tt.in})
			v := Transform(rec)
			assert.Equal(t, tt.want, v[tt.key])
		})
	}
}

func TestTransform_Derived(t *testing.T) {
	t.Parallel()

	rec := validRecord()
	v := Transform(rec)

	assert.Equal(t, math.Floor(300000.0/25000.0), v["runway_months"])
	assert.Equal(t, 2.5, v["burn_multiple"])
	assert.Equal(t, math.Round(1000000000.0*0.10), v["sam_size_usd"])
	sam, _ := v.Float("sam_size_usd")
	assert.Equal(t, math.Round(sam*0.01), v["som_size_usd"])
	assert.Equal(t, 120000.0, v["annual_revenue_run_rate"])
}

func TestTransform_DerivedInputsIgnored(t *testing.T) {
	t.Parallel()

	rec := model.AssessmentRecord{
		Capital: model.Group{"cashOnHand": 1000.0, "monthlyBurn": 100.0, "runwayMonths": 999.0},
		Market:  model.Group{"tam": 1000.0, "sam": 7.0},
	}
	v := Transform(rec)
	assert.Equal(t, 10.0, v["runway_months"])
	assert.Equal(t, 100.0, v["sam_size_usd"])
}

func TestTransform_ZeroBurn(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cash any
		want float64
	}{
		{"cash and no burn", 50000.0, MaxRunwayMonths},
		{"no cash no burn", 0.0, 0},
		{"missing cash", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			v := Transform(model.AssessmentRecord{Capital: model.Group{"cashOnHand": tt.cash, "monthlyBurn": 0.0}})
			runway, ok := v.Float("runway_months")
			require.True(t, ok)
			assert.False(t, math.IsInf(runway, 0))
			assert.False(t, math.IsNaN(runway))
			assert.Equal(t, tt.want, runway)

			bm, _ := v.Float("burn_multiple")
			assert.Equal(t, 0.0, bm)
		})
	}
}

func TestTransform_Idempotent(t *testing.T) {
	t.Parallel()

	rec := validRecord()
	first := Transform(rec)
	second := Transform(rec)
	assert.Equal(t, first, second)
	assert.Equal(t, validRecord(), rec, "input must not be mutated")
}

func TestTransform_NumericCoercion(t *testing.T) {
	t.Parallel()

	v := Transform(model.AssessmentRecord{Capital: model.Group{
		"totalRaised": "$1,250,000",
		"cashOnHand":  "not a number",
		"monthlyBurn": 10,
	}})
	assert.Equal(t, 1250000.0, v["total_capital_raised_usd"])
	assert.Equal(t, 0.0, v["cash_on_hand_usd"])
	assert.Equal(t, 10.0, v["monthly_burn_usd"])
}

func TestTransformWithReport(t *testing.T) {
	t.Parallel()

	rec := validRecord()
	rec.CompanyInfo["sector"] = "underwater basket weaving"
	delete(rec.Market, "dauMau")

	tr := NewTransformer(nil)
	v, rep := tr.TransformWithReport(rec)

	assert.Equal(t, "other", v["sector"])
	assert.Contains(t, rep.Defaulted, "sector")
	assert.Contains(t, rep.Defaulted, "dau_mau_ratio")
	assert.Equal(t, map[string]string{"sector": "underwater basket weaving"}, rep.Unmapped)
	assert.NotContains(t, rep.Defaulted, "runway_months")

	_, rep = tr.TransformWithReport(validRecord())
	assert.Empty(t, rep.Unmapped)

	rec = validRecord()
	rec.CompanyInfo["sector"] = 5.0
	_, rep = tr.TransformWithReport(rec)
	assert.Equal(t, map[string]string{"sector": "5"}, rep.Unmapped, "non-text answers are reported as given")
}
