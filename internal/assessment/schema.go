// Package assessment turns wizard answers into the prediction backend's
// feature vector and checks answers against the page rule tables.
package assessment

import "github.com/sells-group/flash-cli/internal/model"

// Lookup table names used by enum features.
const (
	LookupSector       = "sector"
	LookupInvestorTier = "investor_tier"
	LookupProductStage = "product_stage"
	LookupFundingStage = "funding_stage"
)

// DefaultScale is the value of an unanswered 1-5 scale feature.
const DefaultScale = 3.0

// features is the backend feature list in request order: 7 capital,
// 8 advantage, 11 market, 10 people, 9 product.
var features = []model.FeatureSpec{
	// Capital
	{Name: "total_capital_raised_usd", Pillar: model.PillarCapital, Kind: model.KindNumber, Page: model.PageCapital, Source: "totalRaised", Default: 0.0},
	{Name: "cash_on_hand_usd", Pillar: model.PillarCapital, Kind: model.KindNumber, Page: model.PageCapital, Source: "cashOnHand", Default: 0.0},
	{Name: "monthly_burn_usd", Pillar: model.PillarCapital, Kind: model.KindNumber, Page: model.PageCapital, Source: "monthlyBurn", Default: 0.0},
	{Name: "runway_months", Pillar: model.PillarCapital, Kind: model.KindDerived, Default: 0.0},
	{Name: "burn_multiple", Pillar: model.PillarCapital, Kind: model.KindDerived, Default: 0.0},
	{Name: "investor_tier_primary", Pillar: model.PillarCapital, Kind: model.KindEnum, Page: model.PageCapital, Source: "investorTier", Lookup: LookupInvestorTier, Default: "none"},
	{Name: "has_debt", Pillar: model.PillarCapital, Kind: model.KindFlag, Page: model.PageCapital, Source: "hasDebt", Default: 0},

	// Advantage
	{Name: "patent_count", Pillar: model.PillarAdvantage, Kind: model.KindNumber, Page: model.PageAdvantage, Source: "patentCount", Default: 0.0},
	{Name: "network_effects_present", Pillar: model.PillarAdvantage, Kind: model.KindFlag, Page: model.PageAdvantage, Source: "networkEffects", Default: 0},
	{Name: "has_data_moat", Pillar: model.PillarAdvantage, Kind: model.KindFlag, Page: model.PageAdvantage, Source: "dataMoat", Default: 0},
	{Name: "regulatory_advantage_present", Pillar: model.PillarAdvantage, Kind: model.KindFlag, Page: model.PageAdvantage, Source: "regulatoryAdvantage", Default: 0},
	{Name: "tech_differentiation_score", Pillar: model.PillarAdvantage, Kind: model.KindScale, Page: model.PageAdvantage, Source: "techDifferentiation", Default: DefaultScale},
	{Name: "switching_cost_score", Pillar: model.PillarAdvantage, Kind: model.KindScale, Page: model.PageAdvantage, Source: "switchingCost", Default: DefaultScale},
	{Name: "brand_strength_score", Pillar: model.PillarAdvantage, Kind: model.KindScale, Page: model.PageAdvantage, Source: "brandStrength", Default: DefaultScale},
	{Name: "scalability_score", Pillar: model.PillarAdvantage, Kind: model.KindScale, Page: model.PageAdvantage, Source: "scalability", Default: DefaultScale},

	// Market
	{Name: "sector", Pillar: model.PillarMarket, Kind: model.KindEnum, Page: model.PageCompanyInfo, Source: "sector", Lookup: LookupSector, Default: "other"},
	{Name: "tam_size_usd", Pillar: model.PillarMarket, Kind: model.KindNumber, Page: model.PageMarket, Source: "tam", Default: 0.0},
	{Name: "sam_size_usd", Pillar: model.PillarMarket, Kind: model.KindDerived, Default: 0.0},
	{Name: "som_size_usd", Pillar: model.PillarMarket, Kind: model.KindDerived, Default: 0.0},
	{Name: "market_growth_rate_percent", Pillar: model.PillarMarket, Kind: model.KindPercent, Page: model.PageMarket, Source: "marketGrowthRate", Default: 0.0},
	{Name: "customer_count", Pillar: model.PillarMarket, Kind: model.KindNumber, Page: model.PageMarket, Source: "customerCount", Default: 0.0},
	{Name: "customer_concentration_percent", Pillar: model.PillarMarket, Kind: model.KindPercent, Page: model.PageMarket, Source: "customerConcentration", Default: 0.0},
	{Name: "user_growth_rate_percent", Pillar: model.PillarMarket, Kind: model.KindPercent, Page: model.PageMarket, Source: "userGrowthRate", Default: 0.0},
	{Name: "net_dollar_retention_percent", Pillar: model.PillarMarket, Kind: model.KindPercent, Page: model.PageMarket, Source: "netDollarRetention", Default: 0.0},
	{Name: "competition_intensity", Pillar: model.PillarMarket, Kind: model.KindScale, Page: model.PageMarket, Source: "competitionIntensity", Default: DefaultScale},
	{Name: "competitors_named_count", Pillar: model.PillarMarket, Kind: model.KindNumber, Page: model.PageMarket, Source: "competitorCount", Default: 0.0},

	// People
	{Name: "founders_count", Pillar: model.PillarPeople, Kind: model.KindNumber, Page: model.PagePeople, Source: "founderCount", Default: 0.0},
	{Name: "team_size_full_time", Pillar: model.PillarPeople, Kind: model.KindNumber, Page: model.PagePeople, Source: "teamSize", Default: 0.0},
	{Name: "years_experience_avg", Pillar: model.PillarPeople, Kind: model.KindNumber, Page: model.PagePeople, Source: "avgExperience", Default: 0.0},
	{Name: "domain_expertise_years_avg", Pillar: model.PillarPeople, Kind: model.KindNumber, Page: model.PagePeople, Source: "domainExpertise", Default: 0.0},
	{Name: "prior_startup_experience_count", Pillar: model.PillarPeople, Kind: model.KindNumber, Page: model.PagePeople, Source: "priorStartups", Default: 0.0},
	{Name: "prior_successful_exits_count", Pillar: model.PillarPeople, Kind: model.KindNumber, Page: model.PagePeople, Source: "priorExits", Default: 0.0},
	{Name: "board_experience_score", Pillar: model.PillarPeople, Kind: model.KindScale, Page: model.PagePeople, Source: "boardExperience", Default: DefaultScale},
	{Name: "advisors_count", Pillar: model.PillarPeople, Kind: model.KindNumber, Page: model.PagePeople, Source: "advisorsCount", Default: 0.0},
	{Name: "team_diversity_percent", Pillar: model.PillarPeople, Kind: model.KindPercent, Page: model.PagePeople, Source: "diversityPercent", Default: 0.0},
	{Name: "key_person_dependency", Pillar: model.PillarPeople, Kind: model.KindFlag, Page: model.PagePeople, Source: "keyPersonDependency", Default: 0},

	// Product
	{Name: "product_stage", Pillar: model.PillarProduct, Kind: model.KindEnum, Page: model.PageCompanyInfo, Source: "productStage", Lookup: LookupProductStage, Default: "concept"},
	{Name: "product_retention_30d", Pillar: model.PillarProduct, Kind: model.KindRatio, Page: model.PageMarket, Source: "retention30d", Default: 0.0},
	{Name: "product_retention_90d", Pillar: model.PillarProduct, Kind: model.KindRatio, Page: model.PageMarket, Source: "retention90d", Default: 0.0},
	{Name: "dau_mau_ratio", Pillar: model.PillarProduct, Kind: model.KindRatio, Page: model.PageMarket, Source: "dauMau", Default: 0.0},
	{Name: "annual_revenue_run_rate", Pillar: model.PillarProduct, Kind: model.KindDerived, Default: 0.0},
	{Name: "revenue_growth_rate_percent", Pillar: model.PillarProduct, Kind: model.KindPercent, Page: model.PageMarket, Source: "revenueGrowthRate", Default: 0.0},
	{Name: "gross_margin_percent", Pillar: model.PillarProduct, Kind: model.KindPercent, Page: model.PageMarket, Source: "grossMargin", Default: 0.0},
	{Name: "ltv_cac_ratio", Pillar: model.PillarProduct, Kind: model.KindNumber, Page: model.PageMarket, Source: "ltvCacRatio", Default: 0.0},
	{Name: "funding_stage", Pillar: model.PillarProduct, Kind: model.KindEnum, Page: model.PageCompanyInfo, Source: "fundingStage", Lookup: LookupFundingStage, Default: "pre_seed"},
}

// Schema is the registry of the backend's feature keys.
var Schema = model.NewFeatureRegistry(features)

// FeatureCount is the number of keys every feature vector carries.
const FeatureCount = 45

// derivedSources lists page fields that hold derived values. They are never
// read by Transform and are dropped when a page is applied to a draft.
var derivedSources = map[model.Page][]string{
	model.PageCapital: {"runwayMonths", "burnMultiple", "annualRevenueRunRate"},
	model.PageMarket:  {"sam", "som"},
}

// IsDerivedSource reports whether a page field is computed rather than
// entered by the user.
func IsDerivedSource(page model.Page, field string) bool {
	for _, f := range derivedSources[page] {
		if f == field {
			return true
		}
	}
	return false
}

// AnswerType is the value type a page field expects from loosely typed
// input such as spreadsheet cells.
type AnswerType int

const (
	AnswerText AnswerType = iota
	AnswerNumber
	AnswerFlag
)

// AnswerTypeOf reports the expected type of the answer at page.field.
// Fields without a numeric or flag feature and without a numeric rule are
// text, including enum choices and the company name.
func AnswerTypeOf(page model.Page, field string) AnswerType {
	if spec := Schema.BySource(page, field); spec != nil {
		switch spec.Kind {
		case model.KindFlag:
			return AnswerFlag
		case model.KindNumber, model.KindRatio, model.KindPercent, model.KindScale:
			return AnswerNumber
		}
	}
	for _, r := range rules[page] {
		if r.Field == field && (r.Numeric || r.Min != nil || r.Max != nil) {
			return AnswerNumber
		}
	}
	return AnswerText
}
