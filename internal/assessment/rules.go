package assessment

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sells-group/flash-cli/internal/model"
)

// Rule constrains one field of a page. Checks run in order: required,
// numeric bounds, pattern, custom. The first failure is reported.
type Rule struct {
	Field    string
	Label    string
	Required bool
	// Numeric marks a field whose answer must parse as a number even when no
	// bounds are set.
	Numeric bool
	Min     *float64
	Max     *float64
	// Pattern is matched against string answers only.
	Pattern *regexp.Regexp
	// Custom receives the answer and the enclosing group. A non-empty return
	// is the error message.
	Custom func(value any, group model.Group) string
	// Message replaces the default "<Label> is required".
	Message string
}

func bound(f float64) *float64 { return &f }

var websitePattern = regexp.MustCompile(`^(https?://)?([a-zA-Z0-9-]+\.)+[a-zA-Z]{2,}(/\S*)?$`)

func scaleRule(field, label string) Rule {
	return Rule{Field: field, Label: label, Required: true, Numeric: true, Min: bound(1), Max: bound(5)}
}

func percentRule(field, label string) Rule {
	return Rule{Field: field, Label: label, Numeric: true, Min: bound(0), Max: bound(100)}
}

func countRule(field, label string, required bool) Rule {
	return Rule{Field: field, Label: label, Required: required, Numeric: true, Min: bound(0)}
}

// rules holds the rule table of every page in declaration order.
var rules = map[model.Page][]Rule{
	model.PageCompanyInfo: {
		{Field: "companyName", Label: "Company name", Required: true, Custom: companyNameLength, Message: "Please enter your company name"},
		{Field: "website", Label: "Website", Pattern: websitePattern},
		{Field: "foundedYear", Label: "Founded year", Numeric: true, Min: bound(1900), Max: bound(2100)},
		{Field: "sector", Label: "Sector", Required: true},
		{Field: "productStage", Label: "Product stage", Required: true},
		{Field: "fundingStage", Label: "Funding stage", Required: true},
	},
	model.PageCapital: {
		countRule("totalRaised", "Total capital raised", true),
		countRule("cashOnHand", "Cash on hand", true),
		countRule("monthlyBurn", "Monthly burn", true),
		countRule("monthlyRevenue", "Monthly revenue", false),
		{Field: "investorTier", Label: "Primary investor tier"},
	},
	model.PageAdvantage: {
		countRule("patentCount", "Patent count", false),
		scaleRule("techDifferentiation", "Technology differentiation"),
		scaleRule("switchingCost", "Switching cost"),
		scaleRule("brandStrength", "Brand strength"),
		scaleRule("scalability", "Scalability"),
	},
	model.PageMarket: {
		countRule("tam", "Total addressable market", true),
		{Field: "marketGrowthRate", Label: "Market growth rate", Numeric: true, Min: bound(-100)},
		countRule("customerCount", "Customer count", false),
		percentRule("customerConcentration", "Customer concentration"),
		{Field: "userGrowthRate", Label: "User growth rate", Numeric: true, Min: bound(-100)},
		{Field: "netDollarRetention", Label: "Net dollar retention", Numeric: true, Min: bound(0), Max: bound(500)},
		scaleRule("competitionIntensity", "Competition intensity"),
		countRule("competitorCount", "Named competitors", false),
		percentRule("retention30d", "30-day retention"),
		{Field: "retention90d", Label: "90-day retention", Numeric: true, Min: bound(0), Max: bound(100), Custom: retentionDecay},
		percentRule("dauMau", "DAU/MAU"),
		{Field: "revenueGrowthRate", Label: "Revenue growth rate", Numeric: true, Min: bound(-100)},
		{Field: "grossMargin", Label: "Gross margin", Numeric: true, Min: bound(-100), Max: bound(100)},
		countRule("ltvCacRatio", "LTV/CAC ratio", false),
	},
	model.PagePeople: {
		{Field: "founderCount", Label: "Number of founders", Required: true, Numeric: true, Min: bound(1), Max: bound(20), Message: "Tell us how many founders the company has"},
		{Field: "teamSize", Label: "Full-time team size", Required: true, Numeric: true, Min: bound(1)},
		{Field: "techTeamSize", Label: "Technical team size", Numeric: true, Min: bound(0), Custom: techTeamWithinTeam},
		{Field: "avgExperience", Label: "Average experience", Numeric: true, Min: bound(0), Max: bound(60)},
		{Field: "domainExpertise", Label: "Domain expertise", Numeric: true, Min: bound(0), Max: bound(60)},
		countRule("priorStartups", "Prior startups", false),
		countRule("priorExits", "Prior exits", false),
		scaleRule("boardExperience", "Board experience"),
		countRule("advisorsCount", "Advisors", false),
		percentRule("diversityPercent", "Team diversity"),
	},
}

// Rules returns the rule table of a page. The slice must not be modified.
func Rules(page model.Page) []Rule {
	return rules[page]
}

func companyNameLength(v any, _ model.Group) string {
	s, ok := v.(string)
	if !ok {
		return "Company name must be text"
	}
	n := utf8.RuneCountInString(strings.TrimSpace(s))
	if n < 2 || n > 100 {
		return "Company name must be between 2 and 100 characters"
	}
	return ""
}

func techTeamWithinTeam(v any, g model.Group) string {
	tech, ok := toFloat(v)
	if !ok {
		return ""
	}
	team, ok := toFloat(g["teamSize"])
	if !ok {
		return ""
	}
	if tech > team {
		return "Technical team size cannot exceed total team size"
	}
	return ""
}

func retentionDecay(v any, g model.Group) string {
	d90, ok := toFloat(v)
	if !ok {
		return ""
	}
	d30, ok := toFloat(g["retention30d"])
	if !ok {
		return ""
	}
	if d90 > d30 {
		return "90-day retention cannot exceed 30-day retention"
	}
	return ""
}
