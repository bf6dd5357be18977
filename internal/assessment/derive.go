package assessment

import (
	"math"

	"github.com/sells-group/flash-cli/internal/model"
)

// Derived-field constants.
const (
	// SAMShareOfTAM is the serviceable share of the total market.
	SAMShareOfTAM = 0.10
	// SOMShareOfSAM is the obtainable share of the serviceable market.
	SOMShareOfSAM = 0.01
	// MaxRunwayMonths is reported when a company holds cash but does not burn.
	MaxRunwayMonths = 120.0
	// MaxBurnMultiple is reported when a company burns cash with no revenue.
	MaxBurnMultiple = 10.0
)

// RunwayMonths returns whole months of runway. A non-positive burn yields
// MaxRunwayMonths when there is cash, else 0; the result is never NaN or Inf.
func RunwayMonths(cashOnHand, monthlyBurn float64) float64 {
	if monthlyBurn <= 0 {
		if cashOnHand > 0 {
			return MaxRunwayMonths
		}
		return 0
	}
	if cashOnHand <= 0 {
		return 0
	}
	return math.Floor(cashOnHand / monthlyBurn)
}

// BurnMultiple returns monthly burn over monthly revenue, rounded to two
// decimals. With no revenue it is MaxBurnMultiple when burning, else 0.
func BurnMultiple(monthlyBurn, monthlyRevenue float64) float64 {
	if monthlyRevenue <= 0 {
		if monthlyBurn > 0 {
			return MaxBurnMultiple
		}
		return 0
	}
	if monthlyBurn <= 0 {
		return 0
	}
	return round2(monthlyBurn / monthlyRevenue)
}

// SAM returns the serviceable addressable market for a TAM.
func SAM(tam float64) float64 {
	return math.Round(tam * SAMShareOfTAM)
}

// SOM returns the serviceable obtainable market for a SAM.
func SOM(sam float64) float64 {
	return math.Round(sam * SOMShareOfSAM)
}

// AnnualRunRate annualizes monthly revenue.
func AnnualRunRate(monthlyRevenue float64) float64 {
	return monthlyRevenue * 12
}

// derive writes every derived feature into v from the record's answers.
// It runs after the direct features so it always overwrites.
func derive(v model.FeatureVector, rec model.AssessmentRecord) {
	cash, _ := toFloat(rec.Capital["cashOnHand"])
	burn, _ := toFloat(rec.Capital["monthlyBurn"])
	revenue, _ := toFloat(rec.Capital["monthlyRevenue"])
	tam, _ := toFloat(rec.Market["tam"])

	sam := SAM(tam)

	v["runway_months"] = RunwayMonths(cash, burn)
	v["burn_multiple"] = BurnMultiple(burn, revenue)
	v["sam_size_usd"] = sam
	v["som_size_usd"] = SOM(sam)
	v["annual_revenue_run_rate"] = AnnualRunRate(revenue)
}
