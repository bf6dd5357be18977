package assessment

import "github.com/sells-group/flash-cli/internal/model"

// validRecord returns a record that passes every page rule.
func validRecord() model.AssessmentRecord {
	return model.AssessmentRecord{
		CompanyInfo: model.Group{
			"companyName":  "Acme Robotics",
			"website":      "https://acme.example.com",
			"foundedYear":  2021.0,
			"sector":       "AI/ML",
			"productStage": "Beta",
			"fundingStage": "Seed",
		},
		Capital: model.Group{
			"totalRaised":    500000.0,
			"cashOnHand":     300000.0,
			"monthlyBurn":    25000.0,
			"monthlyRevenue": 10000.0,
			"investorTier":   "Tier 2",
			"hasDebt":        true,
		},
		Advantage: model.Group{
			"patentCount":         2.0,
			"networkEffects":      true,
			"dataMoat":            false,
			"regulatoryAdvantage": "no",
			"techDifferentiation": 4.0,
			"switchingCost":       3.0,
			"brandStrength":       2.0,
			"scalability":         5.0,
		},
		Market: model.Group{
			"tam":                   1000000000.0,
			"marketGrowthRate":      25.0,
			"customerCount":         40.0,
			"customerConcentration": 30.0,
			"userGrowthRate":        15.0,
			"netDollarRetention":    110.0,
			"competitionIntensity":  4.0,
			"competitorCount":       6.0,
			"retention30d":          60.0,
			"retention90d":          45.0,
			"dauMau":                20.0,
			"revenueGrowthRate":     12.0,
			"grossMargin":           70.0,
			"ltvCacRatio":           3.2,
		},
		People: model.Group{
			"founderCount":        2.0,
			"teamSize":            8.0,
			"techTeamSize":        5.0,
			"avgExperience":       10.0,
			"domainExpertise":     6.0,
			"priorStartups":       1.0,
			"priorExits":          0.0,
			"boardExperience":     3.0,
			"advisorsCount":       2.0,
			"diversityPercent":    40.0,
			"keyPersonDependency": true,
		},
	}
}
