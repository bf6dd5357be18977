package predict

import "github.com/sells-group/flash-cli/internal/model"

// MockPrediction returns the static result shown when the backend cannot be
// reached. Each call returns a fresh copy.
func MockPrediction() *model.Prediction {
	return &model.Prediction{
		SuccessProbability: 0.65,
		CampScores: map[string]float64{
			string(model.PillarCapital):   0.62,
			string(model.PillarAdvantage): 0.70,
			string(model.PillarMarket):    0.66,
			string(model.PillarPeople):    0.63,
		},
		Verdict:    "CONDITIONAL PASS",
		Confidence: "low",
		RiskLevel:  "medium",
		Insights: []string{
			"Prediction service unavailable; showing an illustrative result.",
			"Resubmit once the service is reachable for a real assessment.",
		},
	}
}
