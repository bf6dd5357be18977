package model

import "time"

// Draft is the persisted wizard state for one assessment in progress.
type Draft struct {
	ID             string           `json:"id"`
	Record         AssessmentRecord `json:"record"`
	CurrentStep    int              `json:"current_step"`
	CompletedPages []Page           `json:"completed_pages,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// Completed reports whether the page has passed validation at least once.
func (d Draft) Completed(p Page) bool {
	for _, c := range d.CompletedPages {
		if c == p {
			return true
		}
	}
	return false
}

// Prediction is the scoring result returned for a submitted feature vector.
type Prediction struct {
	SuccessProbability float64            `json:"success_probability"`
	CampScores         map[string]float64 `json:"camp_scores"`
	Verdict            string             `json:"verdict"`
	Confidence         string             `json:"confidence,omitempty"`
	RiskLevel          string             `json:"risk_level,omitempty"`
	Insights           []string           `json:"insights,omitempty"`
}

// Submission records one prediction attempt.
type Submission struct {
	ID         string        `json:"id"`
	DraftID    string        `json:"draft_id,omitempty"`
	Company    string        `json:"company,omitempty"`
	Features   FeatureVector `json:"features"`
	Prediction *Prediction   `json:"prediction,omitempty"`
	Degraded   bool          `json:"degraded"`
	Error      string        `json:"error,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}
