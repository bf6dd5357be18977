package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/flash-cli/internal/resilience"
	"github.com/sells-group/flash-cli/internal/store"
)

// collectPageSize bounds each ListSubmissions call while walking the window.
const collectPageSize = 500

// MetricsSnapshot holds a point-in-time view of prediction health.
type MetricsSnapshot struct {
	// Submissions within the lookback window.
	SubmissionTotal int     `json:"submission_total"`
	Scored          int     `json:"scored"`
	Degraded        int     `json:"degraded"`
	Failed          int     `json:"failed"`
	DegradedRate    float64 `json:"degraded_rate"`
	AvgProbability  float64 `json:"avg_probability"`

	// Verdicts of backend-scored submissions.
	Verdicts map[string]int `json:"verdicts"`

	// Breaker state when a breaker is attached.
	CircuitState string `json:"circuit_state,omitempty"`

	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// Collector gathers metrics from the submission store.
type Collector struct {
	store   store.Store
	breaker *resilience.CircuitBreaker
	now     func() time.Time
}

// NewCollector creates a metrics collector. breaker may be nil.
func NewCollector(st store.Store, breaker *resilience.CircuitBreaker) *Collector {
	return &Collector{
		store:   st,
		breaker: breaker,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Collect summarizes submissions created within the last lookbackHours.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*MetricsSnapshot, error) {
	now := c.now()
	snap := &MetricsSnapshot{
		Verdicts:      map[string]int{},
		LookbackHours: lookbackHours,
		CollectedAt:   now,
	}
	cutoff := now.Add(-time.Duration(lookbackHours) * time.Hour)

	var totalProb float64
	// Keyset paging: rows inserted while walking are newer than the first
	// page and never shift later pages.
	var before *store.SubmissionCursor
	for {
		subs, err := c.store.ListSubmissions(ctx, store.SubmissionFilter{
			CreatedAfter: cutoff,
			Before:       before,
			Limit:        collectPageSize,
		})
		if err != nil {
			return nil, eris.Wrap(err, "monitoring: list submissions")
		}

		for _, sub := range subs {
			snap.SubmissionTotal++
			switch {
			case sub.Prediction == nil:
				snap.Failed++
			case sub.Degraded:
				snap.Degraded++
			default:
				snap.Scored++
				totalProb += sub.Prediction.SuccessProbability
				snap.Verdicts[sub.Prediction.Verdict]++
			}
		}
		if len(subs) < collectPageSize {
			break
		}
		before = store.CursorOf(subs[len(subs)-1])
	}

	if snap.SubmissionTotal > 0 {
		snap.DegradedRate = float64(snap.Degraded+snap.Failed) / float64(snap.SubmissionTotal)
	}
	if snap.Scored > 0 {
		snap.AvgProbability = totalProb / float64(snap.Scored)
	}
	if c.breaker != nil {
		snap.CircuitState = c.breaker.State().String()
	}
	return snap, nil
}
