// Package predict runs an assessment through validation, transformation and
// scoring, falling back to a static result when the backend is unavailable.
package predict

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/flash-cli/internal/assessment"
	"github.com/sells-group/flash-cli/internal/model"
	"github.com/sells-group/flash-cli/internal/resilience"
	"github.com/sells-group/flash-cli/internal/store"
	"github.com/sells-group/flash-cli/pkg/flash"
)

// InvalidError is returned by Submit when the record fails validation. No
// backend call is made.
type InvalidError struct {
	Errors model.ValidationErrors
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("predict: assessment has %d validation errors: %s", len(e.Errors), e.Errors.Error())
}

// Result is the outcome of one submission.
type Result struct {
	SubmissionID string              `json:"submission_id"`
	Features     model.FeatureVector `json:"features"`
	Defaulted    []string            `json:"defaulted,omitempty"`
	Prediction   *model.Prediction   `json:"prediction"`
	Degraded     bool                `json:"degraded"`
}

// Service submits assessments to the prediction backend.
type Service struct {
	client      flash.Client
	policy      *resilience.Policy
	store       store.Store
	transformer *assessment.Transformer
	fallback    bool
	now         func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithPolicy routes backend calls through p.
func WithPolicy(p *resilience.Policy) Option {
	return func(s *Service) { s.policy = p }
}

// WithStore records every submission in st.
func WithStore(st store.Store) Option {
	return func(s *Service) { s.store = st }
}

// WithTransformer overrides the default transformer.
func WithTransformer(t *assessment.Transformer) Option {
	return func(s *Service) { s.transformer = t }
}

// WithFallback enables substituting MockPrediction when scoring fails.
func WithFallback(enabled bool) Option {
	return func(s *Service) { s.fallback = enabled }
}

// NewService creates a Service around client.
func NewService(client flash.Client, opts ...Option) *Service {
	s := &Service{
		client: client,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(s)
	}
	if s.transformer == nil {
		s.transformer = assessment.NewTransformer(nil)
	}
	return s
}

// Transformer returns the transformer used for submissions.
func (s *Service) Transformer() *assessment.Transformer {
	return s.transformer
}

// Breaker returns the circuit breaker guarding backend calls, or nil.
func (s *Service) Breaker() *resilience.CircuitBreaker {
	if s.policy == nil {
		return nil
	}
	return s.policy.Breaker
}

// Health checks the prediction backend.
func (s *Service) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}

// Submit validates rec, scores its feature vector and records the attempt.
func (s *Service) Submit(ctx context.Context, rec model.AssessmentRecord, draftID string) (*Result, error) {
	if errs := assessment.Validate(rec); !errs.Valid() {
		return nil, &InvalidError{Errors: errs}
	}

	features, rep := s.transformer.TransformWithReport(rec)
	if err := features.CheckShape(assessment.Schema); err != nil {
		return nil, eris.Wrap(err, "predict: feature vector")
	}

	log := zap.L().With(zap.String("company", rec.CompanyName()), zap.String("draft_id", draftID))
	if len(rep.Unmapped) > 0 {
		log.Debug("unmapped enum answers", zap.Any("unmapped", rep.Unmapped))
	}

	sub := model.Submission{
		DraftID:   draftID,
		Company:   rec.CompanyName(),
		Features:  features,
		CreatedAt: s.now(),
	}

	resp, err := resilience.Call(ctx, s.policy, func(ctx context.Context) (*flash.PredictResponse, error) {
		return s.client.Predict(ctx, features)
	})
	switch {
	case err == nil:
		sub.Prediction = fromResponse(resp)
	case s.fallback:
		log.Warn("prediction failed, using fallback result",
			zap.String("error_type", resilience.Classify(err)),
			zap.Error(err),
		)
		sub.Prediction = MockPrediction()
		sub.Degraded = true
		sub.Error = err.Error()
	default:
		sub.Error = err.Error()
		s.persist(ctx, &sub)
		return nil, eris.Wrap(err, "predict: score assessment")
	}

	s.persist(ctx, &sub)
	log.Info("assessment scored",
		zap.Float64("success_probability", sub.Prediction.SuccessProbability),
		zap.String("verdict", sub.Prediction.Verdict),
		zap.Bool("degraded", sub.Degraded),
	)

	return &Result{
		SubmissionID: sub.ID,
		Features:     features,
		Defaulted:    rep.Defaulted,
		Prediction:   sub.Prediction,
		Degraded:     sub.Degraded,
	}, nil
}

// SubmitDraft submits the stored draft with the given ID.
func (s *Service) SubmitDraft(ctx context.Context, id string) (*Result, error) {
	if s.store == nil {
		return nil, eris.New("predict: no store configured")
	}
	d, err := s.store.GetDraft(ctx, id)
	if err != nil {
		return nil, eris.Wrap(err, "predict: load draft")
	}
	if d == nil {
		return nil, eris.Wrapf(store.ErrNotFound, "draft %s", id)
	}
	return s.Submit(ctx, d.Record, d.ID)
}

// persist records sub when a store is configured. Failures are logged only.
func (s *Service) persist(ctx context.Context, sub *model.Submission) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveSubmission(ctx, sub); err != nil {
		zap.L().Error("failed to save submission",
			zap.String("company", sub.Company),
			zap.Error(err),
		)
	}
}

func fromResponse(r *flash.PredictResponse) *model.Prediction {
	return &model.Prediction{
		SuccessProbability: r.SuccessProbability,
		CampScores:         r.CampScores,
		Verdict:            r.Verdict,
		Confidence:         r.Confidence,
		RiskLevel:          r.RiskLevel,
		Insights:           r.Insights,
	}
}
