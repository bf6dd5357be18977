package predict

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/flash-cli/internal/assessment"
	"github.com/sells-group/flash-cli/internal/config"
	"github.com/sells-group/flash-cli/internal/resilience"
	"github.com/sells-group/flash-cli/internal/store"
	"github.com/sells-group/flash-cli/pkg/flash"
)

// NewClient builds a prediction client from the flash config section.
func NewClient(cfg config.FlashConfig) flash.Client {
	return flash.NewClient(
		flash.WithBaseURL(cfg.BaseURL),
		flash.WithAPIKey(cfg.APIKey),
		flash.WithTimeout(cfg.Timeout()),
		flash.WithRateLimit(cfg.RateLimit, cfg.Burst),
	)
}

// NewPolicy builds the retry and circuit breaker policy for backend calls.
func NewPolicy(cfg config.ResilienceConfig) *resilience.Policy {
	return resilience.NewPolicy("flash",
		resilience.FromRetryConfig(cfg.MaxAttempts, cfg.InitialBackoffMs, cfg.MaxBackoffMs),
		resilience.FromCircuitConfig(cfg.FailureThreshold, cfg.ResetTimeoutSecs),
	)
}

// NewTransformer loads lookup overrides from cfg.Path when set.
func NewTransformer(cfg config.LookupsConfig) (*assessment.Transformer, error) {
	if cfg.Path == "" {
		return assessment.NewTransformer(nil), nil
	}
	l, err := assessment.LoadLookups(cfg.Path)
	if err != nil {
		return nil, eris.Wrap(err, "predict: load lookups")
	}
	return assessment.NewTransformer(l), nil
}

// FromConfig wires a Service from application config. st may be nil.
func FromConfig(cfg *config.Config, st store.Store) (*Service, error) {
	t, err := NewTransformer(cfg.Lookups)
	if err != nil {
		return nil, err
	}
	opts := []Option{
		WithPolicy(NewPolicy(cfg.Resilience)),
		WithTransformer(t),
		WithFallback(cfg.Prediction.FallbackEnabled),
	}
	if st != nil {
		opts = append(opts, WithStore(st))
	}
	return NewService(NewClient(cfg.Flash), opts...), nil
}
