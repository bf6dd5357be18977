package resilience

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Policy combines retries with a circuit breaker. Each attempt passes
// through the breaker, so an opening circuit stops further retries.
type Policy struct {
	Retry   RetryConfig
	Breaker *CircuitBreaker
}

// NewPolicy builds a Policy that retries and trips only on transient errors
// and logs under name.
func NewPolicy(name string, retry RetryConfig, breaker CircuitBreakerConfig) *Policy {
	if breaker.OnStateChange == nil {
		breaker.OnStateChange = func(from, to CircuitState) {
			zap.L().Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		}
	}
	if breaker.ShouldTrip == nil {
		breaker.ShouldTrip = IsTransient
	}
	if retry.OnRetry == nil {
		retry.OnRetry = RetryLogger(name)
	}
	if retry.ShouldRetry == nil {
		retry.ShouldRetry = func(err error) bool {
			return !errors.Is(err, ErrCircuitOpen) && IsTransient(err)
		}
	}
	return &Policy{Retry: retry, Breaker: NewCircuitBreaker(breaker)}
}

// Call runs fn under p. A nil policy calls fn once.
func Call[T any](ctx context.Context, p *Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	if p == nil {
		return fn(ctx)
	}
	return DoVal(ctx, p.Retry, func(ctx context.Context) (T, error) {
		if p.Breaker == nil {
			return fn(ctx)
		}
		return ExecuteVal(ctx, p.Breaker, fn)
	})
}
