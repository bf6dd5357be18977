package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCall_RetriesThroughBreaker(t *testing.T) {
	t.Parallel()

	p := NewPolicy("flash", fastRetry(3), CircuitBreakerConfig{FailureThreshold: 10, ResetTimeout: time.Minute})

	calls := 0
	v, err := Call(context.Background(), p, func(context.Context) (string, error) {
		calls++
		if calls < 2 {
			return "", NewTransientError(errors.New("busy"), 503)
		}
		return "scored", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "scored", v)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 0, p.Breaker.Failures())
}

func TestCall_OpenCircuitStopsRetries(t *testing.T) {
	t.Parallel()

	p := NewPolicy("flash", fastRetry(5), CircuitBreakerConfig{FailureThreshold: 2, ResetTimeout: time.Minute})

	calls := 0
	_, err := Call(context.Background(), p, func(context.Context) (int, error) {
		calls++
		return 0, NewTransientError(errors.New("down"), 502)
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 2, calls)
	assert.Equal(t, CircuitOpen, p.Breaker.State())
}

func TestCall_PermanentErrorNotRetried(t *testing.T) {
	t.Parallel()

	p := NewPolicy("flash", fastRetry(3), DefaultCircuitBreakerConfig())
	calls := 0
	_, err := Call(context.Background(), p, func(context.Context) (int, error) {
		calls++
		return 0, errors.New("422 missing field")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, p.Breaker.Failures())
}

func TestCall_NilPolicy(t *testing.T) {
	t.Parallel()

	v, err := Call(context.Background(), nil, func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}
