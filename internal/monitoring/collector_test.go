package monitoring

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/flash-cli/internal/model"
	"github.com/sells-group/flash-cli/internal/resilience"
	"github.com/sells-group/flash-cli/internal/store"
)

// mockStore implements store.Store for testing.
type mockStore struct {
	subs    []model.Submission
	listErr error
	calls   int

	// afterList runs after each listing, e.g. to insert rows between pages.
	afterList func(m *mockStore)
}

func (m *mockStore) ListSubmissions(_ context.Context, filter store.SubmissionFilter) ([]model.Submission, error) {
	m.calls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	if m.afterList != nil {
		defer m.afterList(m)
	}

	sorted := slices.Clone(m.subs)
	slices.SortStableFunc(sorted, func(a, b model.Submission) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})

	var filtered []model.Submission
	for _, s := range sorted {
		if !filter.CreatedAfter.IsZero() && s.CreatedAt.Before(filter.CreatedAfter) {
			continue
		}
		if c := filter.Before; c != nil {
			if s.CreatedAt.After(c.CreatedAt) || (s.CreatedAt.Equal(c.CreatedAt) && s.ID >= c.ID) {
				continue
			}
		}
		filtered = append(filtered, s)
	}
	if filter.Offset >= len(filtered) {
		return nil, nil
	}
	filtered = filtered[filter.Offset:]
	if filter.Limit > 0 && len(filtered) > filter.Limit {
		filtered = filtered[:filter.Limit]
	}
	return filtered, nil
}

// Unused store methods satisfy the interface.
func (m *mockStore) SaveDraft(context.Context, *model.Draft) error {
	return nil
}

func (m *mockStore) GetDraft(context.Context, string) (*model.Draft, error) {
	return nil, nil
}

func (m *mockStore) DeleteDraft(context.Context, string) error {
	return nil
}

func (m *mockStore) ListDrafts(context.Context, store.DraftFilter) ([]model.Draft, error) {
	return nil, nil
}

func (m *mockStore) SaveSubmission(context.Context, *model.Submission) error {
	return nil
}

func (m *mockStore) SaveSubmissions(context.Context, []model.Submission) (int64, error) {
	return 0, nil
}

func (m *mockStore) GetSubmission(context.Context, string) (*model.Submission, error) {
	return nil, nil
}

func (m *mockStore) Migrate(context.Context) error {
	return nil
}

func (m *mockStore) Close() error {
	return nil
}

var collectNow = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func scored(verdict string, prob float64, age time.Duration) model.Submission {
	return model.Submission{
		Prediction: &model.Prediction{SuccessProbability: prob, Verdict: verdict},
		CreatedAt:  collectNow.Add(-age),
	}
}

func degraded(age time.Duration) model.Submission {
	return model.Submission{
		Prediction: &model.Prediction{SuccessProbability: 0.65, Verdict: "CONDITIONAL PASS"},
		Degraded:   true,
		Error:      "flash: unexpected status 503",
		CreatedAt:  collectNow.Add(-age),
	}
}

func failed(age time.Duration) model.Submission {
	return model.Submission{Error: "flash: unexpected status 422", CreatedAt: collectNow.Add(-age)}
}

func newTestCollector(st store.Store, cb *resilience.CircuitBreaker) *Collector {
	c := NewCollector(st, cb)
	c.now = func() time.Time { return collectNow }
	return c
}

func TestCollector_Collect(t *testing.T) {
	st := &mockStore{subs: []model.Submission{
		scored("PASS", 0.8, time.Hour),
		scored("PASS", 0.6, 2*time.Hour),
		scored("FAIL", 0.1, 3*time.Hour),
		degraded(4 * time.Hour),
		failed(5 * time.Hour),
		scored("PASS", 0.9, 48*time.Hour), // outside window
	}}

	snap, err := newTestCollector(st, nil).Collect(context.Background(), 24)
	require.NoError(t, err)

	assert.Equal(t, 5, snap.SubmissionTotal)
	assert.Equal(t, 3, snap.Scored)
	assert.Equal(t, 1, snap.Degraded)
	assert.Equal(t, 1, snap.Failed)
	assert.InDelta(t, 0.4, snap.DegradedRate, 1e-9)
	assert.InDelta(t, 0.5, snap.AvgProbability, 1e-9)
	assert.Equal(t, map[string]int{"PASS": 2, "FAIL": 1}, snap.Verdicts)
	assert.Empty(t, snap.CircuitState)
	assert.Equal(t, 24, snap.LookbackHours)
	assert.Equal(t, collectNow, snap.CollectedAt)
}

func TestCollector_Empty(t *testing.T) {
	snap, err := newTestCollector(&mockStore{}, nil).Collect(context.Background(), 24)
	require.NoError(t, err)
	assert.Zero(t, snap.SubmissionTotal)
	assert.Zero(t, snap.DegradedRate)
	assert.Zero(t, snap.AvgProbability)
	assert.NotNil(t, snap.Verdicts)
}

func TestCollector_Pages(t *testing.T) {
	st := &mockStore{}
	for i := range collectPageSize + 10 {
		st.subs = append(st.subs, scored("PASS", 0.5, time.Duration(i)*time.Second))
	}

	snap, err := newTestCollector(st, nil).Collect(context.Background(), 24)
	require.NoError(t, err)
	assert.Equal(t, collectPageSize+10, snap.SubmissionTotal)
	assert.Equal(t, 2, st.calls)
}

func TestCollector_PagesWhileInserting(t *testing.T) {
	st := &mockStore{}
	for i := range collectPageSize + 10 {
		sub := scored("PASS", 0.5, time.Duration(i)*time.Second)
		sub.ID = fmt.Sprintf("s%04d", i)
		st.subs = append(st.subs, sub)
	}
	inserted := 0
	st.afterList = func(m *mockStore) {
		inserted++
		sub := scored("FAIL", 0.1, 0)
		sub.CreatedAt = collectNow.Add(time.Duration(inserted) * time.Millisecond)
		sub.ID = fmt.Sprintf("late%d", inserted)
		m.subs = append(m.subs, sub)
	}

	snap, err := newTestCollector(st, nil).Collect(context.Background(), 24)
	require.NoError(t, err)
	assert.Equal(t, collectPageSize+10, snap.SubmissionTotal, "rows are counted once")
	assert.Equal(t, collectPageSize+10, snap.Verdicts["PASS"])
	assert.Zero(t, snap.Verdicts["FAIL"])
}

func TestCollector_ListError(t *testing.T) {
	st := &mockStore{listErr: errors.New("db down")}
	_, err := newTestCollector(st, nil).Collect(context.Background(), 24)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list submissions")
}

func TestCollector_CircuitState(t *testing.T) {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     time.Hour,
	})
	c := newTestCollector(&mockStore{}, cb)

	snap, err := c.Collect(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "closed", snap.CircuitState)

	_ = cb.Execute(context.Background(), func(context.Context) error { return fmt.Errorf("boom") })
	snap, err = c.Collect(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "open", snap.CircuitState)
}
