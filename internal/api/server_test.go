package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/flash-cli/internal/assessment"
	"github.com/sells-group/flash-cli/internal/config"
	"github.com/sells-group/flash-cli/internal/model"
	"github.com/sells-group/flash-cli/internal/predict"
	"github.com/sells-group/flash-cli/internal/resilience"
	"github.com/sells-group/flash-cli/internal/store"
	"github.com/sells-group/flash-cli/pkg/flash"
)

type testEnv struct {
	server  http.Handler
	store   *store.SQLiteStore
	backend *httptest.Server
	status  *atomic.Int32
	calls   *atomic.Int32
}

func newTestEnv(t *testing.T, fallback bool) *testEnv {
	t.Helper()

	status := &atomic.Int32{}
	status.Store(http.StatusOK)
	calls := &atomic.Int32{}

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(int(status.Load()))
			return
		}
		calls.Add(1)
		if code := int(status.Load()); code != http.StatusOK {
			w.WriteHeader(code)
			return
		}
		_, _ = w.Write([]byte(`{"success_probability":0.77,"camp_scores":{"capital":0.7,"advantage":0.8,"market":0.75,"people":0.8},"verdict":"PASS","confidence":"high","risk_level":"low"}`))
	}))
	t.Cleanup(backend.Close)

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })

	policy := resilience.NewPolicy("test",
		resilience.RetryConfig{MaxAttempts: 2, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond},
		resilience.CircuitBreakerConfig{FailureThreshold: 10, ResetTimeout: time.Minute},
	)
	svc := predict.NewService(flash.NewClient(flash.WithBaseURL(backend.URL)),
		predict.WithPolicy(policy),
		predict.WithStore(st),
		predict.WithFallback(fallback),
	)

	srv := NewServer(config.ServerConfig{AllowedOrigins: []string{"http://localhost:3000"}}, svc, st)
	return &testEnv{server: srv.Router(), store: st, backend: backend, status: status, calls: calls}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	case []byte:
		buf.Write(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

func validBody(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "valid.json"))
	require.NoError(t, err)
	return data
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = env.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	env.status.Store(http.StatusServiceUnavailable)
	rec = env.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestValidate(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(t, http.MethodPost, "/api/v1/assessments/validate", validBody(t))
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[validateResponse](t, rec)
	assert.True(t, resp.Valid)
	assert.NotNil(t, resp.Errors)
	assert.Empty(t, resp.Errors)
	assert.Equal(t, 100.0, resp.Progress.Percent)

	rec = env.do(t, http.MethodPost, "/api/v1/assessments/validate", map[string]any{
		"people": map[string]any{"teamSize": 5, "techTeamSize": 8},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decode[validateResponse](t, rec)
	assert.False(t, resp.Valid)
	e, ok := resp.Errors.ForField(model.PagePeople, "techTeamSize")
	require.True(t, ok)
	assert.Contains(t, e.Message, "cannot exceed total team size")

	rec = env.do(t, http.MethodPost, "/api/v1/assessments/validate", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransform(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(t, http.MethodPost, "/api/v1/assessments/transform", map[string]any{
		"companyInfo": map[string]any{"sector": "nonexistent_sector"},
		"capital":     map[string]any{"cashOnHand": 300000, "monthlyBurn": 25000, "hasDebt": true},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[transformResponse](t, rec)

	assert.Len(t, resp.Features, assessment.FeatureCount)
	assert.Equal(t, 1.0, resp.Features["has_debt"])
	assert.Equal(t, 12.0, resp.Features["runway_months"])
	assert.Equal(t, "other", resp.Features["sector"])
	assert.Contains(t, resp.Defaulted, "sector")
	assert.Equal(t, "nonexistent_sector", resp.Unmapped["sector"])
}

func TestPredict(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(t, http.MethodPost, "/api/v1/assessments/predict", validBody(t))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[predict.Result](t, rec)
	assert.Equal(t, "PASS", res.Prediction.Verdict)
	assert.False(t, res.Degraded)
	assert.Len(t, res.Features, assessment.FeatureCount)

	rec = env.do(t, http.MethodGet, "/api/v1/submissions/"+res.SubmissionID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sub := decode[model.Submission](t, rec)
	assert.Equal(t, "Acme Robotics", sub.Company)

	rec = env.do(t, http.MethodGet, "/api/v1/submissions/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPredict_Invalid(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(t, http.MethodPost, "/api/v1/assessments/predict", map[string]any{})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decode[errorResponse](t, rec)
	assert.Equal(t, "validation_failed", resp.Error.Code)
	assert.NotEmpty(t, resp.Errors)
	assert.Zero(t, env.calls.Load())
}

func TestPredict_DegradedAndFailed(t *testing.T) {
	env := newTestEnv(t, true)
	env.status.Store(http.StatusBadGateway)

	rec := env.do(t, http.MethodPost, "/api/v1/assessments/predict", validBody(t))
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[predict.Result](t, rec)
	assert.True(t, res.Degraded)
	assert.Equal(t, predict.MockPrediction().Verdict, res.Prediction.Verdict)

	rec = env.do(t, http.MethodGet, "/api/v1/submissions?degraded=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":1`)

	strict := newTestEnv(t, false)
	strict.status.Store(http.StatusBadGateway)
	rec = strict.do(t, http.MethodPost, "/api/v1/assessments/predict", validBody(t))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "prediction_failed")
}

func TestDraftFlow(t *testing.T) {
	env := newTestEnv(t, true)

	var full model.AssessmentRecord
	require.NoError(t, json.Unmarshal(validBody(t), &full))

	rec := env.do(t, http.MethodPost, "/api/v1/drafts", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[draftResponse](t, rec)
	id := created.Draft.ID
	require.NotEmpty(t, id)
	assert.Equal(t, 0, created.Draft.CurrentStep)

	// An invalid page does not advance.
	rec = env.do(t, http.MethodPut, "/api/v1/drafts/"+id+"/pages/people", map[string]any{"teamSize": 5, "techTeamSize": 8})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[draftResponse](t, rec)
	assert.False(t, resp.Valid)
	assert.Equal(t, 0, resp.Draft.CurrentStep)

	// Submitting an incomplete draft is rejected.
	rec = env.do(t, http.MethodPost, "/api/v1/drafts/"+id+"/submit", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	for i, p := range model.Pages {
		rec = env.do(t, http.MethodPut, "/api/v1/drafts/"+id+"/pages/"+string(p), full.Group(p))
		require.Equal(t, http.StatusOK, rec.Code)
		resp = decode[draftResponse](t, rec)
		assert.True(t, resp.Valid, "%s: %v", p, resp.Errors)
		assert.Equal(t, i+1, resp.Draft.CurrentStep)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/drafts/"+id+"/progress", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	progress := decode[assessment.Progress](t, rec)
	assert.Equal(t, 100.0, progress.Percent)

	rec = env.do(t, http.MethodPost, "/api/v1/drafts/"+id+"/submit", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[predict.Result](t, rec)
	assert.Equal(t, "PASS", res.Prediction.Verdict)

	rec = env.do(t, http.MethodGet, "/api/v1/submissions?draft_id="+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":1`)

	rec = env.do(t, http.MethodPost, "/api/v1/drafts/"+id+"/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decode[draftResponse](t, rec)
	assert.Equal(t, 0, resp.Draft.CurrentStep)
	assert.False(t, resp.Valid)

	rec = env.do(t, http.MethodGet, "/api/v1/drafts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":1`)

	rec = env.do(t, http.MethodDelete, "/api/v1/drafts/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/drafts/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.do(t, http.MethodDelete, "/api/v1/drafts/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/v1/drafts/"+id+"/submit", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateDraft_Seeded(t *testing.T) {
	env := newTestEnv(t, true)

	var full model.AssessmentRecord
	require.NoError(t, json.Unmarshal(validBody(t), &full))

	rec := env.do(t, http.MethodPost, "/api/v1/drafts", model.AssessmentRecord{
		CompanyInfo: full.CompanyInfo,
		Capital:     full.Capital,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decode[draftResponse](t, rec)
	assert.True(t, resp.Valid)
	assert.Equal(t, 2, resp.Draft.CurrentStep)
	assert.Len(t, resp.Draft.CompletedPages, 2)
}

func TestApplyPage_UnknownPage(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(t, http.MethodPut, "/api/v1/drafts/x/pages/review", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown_page")

	rec = env.do(t, http.MethodPut, "/api/v1/drafts/missing/pages/capital", map[string]any{})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t, true)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/assessments/validate", strings.NewReader(""))
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
