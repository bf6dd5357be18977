package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/flash-cli/internal/assessment"
	"github.com/sells-group/flash-cli/internal/model"
	"github.com/sells-group/flash-cli/internal/predict"
	"github.com/sells-group/flash-cli/internal/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   s.now().Format(time.RFC3339),
	})
}

// handleReady reports whether the prediction backend answers its health
// check. The wizard stays usable either way because scoring falls back.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Health(r.Context()); err != nil {
		zap.L().Warn("prediction backend not ready", zap.Error(err))
		respondError(w, http.StatusServiceUnavailable, "backend_unavailable", "prediction backend is not reachable")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type validateResponse struct {
	Valid    bool                   `json:"valid"`
	Errors   model.ValidationErrors `json:"errors"`
	Progress assessment.Progress    `json:"progress"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var rec model.AssessmentRecord
	if err := decodeBody(w, r, &rec); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	errs := assessment.Validate(rec)
	respondJSON(w, http.StatusOK, validateResponse{
		Valid:    errs.Valid(),
		Errors:   nonNil(errs),
		Progress: assessment.ComputeProgress(rec),
	})
}

type transformResponse struct {
	Features  model.FeatureVector `json:"features"`
	Defaulted []string            `json:"defaulted"`
	Unmapped  map[string]string   `json:"unmapped,omitempty"`
}

func (s *Server) handleTransform(w http.ResponseWriter, r *http.Request) {
	var rec model.AssessmentRecord
	if err := decodeBody(w, r, &rec); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	features, rep := s.service.Transformer().TransformWithReport(rec)
	defaulted := rep.Defaulted
	if defaulted == nil {
		defaulted = []string{}
	}
	respondJSON(w, http.StatusOK, transformResponse{
		Features:  features,
		Defaulted: defaulted,
		Unmapped:  rep.Unmapped,
	})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var rec model.AssessmentRecord
	if err := decodeBody(w, r, &rec); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	res, err := s.service.Submit(r.Context(), rec, "")
	if err != nil {
		s.respondSubmitError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// respondSubmitError maps a Submit failure onto a status code.
func (s *Server) respondSubmitError(w http.ResponseWriter, err error) {
	var inv *predict.InvalidError
	switch {
	case errors.As(err, &inv):
		respondInvalid(w, inv.Errors)
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", "draft not found")
	default:
		zap.L().Error("prediction failed", zap.Error(err))
		respondError(w, http.StatusBadGateway, "prediction_failed", "prediction service failed")
	}
}

func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	filter := store.SubmissionFilter{
		DraftID: r.URL.Query().Get("draft_id"),
		Limit:   limit,
		Offset:  offset,
	}
	switch r.URL.Query().Get("degraded") {
	case "true":
		v := true
		filter.Degraded = &v
	case "false":
		v := false
		filter.Degraded = &v
	}

	subs, err := s.store.ListSubmissions(r.Context(), filter)
	if err != nil {
		zap.L().Error("failed to list submissions", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list submissions")
		return
	}
	if subs == nil {
		subs = []model.Submission{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"submissions": subs,
		"total":       len(subs),
	})
}

func (s *Server) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sub, err := s.store.GetSubmission(r.Context(), id)
	if err != nil {
		zap.L().Error("failed to get submission", zap.String("id", id), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to get submission")
		return
	}
	if sub == nil {
		respondError(w, http.StatusNotFound, "not_found", "submission not found")
		return
	}
	respondJSON(w, http.StatusOK, sub)
}
