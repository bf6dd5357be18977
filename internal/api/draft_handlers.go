package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/flash-cli/internal/assessment"
	"github.com/sells-group/flash-cli/internal/model"
	"github.com/sells-group/flash-cli/internal/store"
)

type draftResponse struct {
	Draft    model.Draft            `json:"draft"`
	Valid    bool                   `json:"valid"`
	Errors   model.ValidationErrors `json:"errors"`
	Progress assessment.Progress    `json:"progress"`
}

func newDraftResponse(d model.Draft, errs model.ValidationErrors) draftResponse {
	return draftResponse{
		Draft:    d,
		Valid:    errs.Valid(),
		Errors:   nonNil(errs),
		Progress: assessment.ComputeProgress(d.Record),
	}
}

// loadDraft fetches the draft named in the URL, writing the error response
// itself when it returns nil.
func (s *Server) loadDraft(w http.ResponseWriter, r *http.Request) *model.Draft {
	id := chi.URLParam(r, "id")
	d, err := s.store.GetDraft(r.Context(), id)
	if err != nil {
		zap.L().Error("failed to get draft", zap.String("id", id), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to get draft")
		return nil
	}
	if d == nil {
		respondError(w, http.StatusNotFound, "not_found", "draft not found")
		return nil
	}
	return d
}

func (s *Server) saveDraft(w http.ResponseWriter, r *http.Request, d *model.Draft) bool {
	if err := s.store.SaveDraft(r.Context(), d); err != nil {
		zap.L().Error("failed to save draft", zap.String("id", d.ID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to save draft")
		return false
	}
	return true
}

// handleCreateDraft starts a new draft. An optional body seeds the record;
// each seeded page is applied and validated like a page submit.
func (s *Server) handleCreateDraft(w http.ResponseWriter, r *http.Request) {
	var seed model.AssessmentRecord
	if err := decodeBody(w, r, &seed); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	now := s.now()
	d := assessment.NewDraft(uuid.New().String(), now)
	var errs model.ValidationErrors
	for _, p := range model.Pages {
		if g := seed.Group(p); len(g) > 0 {
			var pageErrs model.ValidationErrors
			d, pageErrs = assessment.ApplyPage(d, p, g, now)
			errs = append(errs, pageErrs...)
		}
	}

	if !s.saveDraft(w, r, &d) {
		return
	}
	respondJSON(w, http.StatusCreated, newDraftResponse(d, errs))
}

func (s *Server) handleListDrafts(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	drafts, err := s.store.ListDrafts(r.Context(), store.DraftFilter{Limit: limit, Offset: offset})
	if err != nil {
		zap.L().Error("failed to list drafts", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list drafts")
		return
	}
	if drafts == nil {
		drafts = []model.Draft{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"drafts": drafts,
		"total":  len(drafts),
	})
}

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	d := s.loadDraft(w, r)
	if d == nil {
		return
	}
	respondJSON(w, http.StatusOK, newDraftResponse(*d, assessment.Validate(d.Record)))
}

func (s *Server) handleDeleteDraft(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.DeleteDraft(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "draft not found")
			return
		}
		zap.L().Error("failed to delete draft", zap.String("id", id), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to delete draft")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleApplyPage saves one wizard page. Validation errors are returned
// with a 200 because they are shown to the user, not treated as failures.
func (s *Server) handleApplyPage(w http.ResponseWriter, r *http.Request) {
	page, ok := model.ParsePage(chi.URLParam(r, "page"))
	if !ok {
		respondError(w, http.StatusBadRequest, "unknown_page", "unknown page "+chi.URLParam(r, "page"))
		return
	}

	var values map[string]any
	if err := decodeBody(w, r, &values); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	d := s.loadDraft(w, r)
	if d == nil {
		return
	}

	out, errs := assessment.ApplyPage(*d, page, values, s.now())
	if !s.saveDraft(w, r, &out) {
		return
	}
	respondJSON(w, http.StatusOK, newDraftResponse(out, errs))
}

func (s *Server) handleResetDraft(w http.ResponseWriter, r *http.Request) {
	d := s.loadDraft(w, r)
	if d == nil {
		return
	}
	out := assessment.ResetDraft(*d, s.now())
	if !s.saveDraft(w, r, &out) {
		return
	}
	respondJSON(w, http.StatusOK, newDraftResponse(out, assessment.Validate(out.Record)))
}

func (s *Server) handleDraftProgress(w http.ResponseWriter, r *http.Request) {
	d := s.loadDraft(w, r)
	if d == nil {
		return
	}
	respondJSON(w, http.StatusOK, assessment.ComputeProgress(d.Record))
}

func (s *Server) handleSubmitDraft(w http.ResponseWriter, r *http.Request) {
	res, err := s.service.SubmitDraft(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondSubmitError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}
