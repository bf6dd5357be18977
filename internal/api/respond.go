package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/flash-cli/internal/model"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error  apiError               `json:"error"`
	Errors model.ValidationErrors `json:"errors,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Error("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: apiError{Code: code, Message: message}})
}

func respondInvalid(w http.ResponseWriter, errs model.ValidationErrors) {
	respondJSON(w, http.StatusUnprocessableEntity, errorResponse{
		Error:  apiError{Code: "validation_failed", Message: "assessment has validation errors"},
		Errors: errs,
	})
}

// decodeBody decodes a JSON request body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return eris.Wrap(err, "api: decode body")
	}
	return nil
}

// pagination reads limit and offset query parameters. Invalid values are
// ignored.
func pagination(r *http.Request) (limit, offset int) {
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}

// nonNil keeps empty validation lists encoding as [] rather than null.
func nonNil(errs model.ValidationErrors) model.ValidationErrors {
	if errs == nil {
		return model.ValidationErrors{}
	}
	return errs
}
