package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/assessment-cli/internal/model"
)

// errBadRequest marks malformed requests.
var errBadRequest = eris.New("bad request")

type errorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// statusFor maps domain errors onto HTTP statuses.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, model.ErrSessionNotFound):
		return http.StatusNotFound, "session_not_found"
	case errors.Is(err, model.ErrQuestionNotFound):
		return http.StatusNotFound, "question_not_found"
	case errors.Is(err, model.ErrAnalysisNotFound):
		return http.StatusNotFound, "analysis_not_found"
	case errors.Is(err, model.ErrInvalidSessionState):
		return http.StatusConflict, "invalid_session_state"
	case errors.Is(err, model.ErrInvalidAnswer):
		return http.StatusUnprocessableEntity, "invalid_answer"
	case errors.Is(err, model.ErrNoAnalyzerContribution):
		return http.StatusUnprocessableEntity, "no_analyzer_contribution"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		zap.L().Error("httpapi: request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorBody{
		Error:     msg,
		Code:      code,
		RequestID: middleware.GetReqID(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("httpapi: encode response", zap.Error(err))
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return eris.Wrapf(errBadRequest, "decode body: %v", err)
	}
	return nil
}
