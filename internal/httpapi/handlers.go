package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/assessment-cli/internal/assessment"
	"github.com/sells-group/assessment-cli/internal/model"
	"github.com/sells-group/assessment-cli/internal/store"
)

// GET /health
func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) error {
	if rt.health != nil {
		if err := rt.health.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return nil
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	return nil
}

type createSessionRequest struct {
	CompanyID string         `json:"company_id"`
	UserID    string         `json:"user_id"`
	Type      string         `json:"type"`
	Sector    string         `json:"sector"`
	Goals     []string       `json:"goals"`
	Data      map[string]any `json:"data"`
	// Draft stores the session without starting it.
	Draft bool `json:"draft"`
}

// POST /v1/sessions
func (rt *Router) handleCreateSession(w http.ResponseWriter, r *http.Request) error {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if req.CompanyID == "" {
		return eris.Wrap(errBadRequest, "company_id is required")
	}

	ns := assessment.NewSession{
		CompanyID: req.CompanyID,
		UserID:    req.UserID,
		Type:      req.Type,
		Context: model.SessionContext{
			Sector: req.Sector,
			Goals:  req.Goals,
			Data:   req.Data,
		},
	}

	create := rt.svc.Start
	if req.Draft {
		create = rt.svc.CreateDraft
	}
	sess, err := create(r.Context(), ns)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, sess)
	return nil
}

// GET /v1/sessions?status=&company_id=&limit=&offset=
func (rt *Router) handleListSessions(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()
	limit, err := intParam(q.Get("limit"))
	if err != nil {
		return err
	}
	offset, err := intParam(q.Get("offset"))
	if err != nil {
		return err
	}

	sessions, err := rt.svc.ListSessions(r.Context(), store.SessionFilter{
		Status:    model.SessionStatus(q.Get("status")),
		CompanyID: q.Get("company_id"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		return err
	}
	if sessions == nil {
		sessions = []model.AssessmentSession{}
	}
	writeJSON(w, http.StatusOK, sessions)
	return nil
}

// GET /v1/sessions/{id}
func (rt *Router) handleGetSession(w http.ResponseWriter, r *http.Request) error {
	sess, err := rt.svc.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, sess)
	return nil
}

// POST /v1/sessions/{id}/begin
func (rt *Router) handleBegin(w http.ResponseWriter, r *http.Request) error {
	sess, err := rt.svc.Begin(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, sess)
	return nil
}

// questionView is a question rendered in one locale.
type questionView struct {
	ID          string             `json:"id"`
	Category    string             `json:"category"`
	Subcategory string             `json:"subcategory,omitempty"`
	Text        string             `json:"text"`
	Type        model.QuestionType `json:"type"`
	Required    bool               `json:"required"`
	Options     []optionView       `json:"options,omitempty"`
	Validation  model.Validation   `json:"validation"`
}

type optionView struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

func newQuestionView(q *model.Question, lang string) questionView {
	v := questionView{
		ID:          q.ID,
		Category:    q.Category,
		Subcategory: q.Subcategory,
		Text:        q.Localized(lang),
		Type:        q.Type,
		Required:    q.Required,
		Validation:  q.Validation,
	}
	for _, opt := range q.Options {
		label := opt.Value
		if len(opt.Label) > 0 {
			label = model.Question{Text: opt.Label}.Localized(lang)
		}
		v.Options = append(v.Options, optionView{Value: opt.Value, Label: label})
	}
	return v
}

// GET /v1/sessions/{id}/next
// Responds 204 when no question remains.
func (rt *Router) handleNextQuestion(w http.ResponseWriter, r *http.Request) error {
	q, err := rt.svc.NextQuestion(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	if q == nil {
		w.WriteHeader(http.StatusNoContent)
		return nil
	}
	writeJSON(w, http.StatusOK, newQuestionView(q, r.Header.Get("Accept-Language")))
	return nil
}

// GET /v1/sessions/{id}/answers
func (rt *Router) handleListAnswers(w http.ResponseWriter, r *http.Request) error {
	answers, err := rt.svc.Answers(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	if answers == nil {
		answers = []model.Answer{}
	}
	writeJSON(w, http.StatusOK, answers)
	return nil
}

// PUT /v1/sessions/{id}/answers/{questionID}
// Body: {"value": <any>}
func (rt *Router) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) error {
	var req struct {
		Value any `json:"value"`
	}
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	id := chi.URLParam(r, "id")
	if err := rt.svc.SubmitAnswer(r.Context(), id, chi.URLParam(r, "questionID"), req.Value); err != nil {
		return err
	}
	return rt.writeSession(w, r, id)
}

// POST /v1/sessions/{id}/answers/{questionID}/skip
// Body (optional): {"reason": "..."}
func (rt *Router) handleSkipQuestion(w http.ResponseWriter, r *http.Request) error {
	var req struct {
		Reason string `json:"reason"`
	}
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			return err
		}
	}

	id := chi.URLParam(r, "id")
	if err := rt.svc.SkipQuestion(r.Context(), id, chi.URLParam(r, "questionID"), req.Reason); err != nil {
		return err
	}
	return rt.writeSession(w, r, id)
}

// POST /v1/sessions/{id}/complete
func (rt *Router) handleComplete(w http.ResponseWriter, r *http.Request) error {
	res, err := rt.svc.CompleteSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, res)
	return nil
}

// POST /v1/sessions/{id}/abandon
func (rt *Router) handleAbandon(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")
	if err := rt.svc.AbandonSession(r.Context(), id); err != nil {
		return err
	}
	return rt.writeSession(w, r, id)
}

// POST /v1/sessions/{id}/reanalyze
func (rt *Router) handleReanalyze(w http.ResponseWriter, r *http.Request) error {
	res, err := rt.svc.Reanalyze(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, res)
	return nil
}

// GET /v1/sessions/{id}/results
func (rt *Router) handleListResults(w http.ResponseWriter, r *http.Request) error {
	results, err := rt.svc.Results(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	if results == nil {
		results = []model.AnalysisResult{}
	}
	writeJSON(w, http.StatusOK, results)
	return nil
}

// GET /v1/sessions/{id}/results/latest
func (rt *Router) handleLatestResult(w http.ResponseWriter, r *http.Request) error {
	res, err := rt.svc.LatestResult(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, res)
	return nil
}

// POST /v1/analyze
// Body: {"answers": {...}, "context": {"sector": "..."}}
// Runs the pipeline without storing anything.
func (rt *Router) handleAnalyze(w http.ResponseWriter, r *http.Request) error {
	var req struct {
		Answers model.AnswerSet      `json:"answers"`
		Context model.SessionContext `json:"context"`
	}
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if req.Answers == nil {
		req.Answers = model.AnswerSet{}
	}

	res, err := rt.svc.Analyze(r.Context(), req.Answers, req.Context)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, res)
	return nil
}

func (rt *Router) writeSession(w http.ResponseWriter, r *http.Request, id string) error {
	sess, err := rt.svc.GetSession(r.Context(), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, sess)
	return nil
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, eris.Wrapf(errBadRequest, "invalid integer %q", s)
	}
	return n, nil
}
