package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/assessment-cli/internal/assessment"
	"github.com/sells-group/assessment-cli/internal/catalog"
	"github.com/sells-group/assessment-cli/internal/model"
	"github.com/sells-group/assessment-cli/internal/monitoring"
	"github.com/sells-group/assessment-cli/internal/registry"
	"github.com/sells-group/assessment-cli/internal/store"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	questions, err := registry.DefaultQuestions()
	require.NoError(t, err)
	svc := assessment.New(catalog.New(questions), st, assessment.Components{}).
		WithClock(func() time.Time { return time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC) })

	reg := prometheus.NewRegistry()
	require.NoError(t, monitoring.Register(reg))

	srv := httptest.NewServer(NewRouter(svc, st, Options{
		AllowedOrigins: []string{"https://app.example.com"},
		Gatherer:       reg,
	}))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, srv.URL+path, r)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() }) //nolint:errcheck
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func createSession(t *testing.T, srv *httptest.Server, body map[string]any) model.AssessmentSession {
	t.Helper()
	resp := do(t, srv, http.MethodPost, "/v1/sessions", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[model.AssessmentSession](t, resp)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp := do(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decode[map[string]string](t, resp)["status"])
}

func TestHealth_Unavailable(t *testing.T) {
	h := NewRouter(nil, pingerFunc(func(context.Context) error { return errors.New("down") }), Options{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSessionLifecycle(t *testing.T) {
	srv := newTestServer(t)
	sess := createSession(t, srv, map[string]any{"company_id": "acme", "user_id": "u1", "sector": "retail"})
	assert.Equal(t, model.SessionInProgress, sess.Status)
	assert.NotEmpty(t, sess.ID)
	base := "/v1/sessions/" + sess.ID

	// Next question, localized.
	req, err := http.NewRequest(http.MethodGet, srv.URL+base+"/next", nil)
	require.NoError(t, err)
	req.Header.Set("Accept-Language", "fr-CA, en;q=0.5")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	require.Equal(t, http.StatusOK, resp.StatusCode)
	q := decode[questionView](t, resp)
	assert.Equal(t, "Q_STR_001", q.ID)
	assert.Equal(t, "Disposez-vous d'un plan d'affaires écrit ?", q.Text)
	require.Len(t, q.Options, 2)
	assert.Equal(t, "yes", q.Options[0].Label)

	// Submit.
	resp = do(t, srv, http.MethodPut, base+"/answers/Q_STR_001", map[string]any{"value": "yes"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[model.AssessmentSession](t, resp)
	assert.Equal(t, 1, updated.AnsweredCount)

	resp = do(t, srv, http.MethodGet, base+"/answers", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	answers := decode[[]model.Answer](t, resp)
	require.Len(t, answers, 1)
	assert.Equal(t, "Q_STR_001", answers[0].QuestionID)

	// Complete, then complete again.
	resp = do(t, srv, http.MethodPost, base+"/complete", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decode[model.AnalysisResult](t, resp)
	assert.Equal(t, sess.ID, result.SessionID)
	assert.NotEmpty(t, result.Score.Maturity)

	resp = do(t, srv, http.MethodPost, base+"/complete", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "invalid_session_state", decode[errorBody](t, resp).Code)

	resp = do(t, srv, http.MethodGet, base+"/next", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Reanalyze appends.
	resp = do(t, srv, http.MethodPost, base+"/reanalyze", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	second := decode[model.AnalysisResult](t, resp)

	resp = do(t, srv, http.MethodGet, base+"/results", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	results := decode[[]model.AnalysisResult](t, resp)
	require.Len(t, results, 2)
	assert.Equal(t, result.ID, results[0].ID)

	resp = do(t, srv, http.MethodGet, base+"/results/latest", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, second.ID, decode[model.AnalysisResult](t, resp).ID)
}

func TestDraftBeginAbandon(t *testing.T) {
	srv := newTestServer(t)
	sess := createSession(t, srv, map[string]any{"company_id": "acme", "sector": "services", "draft": true})
	assert.Equal(t, model.SessionDraft, sess.Status)
	base := "/v1/sessions/" + sess.ID

	resp := do(t, srv, http.MethodGet, base+"/next", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = do(t, srv, http.MethodPost, base+"/begin", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, model.SessionInProgress, decode[model.AssessmentSession](t, resp).Status)

	resp = do(t, srv, http.MethodPost, base+"/abandon", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, model.SessionAbandoned, decode[model.AssessmentSession](t, resp).Status)

	resp = do(t, srv, http.MethodPost, base+"/begin", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestSubmitErrors(t *testing.T) {
	srv := newTestServer(t)
	sess := createSession(t, srv, map[string]any{"company_id": "acme", "sector": "retail"})
	base := "/v1/sessions/" + sess.ID

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"unknown option", http.MethodPut, base + "/answers/Q_STR_001", map[string]any{"value": "maybe"}, http.StatusUnprocessableEntity, "invalid_answer"},
		{"unknown question", http.MethodPut, base + "/answers/Q_NOPE", map[string]any{"value": "yes"}, http.StatusNotFound, "question_not_found"},
		{"unknown session", http.MethodPut, "/v1/sessions/missing/answers/Q_STR_001", map[string]any{"value": "yes"}, http.StatusNotFound, "session_not_found"},
		{"unknown field", http.MethodPut, base + "/answers/Q_STR_001", map[string]any{"val": "yes"}, http.StatusBadRequest, "bad_request"},
		{"skip required", http.MethodPost, base + "/answers/Q_STR_001/skip", map[string]any{"reason": "n/a"}, http.StatusUnprocessableEntity, "invalid_answer"},
		{"missing company", http.MethodPost, "/v1/sessions", map[string]any{"sector": "retail"}, http.StatusBadRequest, "bad_request"},
		{"no result yet", http.MethodGet, base + "/results/latest", nil, http.StatusNotFound, "analysis_not_found"},
		{"bad limit", http.MethodGet, "/v1/sessions?limit=abc", nil, http.StatusBadRequest, "bad_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, srv, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.code, decode[errorBody](t, resp).Code)
		})
	}
}

func TestListSessions(t *testing.T) {
	srv := newTestServer(t)
	createSession(t, srv, map[string]any{"company_id": "acme", "sector": "retail"})
	createSession(t, srv, map[string]any{"company_id": "globex", "sector": "retail"})
	createSession(t, srv, map[string]any{"company_id": "acme", "sector": "retail", "draft": true})

	resp := do(t, srv, http.MethodGet, "/v1/sessions?company_id=acme&status=in_progress", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sessions := decode[[]model.AssessmentSession](t, resp)
	require.Len(t, sessions, 1)
	assert.Equal(t, "acme", sessions[0].CompanyID)

	resp = do(t, srv, http.MethodGet, "/v1/sessions?company_id=nobody", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]model.AssessmentSession](t, resp))
}

func TestAnalyze(t *testing.T) {
	srv := newTestServer(t)
	resp := do(t, srv, http.MethodPost, "/v1/analyze", map[string]any{
		"answers": map[string]any{"Q_DIG_001": "no", "Q_DIG_003": "yes"},
		"context": map[string]any{"sector": "retail"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decode[model.AnalysisResult](t, resp)
	assert.Empty(t, res.SessionID)
	assert.NotEmpty(t, res.Alerts)

	resp = do(t, srv, http.MethodGet, "/v1/sessions", nil)
	assert.Empty(t, decode[[]model.AssessmentSession](t, resp))
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	do(t, srv, http.MethodGet, "/health", nil)

	resp := do(t, srv, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `assessment_http_requests_total{method="GET",route="/health",status="200"}`)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t)
	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/v1/sessions", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, "https://app.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{eris.Wrap(model.ErrSessionNotFound, "store"), http.StatusNotFound},
		{eris.Wrap(model.ErrQuestionNotFound, "svc"), http.StatusNotFound},
		{model.ErrAnalysisNotFound, http.StatusNotFound},
		{eris.Wrap(model.ErrInvalidSessionState, "svc"), http.StatusConflict},
		{model.ErrInvalidAnswer, http.StatusUnprocessableEntity},
		{model.ErrNoAnalyzerContribution, http.StatusUnprocessableEntity},
		{errBadRequest, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		status, _ := statusFor(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
	}
}
