package store

import (
	"context"
	"time"

	"github.com/sells-group/assessment-cli/internal/model"
)

// SessionFilter specifies criteria for listing sessions.
type SessionFilter struct {
	Status        model.SessionStatus `json:"status,omitempty"`
	CompanyID     string              `json:"company_id,omitempty"`
	CreatedAfter  time.Time           `json:"created_after,omitempty"`
	UpdatedBefore time.Time           `json:"updated_before,omitempty"`
	Limit         int                 `json:"limit,omitempty"`
	Offset        int                 `json:"offset,omitempty"`
}

// ResultFilter specifies criteria for listing analysis results.
type ResultFilter struct {
	SessionID    string    `json:"session_id,omitempty"`
	CreatedAfter time.Time `json:"created_after,omitempty"`
	Limit        int       `json:"limit,omitempty"`
}

// Mutator edits a session loaded inside a store transaction. answers is the
// session's answer list as it will be once the transaction commits.
// Returning an error aborts the transaction and is passed through unchanged.
type Mutator func(s *model.AssessmentSession, answers []model.Answer) error

// Finalizer is a Mutator that also produces the analysis result to append
// in the same transaction.
type Finalizer func(s *model.AssessmentSession, answers []model.Answer) (*model.AnalysisResult, error)

// Store defines the persistence interface for assessment sessions, answers
// and analysis results.
//
// Every session write happens inside one transaction that loads the session,
// applies the caller's Mutator and writes the session back with a
// conditional UPDATE on the status it was loaded with. If no row matches,
// the write fails with model.ErrInvalidSessionState and nothing is
// persisted.
type Store interface {
	// Sessions
	CreateSession(ctx context.Context, sess model.AssessmentSession) (*model.AssessmentSession, error)
	GetSession(ctx context.Context, id string) (*model.AssessmentSession, error)
	ListSessions(ctx context.Context, filter SessionFilter) ([]model.AssessmentSession, error)
	UpdateSession(ctx context.Context, id string, fn Mutator) (*model.AssessmentSession, error)

	// Answers. SaveAnswer upserts on (session, question) and applies fn in
	// the same transaction.
	SaveAnswer(ctx context.Context, answer model.Answer, fn Mutator) (*model.AssessmentSession, error)
	GetAnswers(ctx context.Context, sessionID string) ([]model.Answer, error)

	// Analysis results (append-only)
	CompleteSession(ctx context.Context, id string, fn Finalizer) (*model.AssessmentSession, *model.AnalysisResult, error)
	AppendAnalysisResult(ctx context.Context, result *model.AnalysisResult) error
	ListAnalysisResults(ctx context.Context, filter ResultFilter) ([]model.AnalysisResult, error)
	LatestAnalysisResult(ctx context.Context, sessionID string) (*model.AnalysisResult, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

// stageAnswer returns answers with a replacing any existing answer to the
// same question.
func stageAnswer(answers []model.Answer, a model.Answer) []model.Answer {
	out := make([]model.Answer, 0, len(answers)+1)
	for _, existing := range answers {
		if existing.QuestionID == a.QuestionID {
			continue
		}
		out = append(out, existing)
	}
	return append(out, a)
}

// prepareResult fills the identity fields of a result before insert.
func prepareResult(result *model.AnalysisResult, sessionID string, newID func() string, now time.Time) {
	if result.ID == "" {
		result.ID = newID()
	}
	if result.SessionID == "" {
		result.SessionID = sessionID
	}
	if result.CreatedAt.IsZero() {
		result.CreatedAt = now
	}
}

func listLimit(limit int) int {
	if limit <= 0 {
		return 100
	}
	return limit
}
