package model

import (
	"math"
	"time"

	"github.com/rotisserie/eris"
)

// SessionStatus is the lifecycle state of an assessment session.
type SessionStatus string

const (
	SessionDraft      SessionStatus = "draft"
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionAbandoned  SessionStatus = "abandoned"
)

// Terminal reports whether no transition may leave this status.
func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionAbandoned
}

// SessionContext is the interview context accumulated for a session.
type SessionContext struct {
	Sector string         `json:"sector"`
	Goals  []string       `json:"goals,omitempty"`
	Data   map[string]any `json:"data,omitempty"`
}

// AssessmentSession is one company's run through the questionnaire.
type AssessmentSession struct {
	ID                 string         `json:"id"`
	CompanyID          string         `json:"company_id"`
	UserID             string         `json:"user_id"`
	Type               string         `json:"type"`
	Status             SessionStatus  `json:"status"`
	// CurrentQuestionID is the flow cursor: the question most recently
	// answered or skipped. The question to ask next is derived from it.
	CurrentQuestionID  string         `json:"current_question_id,omitempty"`
	AnsweredCount      int            `json:"answered_count"`
	TotalCount         int            `json:"total_count"`
	ProgressPercentage float64        `json:"progress_percentage"`
	Context            SessionContext `json:"context"`
	StartedAt          *time.Time     `json:"started_at,omitempty"`
	CompletedAt        *time.Time     `json:"completed_at,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// Progress returns answered/total as a percentage rounded to two decimals
// and clamped to [0, 100]. A zero total yields 0.
func Progress(answered, total int) float64 {
	if total <= 0 {
		return 0
	}
	p := math.Round(float64(answered)/float64(total)*100*100) / 100
	return math.Max(0, math.Min(100, p))
}

func (s *AssessmentSession) transitionError(to SessionStatus) error {
	return eris.Wrapf(ErrInvalidSessionState, "session %s: %s -> %s", s.ID, s.Status, to)
}

// Start moves a draft (or brand new) session to in_progress.
func (s *AssessmentSession) Start(now time.Time) error {
	if s.Status != SessionDraft && s.Status != "" {
		return s.transitionError(SessionInProgress)
	}
	s.Status = SessionInProgress
	s.StartedAt = &now
	s.UpdatedAt = now
	return nil
}

// Advance moves the flow cursor to the question just recorded and
// recomputes progress.
func (s *AssessmentSession) Advance(questionID string, answered, total int) error {
	if s.Status != SessionInProgress {
		return eris.Wrapf(ErrInvalidSessionState, "session %s: cannot advance while %s", s.ID, s.Status)
	}
	s.CurrentQuestionID = questionID
	s.AnsweredCount = answered
	s.TotalCount = total
	s.ProgressPercentage = Progress(answered, total)
	return nil
}

// Complete closes an in-progress session and forces progress to 100.
func (s *AssessmentSession) Complete(now time.Time) error {
	if s.Status != SessionInProgress {
		return s.transitionError(SessionCompleted)
	}
	s.Status = SessionCompleted
	s.CompletedAt = &now
	s.ProgressPercentage = 100
	s.UpdatedAt = now
	return nil
}

// Abandon ends a draft or in-progress session.
func (s *AssessmentSession) Abandon(now time.Time) error {
	if s.Status != SessionDraft && s.Status != SessionInProgress {
		return s.transitionError(SessionAbandoned)
	}
	s.Status = SessionAbandoned
	s.UpdatedAt = now
	return nil
}
