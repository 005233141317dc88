package model

import "github.com/rotisserie/eris"

// Sentinel errors surfaced by the assessment core. Callers match them with
// errors.Is; every returned error wraps one of these with context.
var (
	// ErrInvalidSessionState is returned when an operation is attempted
	// outside the legal state for that transition.
	ErrInvalidSessionState = eris.New("invalid session state")
	// ErrQuestionNotFound is returned for unknown or inactive questions.
	ErrQuestionNotFound = eris.New("question not found")
	ErrSessionNotFound  = eris.New("session not found")
	ErrAnalysisNotFound = eris.New("analysis result not found")
	// ErrInvalidAnswer is returned when a value does not fit its question.
	ErrInvalidAnswer = eris.New("invalid answer")
	// ErrNoAnalyzerContribution is returned when every analyzer failed.
	ErrNoAnalyzerContribution = eris.New("no analyzer produced a result")
)
