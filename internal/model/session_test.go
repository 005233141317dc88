package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		answered, total int
		want            float64
	}{
		{0, 0, 0},
		{5, 0, 0},
		{0, 10, 0},
		{1, 3, 33.33},
		{2, 3, 66.67},
		{10, 10, 100},
		{12, 10, 100},
		{-1, 10, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Progress(tt.answered, tt.total), "%d/%d", tt.answered, tt.total)
	}
}

func TestSession_LegalLifecycle(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	s := &AssessmentSession{ID: "s1", Status: SessionDraft}
	require.NoError(t, s.Start(now))
	assert.Equal(t, SessionInProgress, s.Status)
	require.NotNil(t, s.StartedAt)
	assert.Equal(t, now, *s.StartedAt)

	require.NoError(t, s.Advance("Q_STR_001", 3, 8))
	assert.Equal(t, "Q_STR_001", s.CurrentQuestionID)
	assert.Equal(t, 37.5, s.ProgressPercentage)

	done := now.Add(time.Hour)
	require.NoError(t, s.Complete(done))
	assert.Equal(t, SessionCompleted, s.Status)
	assert.Equal(t, 100.0, s.ProgressPercentage)
	require.NotNil(t, s.CompletedAt)
	assert.Equal(t, done, *s.CompletedAt)
}

func TestSession_NewSessionCanStart(t *testing.T) {
	t.Parallel()
	s := &AssessmentSession{ID: "s1"}
	require.NoError(t, s.Start(time.Now()))
	assert.Equal(t, SessionInProgress, s.Status)
}

func TestSession_IllegalTransitions(t *testing.T) {
	t.Parallel()
	now := time.Now()

	tests := []struct {
		name   string
		status SessionStatus
		op     func(s *AssessmentSession) error
	}{
		{"start in_progress", SessionInProgress, func(s *AssessmentSession) error { return s.Start(now) }},
		{"start completed", SessionCompleted, func(s *AssessmentSession) error { return s.Start(now) }},
		{"advance draft", SessionDraft, func(s *AssessmentSession) error { return s.Advance("q", 1, 2) }},
		{"advance completed", SessionCompleted, func(s *AssessmentSession) error { return s.Advance("q", 1, 2) }},
		{"complete draft", SessionDraft, func(s *AssessmentSession) error { return s.Complete(now) }},
		{"complete abandoned", SessionAbandoned, func(s *AssessmentSession) error { return s.Complete(now) }},
		{"complete completed", SessionCompleted, func(s *AssessmentSession) error { return s.Complete(now) }},
		{"abandon completed", SessionCompleted, func(s *AssessmentSession) error { return s.Abandon(now) }},
		{"abandon abandoned", SessionAbandoned, func(s *AssessmentSession) error { return s.Abandon(now) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &AssessmentSession{ID: "s1", Status: tt.status}
			err := tt.op(s)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidSessionState))
			assert.Equal(t, tt.status, s.Status, "status must not change on failure")
		})
	}
}

func TestSession_AbandonFromDraftAndInProgress(t *testing.T) {
	t.Parallel()
	for _, status := range []SessionStatus{SessionDraft, SessionInProgress} {
		s := &AssessmentSession{ID: "s1", Status: status}
		require.NoError(t, s.Abandon(time.Now()))
		assert.Equal(t, SessionAbandoned, s.Status)
		assert.True(t, s.Status.Terminal())
	}
}
