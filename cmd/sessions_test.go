//go:build !integration

package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/assessment-cli/internal/model"
)

func TestFormatSessionsList(t *testing.T) {
	now := time.Date(2026, 6, 15, 10, 30, 0, 0, time.UTC)
	sessions := []model.AssessmentSession{
		{
			ID:                 "abc12345-6789-0000-0000-000000000000",
			CompanyID:          "acme",
			Status:             model.SessionInProgress,
			AnsweredCount:      12,
			TotalCount:         43,
			ProgressPercentage: 27.9,
			Context:            model.SessionContext{Sector: "retail"},
			UpdatedAt:          now,
		},
		{
			ID:                 "def12345-6789-0000-0000-000000000000",
			CompanyID:          "globex",
			Status:             model.SessionCompleted,
			AnsweredCount:      41,
			TotalCount:         41,
			ProgressPercentage: 100,
			Context:            model.SessionContext{Sector: "services"},
			UpdatedAt:          now.Add(-time.Hour),
		},
	}

	var buf bytes.Buffer
	formatSessionsList(&buf, sessions)
	out := buf.String()

	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "STATUS")
	assert.Contains(t, out, "abc12345")
	assert.NotContains(t, out, "abc12345-6789")
	assert.Contains(t, out, "in_progress")
	assert.Contains(t, out, "12/43 (28%)")
	assert.Contains(t, out, "globex")
	assert.Contains(t, out, "41/41 (100%)")
	assert.Contains(t, out, "2026-06-15 10:30")
}

func TestFormatSessionDetail(t *testing.T) {
	started := time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)
	sess := &model.AssessmentSession{
		ID:                "abc12345-6789-0000-0000-000000000000",
		CompanyID:         "acme",
		Status:            model.SessionInProgress,
		CurrentQuestionID: "Q_FIN_002",
		AnsweredCount:     3,
		TotalCount:        43,
		Context:           model.SessionContext{Sector: "retail"},
		StartedAt:         &started,
	}
	answers := []model.Answer{
		{QuestionID: "Q_STR_001", Value: "yes"},
		{QuestionID: "Q_MKT_002", Value: []any{"seo", "social"}},
		{QuestionID: "Q_INN_003", Skipped: true, SkipReason: "not sure"},
	}

	var buf bytes.Buffer
	formatSessionDetail(&buf, sess, answers)
	out := buf.String()

	assert.Contains(t, out, "abc12345-6789-0000-0000-000000000000")
	assert.Contains(t, out, "Last:      Q_FIN_002")
	assert.Contains(t, out, "Started:   2026-06-15 10:00:00")
	assert.NotContains(t, out, "Completed:")
	assert.Contains(t, out, `["seo","social"]`)
	assert.Contains(t, out, "(skipped) not sure")
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "", formatValue(nil))
	assert.Equal(t, "yes", formatValue("yes"))
	assert.Equal(t, "2500", formatValue(2500.0))
	assert.Equal(t, "true", formatValue(true))
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "abc12345", shortID("abc12345-6789"))
	assert.Equal(t, "abc", shortID("abc"))
}
