//go:build !integration

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/assessment-cli/internal/catalog"
	"github.com/sells-group/assessment-cli/internal/model"
)

func testQuestions() []model.Question {
	return []model.Question{
		{ID: "Q_B", Category: "finance", Type: model.QuestionNumeric, DisplayOrder: 20, Active: true, Sectors: []string{"retail"},
			Text: map[string]string{"en": "Annual revenue?"}},
		{ID: "Q_A", Category: "strategy", Type: model.QuestionSingleChoice, DisplayOrder: 10, Active: true, Required: true, Sectors: []string{"all"},
			Text: map[string]string{"en": "Do you have a plan?", "fr": "Avez-vous un plan ?"}},
		{ID: "Q_C", Category: "digital", Type: model.QuestionFreeText, DisplayOrder: 30, Active: false, Sectors: []string{"all"},
			Text: map[string]string{"en": "Retired"}},
	}
}

func TestActiveQuestions(t *testing.T) {
	cat := catalog.New(testQuestions())

	all := activeQuestions(cat, "")
	require.Len(t, all, 2)
	assert.Equal(t, "Q_A", all[0].ID)
	assert.Equal(t, "Q_B", all[1].ID)

	services := activeQuestions(cat, "services")
	require.Len(t, services, 1)
	assert.Equal(t, "Q_A", services[0].ID)
}

func TestFormatQuestionsList(t *testing.T) {
	var buf bytes.Buffer
	formatQuestionsList(&buf, activeQuestions(catalog.New(testQuestions()), ""), "fr")
	out := buf.String()

	assert.Contains(t, out, "CATEGORY")
	assert.Contains(t, out, "Avez-vous un plan ?")
	assert.Contains(t, out, "Annual revenue?")
	assert.Contains(t, out, "retail")
	assert.NotContains(t, out, "Retired")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "éé", truncate("ééé", 2))
}

func TestQuestionsValidateCmd(t *testing.T) {
	good := writeFile(t, "questions.yaml", `
- id: Q1
  category: strategy
  text: {en: "Plan?"}
  type: single_choice
  sectors: [all]
  options: [{value: "yes"}, {value: "no"}]
  active: true
`)
	require.NoError(t, questionsValidateCmd.RunE(questionsValidateCmd, []string{good}))

	dup := writeFile(t, "dup.yaml", `
- id: Q1
  text: {en: "a"}
  type: free_text
  sectors: [all]
- id: Q1
  text: {en: "b"}
  type: free_text
  sectors: [all]
`)
	err := questionsValidateCmd.RunE(questionsValidateCmd, []string{dup})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate id")
}

func TestQuestionsPublishCmd_RequiresNotion(t *testing.T) {
	useConfig(t)
	questionsPublishCmd.SetContext(t.Context())
	err := questionsPublishCmd.RunE(questionsPublishCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notion.token")
}
