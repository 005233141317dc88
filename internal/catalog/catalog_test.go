package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/assessment-cli/internal/model"
)

func testQuestions() []model.Question {
	return []model.Question{
		{ID: "Q3", Category: "finance", DisplayOrder: 30, Sectors: []string{"all"}, Active: true},
		{ID: "Q1", Category: "strategy", DisplayOrder: 10, Sectors: []string{"all"}, Active: true},
		{ID: "Q2", Category: "inventory", DisplayOrder: 20, Sectors: []string{"retail"}, Active: true},
		{ID: "Q4", Category: "finance", DisplayOrder: 40, Sectors: []string{"all"}, Active: false},
	}
}

func TestMemory_ActiveQuestions(t *testing.T) {
	t.Parallel()
	c := New(testQuestions())

	retail := c.ActiveQuestions("retail")
	require.Len(t, retail, 3)
	assert.Equal(t, "Q1", retail[0].ID)
	assert.Equal(t, "Q2", retail[1].ID)
	assert.Equal(t, "Q3", retail[2].ID)

	services := c.ActiveQuestions("services")
	require.Len(t, services, 2)
	assert.Equal(t, "Q1", services[0].ID)
	assert.Equal(t, "Q3", services[1].ID)
}

func TestMemory_QuestionByID(t *testing.T) {
	t.Parallel()
	c := New(testQuestions())

	q, ok := c.QuestionByID("Q2")
	require.True(t, ok)
	assert.Equal(t, "inventory", q.Category)

	_, ok = c.QuestionByID("Q4")
	assert.False(t, ok, "inactive questions are not served")

	_, ok = c.QuestionByID("nope")
	assert.False(t, ok)
}

func TestMemory_ReturnsCopies(t *testing.T) {
	t.Parallel()
	c := New(testQuestions())

	q, _ := c.QuestionByID("Q1")
	q.Category = "mutated"
	again, _ := c.QuestionByID("Q1")
	assert.Equal(t, "strategy", again.Category)
}

func TestMemory_ReplaceAndCategories(t *testing.T) {
	t.Parallel()
	c := New(testQuestions())
	assert.Equal(t, []string{"finance", "inventory", "strategy"}, c.Categories())
	assert.Len(t, c.All(), 4)

	c.Replace([]model.Question{{ID: "N1", Category: "people", Sectors: []string{"all"}, Active: true}})
	assert.Equal(t, []string{"people"}, c.Categories())
	_, ok := c.QuestionByID("Q1")
	assert.False(t, ok)
}
