// Package catalog serves the read-only question catalog to the flow engine
// and the assessment service.
package catalog

import (
	"sort"
	"sync"

	"github.com/sells-group/assessment-cli/internal/model"
)

// Provider is the question catalog as seen by the assessment core.
type Provider interface {
	// ActiveQuestions returns active questions applicable to sector, ordered
	// by display order.
	ActiveQuestions(sector string) []model.Question
	// QuestionByID returns an active question, or false when the ID is
	// unknown or inactive.
	QuestionByID(id string) (*model.Question, bool)
}

// Memory is an in-memory Provider. Replace swaps the whole catalog at once,
// so readers always see a consistent snapshot.
type Memory struct {
	mu        sync.RWMutex
	questions []model.Question
	byID      map[string]int
}

var _ Provider = (*Memory)(nil)

// New returns a catalog holding a sorted copy of questions.
func New(questions []model.Question) *Memory {
	m := &Memory{}
	m.Replace(questions)
	return m
}

// Replace swaps the catalog contents.
func (m *Memory) Replace(questions []model.Question) {
	sorted := make([]model.Question, len(questions))
	copy(sorted, questions)
	model.SortByDisplayOrder(sorted)

	byID := make(map[string]int, len(sorted))
	for i, q := range sorted {
		byID[q.ID] = i
	}

	m.mu.Lock()
	m.questions = sorted
	m.byID = byID
	m.mu.Unlock()
}

// ActiveQuestions implements Provider.
func (m *Memory) ActiveQuestions(sector string) []model.Question {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.Question
	for _, q := range m.questions {
		if q.Active && q.AppliesTo(sector) {
			out = append(out, q)
		}
	}
	return out
}

// QuestionByID implements Provider.
func (m *Memory) QuestionByID(id string) (*model.Question, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i, ok := m.byID[id]
	if !ok || !m.questions[i].Active {
		return nil, false
	}
	q := m.questions[i]
	return &q, true
}

// All returns every question, active or not, in display order.
func (m *Memory) All() []model.Question {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.Question, len(m.questions))
	copy(out, m.questions)
	return out
}

// Categories returns the distinct categories in the catalog, sorted.
func (m *Memory) Categories() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, q := range m.questions {
		seen[q.Category] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
