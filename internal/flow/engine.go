// Package flow decides which question an assessment session asks next.
package flow

import (
	"strings"

	"github.com/sells-group/assessment-cli/internal/model"
)

// Engine applies branch, deep-dive and sector-exclusion rules on top of the
// catalog's display order. It holds no per-session state.
type Engine struct {
	rules Rules
}

// NewEngine returns an Engine using the given rule tables.
func NewEngine(rules Rules) *Engine {
	return &Engine{rules: rules}
}

// Rules returns the engine's rule tables.
func (e *Engine) Rules() Rules {
	return e.rules
}

// Excluded reports whether category is removed for sector.
func (e *Engine) Excluded(sector, category string) bool {
	for _, ex := range e.rules.SectorExclusions {
		if !strings.EqualFold(ex.Sector, sector) {
			continue
		}
		for _, c := range ex.Categories {
			if strings.EqualFold(c, category) {
				return true
			}
		}
	}
	return false
}

// Candidates returns the active questions a session in sector may be asked,
// including follow-ups, in display order.
func (e *Engine) Candidates(questions []model.Question, sector string) []model.Question {
	out := make([]model.Question, 0, len(questions))
	for _, q := range questions {
		if !q.Active || !q.AppliesTo(sector) || e.Excluded(sector, q.Category) {
			continue
		}
		out = append(out, q)
	}
	model.SortByDisplayOrder(out)
	return out
}

// Next returns the next question to ask, or nil when no candidate remains.
// lastQuestionID is the most recently answered or skipped question; empty
// means the session has not answered anything yet. A nil result does not
// change session state.
func (e *Engine) Next(questions []model.Question, answers model.AnswerSet, lastQuestionID, sector string) *model.Question {
	candidates := e.Candidates(questions, sector)
	byID := make(map[string]int, len(candidates))
	for i, q := range candidates {
		byID[q.ID] = i
	}

	pick := func(id string) *model.Question {
		i, ok := byID[id]
		if !ok || answers.Has(id) {
			return nil
		}
		q := candidates[i]
		return &q
	}

	if lastQuestionID == "" {
		return firstAfter(candidates, answers, -1<<31)
	}

	for _, b := range e.rules.Branches {
		if b.QuestionID == lastQuestionID && b.When.Match(answers, lastQuestionID) {
			if q := pick(b.Target); q != nil {
				return q
			}
			break
		}
	}

	for _, d := range e.rules.DeepDives {
		if d.QuestionID == lastQuestionID && d.When.Match(answers, lastQuestionID) {
			if q := pick(d.FollowUp); q != nil {
				return q
			}
			break
		}
	}

	lastOrder := -1 << 31
	if i, ok := byID[lastQuestionID]; ok {
		lastOrder = candidates[i].DisplayOrder
	} else {
		for _, q := range questions {
			if q.ID == lastQuestionID {
				lastOrder = q.DisplayOrder
				break
			}
		}
	}
	return firstAfter(candidates, answers, lastOrder)
}

// firstAfter returns the first unanswered primary question with a display
// order strictly greater than order.
func firstAfter(candidates []model.Question, answers model.AnswerSet, order int) *model.Question {
	for _, q := range candidates {
		if q.FollowUp || q.DisplayOrder <= order || answers.Has(q.ID) {
			continue
		}
		return &q
	}
	return nil
}

// Progress returns the answered and total counts for a session. Total is
// every primary candidate plus the follow-ups that were actually reached.
func (e *Engine) Progress(questions []model.Question, answers model.AnswerSet, sector string) (answered, total int) {
	for _, q := range e.Candidates(questions, sector) {
		has := answers.Has(q.ID)
		if q.FollowUp && !has {
			continue
		}
		total++
		if has {
			answered++
		}
	}
	return answered, total
}
