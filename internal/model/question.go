package model

import (
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// QuestionType determines how an answer value is shaped and validated.
type QuestionType string

const (
	QuestionSingleChoice QuestionType = "single_choice"
	QuestionMultiChoice  QuestionType = "multi_choice"
	QuestionNumeric      QuestionType = "numeric"
	QuestionScale        QuestionType = "scale"
	QuestionFreeText     QuestionType = "free_text"
)

// SectorAll is the wildcard sector: a question listing it applies everywhere.
const SectorAll = "all"

// DefaultLocale is used when no requested locale matches a question's text.
const DefaultLocale = "en"

// Question is an immutable catalog entry. The core only reads questions.
type Question struct {
	ID           string            `json:"id" yaml:"id"`
	Category     string            `json:"category" yaml:"category"`
	Subcategory  string            `json:"subcategory,omitempty" yaml:"subcategory,omitempty"`
	Text         map[string]string `json:"text" yaml:"text"`
	Type         QuestionType      `json:"type" yaml:"type"`
	Required     bool              `json:"required" yaml:"required"`
	Priority     string            `json:"priority" yaml:"priority"`
	DisplayOrder int               `json:"display_order" yaml:"display_order"`
	Sectors      []string          `json:"sectors" yaml:"sectors"`
	Options      []Option          `json:"options,omitempty" yaml:"options,omitempty"`
	Validation   Validation        `json:"validation,omitempty" yaml:"validation,omitempty"`
	Active       bool              `json:"active" yaml:"active"`
	// FollowUp questions are only reachable through a deep-dive rule.
	FollowUp bool `json:"follow_up,omitempty" yaml:"follow_up,omitempty"`
}

// Option is one selectable value of a choice question.
type Option struct {
	Value string            `json:"value" yaml:"value"`
	Label map[string]string `json:"label,omitempty" yaml:"label,omitempty"`
}

// Validation holds optional per-question constraints on answer values.
type Validation struct {
	Min           *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max           *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	MaxSelections int      `json:"max_selections,omitempty" yaml:"max_selections,omitempty"`
	MaxLength     int      `json:"max_length,omitempty" yaml:"max_length,omitempty"`
}

// AppliesTo reports whether the question targets the given sector.
func (q Question) AppliesTo(sector string) bool {
	for _, s := range q.Sectors {
		if s == SectorAll || strings.EqualFold(s, sector) {
			return true
		}
	}
	return false
}

// HasOption reports whether value is one of the question's option values.
func (q Question) HasOption(value string) bool {
	for _, o := range q.Options {
		if o.Value == value {
			return true
		}
	}
	return false
}

// Localized returns the question text in the locale that best matches lang
// (an Accept-Language style string). It falls back to DefaultLocale and then
// to any available text.
func (q Question) Localized(lang string) string {
	if len(q.Text) == 0 {
		return ""
	}
	locales := make([]string, 0, len(q.Text))
	for l := range q.Text {
		locales = append(locales, l)
	}
	sort.Strings(locales)

	// The fallback locale goes first so the matcher returns it on no match.
	tags := []language.Tag{language.Make(DefaultLocale)}
	keys := []string{DefaultLocale}
	for _, l := range locales {
		if l == DefaultLocale {
			continue
		}
		tags = append(tags, language.Make(l))
		keys = append(keys, l)
	}

	if lang != "" {
		desired, _, err := language.ParseAcceptLanguage(lang)
		if err == nil && len(desired) > 0 {
			_, idx, _ := language.NewMatcher(tags).Match(desired...)
			if text, ok := q.Text[keys[idx]]; ok {
				return text
			}
		}
	}
	if text, ok := q.Text[DefaultLocale]; ok {
		return text
	}
	return q.Text[locales[0]]
}

// priorityRank maps priority strings to numeric ranks for comparison.
// Lower rank means higher priority (P0 is highest).
var priorityRank = map[string]int{
	"P0": 0,
	"P1": 1,
	"P2": 2,
	"P3": 3,
}

// FilterByMaxPriority returns questions at or above the given priority level.
// For example, maxPriority "P1" returns P0 and P1 questions. Questions with
// unrecognized priority values are excluded.
func FilterByMaxPriority(questions []Question, maxPriority string) []Question {
	maxRank, ok := priorityRank[maxPriority]
	if !ok {
		return nil
	}
	var result []Question
	for _, q := range questions {
		rank, ok := priorityRank[q.Priority]
		if !ok {
			continue
		}
		if rank <= maxRank {
			result = append(result, q)
		}
	}
	return result
}

// SortByDisplayOrder orders questions by display order, then ID.
func SortByDisplayOrder(questions []Question) {
	sort.SliceStable(questions, func(i, j int) bool {
		if questions[i].DisplayOrder != questions[j].DisplayOrder {
			return questions[i].DisplayOrder < questions[j].DisplayOrder
		}
		return questions[i].ID < questions[j].ID
	})
}
