package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// AnswerSource records who produced an answer.
type AnswerSource string

const (
	AnswerSourceUser     AnswerSource = "user"
	AnswerSourceInferred AnswerSource = "inferred"
)

// Answer is the live response to one question within one session. At most
// one answer exists per (session, question); re-submission overwrites it.
type Answer struct {
	ID         string       `json:"id"`
	SessionID  string       `json:"session_id"`
	QuestionID string       `json:"question_id"`
	Value      any          `json:"value"`
	Normalized any          `json:"normalized,omitempty"`
	// Confidence is stored for every answer but not read by any scoring
	// formula.
	Confidence    float64      `json:"confidence"`
	Source        AnswerSource `json:"source"`
	Skipped       bool         `json:"skipped"`
	SkipReason    string       `json:"skip_reason,omitempty"`
	TimeSpentSecs int          `json:"time_spent_secs,omitempty"`
	AnsweredAt    time.Time    `json:"answered_at"`
}

// AnswerSet maps question IDs to raw answer values. Skipped questions are
// present with a nil value.
type AnswerSet map[string]any

// NewAnswerSet builds an AnswerSet from stored answers. The normalized value
// is used when present.
func NewAnswerSet(answers []Answer) AnswerSet {
	set := make(AnswerSet, len(answers))
	for _, a := range answers {
		switch {
		case a.Skipped:
			set[a.QuestionID] = nil
		case a.Normalized != nil:
			set[a.QuestionID] = a.Normalized
		default:
			set[a.QuestionID] = a.Value
		}
	}
	return set
}

// Has reports whether the question was answered or skipped.
func (s AnswerSet) Has(questionID string) bool {
	_, ok := s[questionID]
	return ok
}

// String returns the answer as a lower-cased, trimmed string, or def when
// the key is missing, skipped, or not scalar.
func (s AnswerSet) String(questionID, def string) string {
	v, ok := s[questionID]
	if !ok || v == nil {
		return def
	}
	switch t := v.(type) {
	case string:
		if strings.TrimSpace(t) == "" {
			return def
		}
		return strings.ToLower(strings.TrimSpace(t))
	case bool:
		if t {
			return "yes"
		}
		return "no"
	case float64, int, int64:
		return fmt.Sprintf("%v", t)
	default:
		return def
	}
}

// YesNo returns true only for an explicit affirmative answer. Missing keys
// default to "no".
func (s AnswerSet) YesNo(questionID string) bool {
	return s.String(questionID, "no") == "yes"
}

// Float returns a numeric answer, or def when missing or unparsable.
func (s AnswerSet) Float(questionID string, def float64) float64 {
	if f, ok := s.Number(questionID); ok {
		return f
	}
	return def
}

// Number returns a numeric answer and whether one was present.
func (s AnswerSet) Number(questionID string) (float64, bool) {
	v, ok := s[questionID]
	if !ok || v == nil {
		return 0, false
	}
	return toFloat(v)
}

// List returns a multi-choice answer. A scalar string becomes a one-element
// list; missing keys return nil.
func (s AnswerSet) List(questionID string) []string {
	v, ok := s[questionID]
	if !ok || v == nil {
		return nil
	}
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	default:
		return nil
	}
}

// NormalizeValue coerces a raw submitted value into the canonical shape for
// the question type and validates it. Returned errors wrap ErrInvalidAnswer.
func NormalizeValue(q Question, raw any) (any, error) {
	if raw == nil {
		return nil, eris.Wrapf(ErrInvalidAnswer, "question %s: empty value", q.ID)
	}

	switch q.Type {
	case QuestionSingleChoice:
		s, ok := raw.(string)
		if !ok {
			return nil, eris.Wrapf(ErrInvalidAnswer, "question %s: expected a string", q.ID)
		}
		s = strings.TrimSpace(s)
		if len(q.Options) > 0 && !q.HasOption(s) {
			return nil, eris.Wrapf(ErrInvalidAnswer, "question %s: unknown option %q", q.ID, s)
		}
		return s, nil

	case QuestionMultiChoice:
		var list []string
		switch t := raw.(type) {
		case []string:
			list = t
		case []any:
			list = make([]string, 0, len(t))
			for _, item := range t {
				s, ok := item.(string)
				if !ok {
					return nil, eris.Wrapf(ErrInvalidAnswer, "question %s: selections must be strings", q.ID)
				}
				list = append(list, s)
			}
		case string:
			list = []string{t}
		default:
			return nil, eris.Wrapf(ErrInvalidAnswer, "question %s: expected a list", q.ID)
		}
		if q.Validation.MaxSelections > 0 && len(list) > q.Validation.MaxSelections {
			return nil, eris.Wrapf(ErrInvalidAnswer, "question %s: at most %d selections", q.ID, q.Validation.MaxSelections)
		}
		for _, item := range list {
			if len(q.Options) > 0 && !q.HasOption(item) {
				return nil, eris.Wrapf(ErrInvalidAnswer, "question %s: unknown option %q", q.ID, item)
			}
		}
		return list, nil

	case QuestionNumeric, QuestionScale:
		f, ok := toFloat(raw)
		if !ok {
			return nil, eris.Wrapf(ErrInvalidAnswer, "question %s: expected a number", q.ID)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, eris.Wrapf(ErrInvalidAnswer, "question %s: %v is not a finite number", q.ID, raw)
		}
		if q.Validation.Min != nil && f < *q.Validation.Min {
			return nil, eris.Wrapf(ErrInvalidAnswer, "question %s: %v below minimum %v", q.ID, f, *q.Validation.Min)
		}
		if q.Validation.Max != nil && f > *q.Validation.Max {
			return nil, eris.Wrapf(ErrInvalidAnswer, "question %s: %v above maximum %v", q.ID, f, *q.Validation.Max)
		}
		return f, nil

	case QuestionFreeText:
		s, ok := raw.(string)
		if !ok {
			return nil, eris.Wrapf(ErrInvalidAnswer, "question %s: expected text", q.ID)
		}
		if q.Validation.MaxLength > 0 && len(s) > q.Validation.MaxLength {
			return nil, eris.Wrapf(ErrInvalidAnswer, "question %s: text longer than %d", q.ID, q.Validation.MaxLength)
		}
		return s, nil

	default:
		return raw, nil
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		cleaned := strings.ReplaceAll(strings.TrimSpace(n), ",", "")
		cleaned = strings.TrimPrefix(cleaned, "$")
		cleaned = strings.TrimSuffix(cleaned, "%")
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
