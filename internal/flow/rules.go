package flow

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/assessment-cli/internal/model"
)

// Predicate tests the answer to one question. Every populated condition must
// hold; an empty predicate never matches.
type Predicate struct {
	Equals      string   `yaml:"equals,omitempty" json:"equals,omitempty"`
	OneOf       []string `yaml:"one_of,omitempty" json:"one_of,omitempty"`
	GreaterThan *float64 `yaml:"greater_than,omitempty" json:"greater_than,omitempty"`
	LessThan    *float64 `yaml:"less_than,omitempty" json:"less_than,omitempty"`
	// Present matches any non-empty answer, including multi-choice lists.
	Present bool `yaml:"present,omitempty" json:"present,omitempty"`
}

// Equals matches a case-insensitive string answer.
func Equals(v string) Predicate { return Predicate{Equals: v} }

// OneOf matches any of the given string answers.
func OneOf(vs ...string) Predicate { return Predicate{OneOf: vs} }

// GreaterThan matches a numeric answer strictly above n.
func GreaterThan(n float64) Predicate { return Predicate{GreaterThan: &n} }

// LessThan matches a numeric answer strictly below n.
func LessThan(n float64) Predicate { return Predicate{LessThan: &n} }

// Present matches any non-empty answer.
func Present() Predicate { return Predicate{Present: true} }

func (p Predicate) empty() bool {
	return p.Equals == "" && len(p.OneOf) == 0 && p.GreaterThan == nil &&
		p.LessThan == nil && !p.Present
}

// Match reports whether the answer to questionID satisfies the predicate.
// Missing and skipped answers never match.
func (p Predicate) Match(answers model.AnswerSet, questionID string) bool {
	if p.empty() {
		return false
	}
	v, ok := answers[questionID]
	if !ok || v == nil {
		return false
	}

	value := answers.String(questionID, "")
	if p.Equals != "" && value != strings.ToLower(p.Equals) {
		return false
	}
	if len(p.OneOf) > 0 {
		found := false
		for _, o := range p.OneOf {
			if value == strings.ToLower(o) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if p.GreaterThan != nil {
		n, ok := answers.Number(questionID)
		if !ok || n <= *p.GreaterThan {
			return false
		}
	}
	if p.LessThan != nil {
		n, ok := answers.Number(questionID)
		if !ok || n >= *p.LessThan {
			return false
		}
	}
	if p.Present && value == "" && len(answers.List(questionID)) == 0 {
		return false
	}
	return true
}

// BranchRule overrides default ordering: when the last answered question is
// QuestionID and its answer matches When, Target is asked next.
type BranchRule struct {
	QuestionID string    `yaml:"question_id" json:"question_id"`
	When       Predicate `yaml:"when" json:"when"`
	Target     string    `yaml:"target" json:"target"`
}

// DeepDiveRule inserts FollowUp directly after a red-flag answer to
// QuestionID.
type DeepDiveRule struct {
	QuestionID string    `yaml:"question_id" json:"question_id"`
	When       Predicate `yaml:"when" json:"when"`
	FollowUp   string    `yaml:"follow_up" json:"follow_up"`
}

// SectorExclusion removes whole categories from sessions in Sector.
type SectorExclusion struct {
	Sector     string   `yaml:"sector" json:"sector"`
	Categories []string `yaml:"categories" json:"categories"`
}

// Rules are the enumerable sequencing tables. Within each table the first
// matching rule wins.
type Rules struct {
	Branches         []BranchRule      `yaml:"branches" json:"branches"`
	DeepDives        []DeepDiveRule    `yaml:"deep_dives" json:"deep_dives"`
	SectorExclusions []SectorExclusion `yaml:"sector_exclusions" json:"sector_exclusions"`
}

// DefaultRules returns the built-in sequencing tables.
func DefaultRules() Rules {
	return Rules{
		Branches: []BranchRule{
			// No website: skip the website questions.
			{QuestionID: "Q_DIG_001", When: Equals("no"), Target: "Q_SOC_001"},
			// No social presence: skip platform questions.
			{QuestionID: "Q_SOC_001", When: Equals("no"), Target: "Q_MKT_001"},
			// No feedback collection: skip feedback channels.
			{QuestionID: "Q_CUS_001", When: Equals("no"), Target: "Q_CUS_003"},
		},
		DeepDives: []DeepDiveRule{
			{QuestionID: "Q_FIN_002", When: Equals("declining"), FollowUp: "Q_FIN_DD_001"},
			{QuestionID: "Q_HR_003", When: Equals("high"), FollowUp: "Q_HR_DD_001"},
			{QuestionID: "Q_RSK_004", When: GreaterThan(50), FollowUp: "Q_RSK_DD_001"},
		},
		SectorExclusions: []SectorExclusion{
			{Sector: "services", Categories: []string{"inventory"}},
			{Sector: "technology", Categories: []string{"inventory"}},
		},
	}
}

// LoadRules reads rule tables from a YAML file.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, eris.Wrap(err, "flow: read rules")
	}

	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Rules{}, eris.Wrap(err, "flow: parse rules")
	}
	if err := r.Validate(); err != nil {
		return Rules{}, err
	}
	return r, nil
}

// Validate rejects rules that could never fire or point nowhere.
func (r Rules) Validate() error {
	var errs []string
	for i, b := range r.Branches {
		if b.QuestionID == "" || b.Target == "" || b.When.empty() {
			errs = append(errs, fmt.Sprintf("branch #%d is incomplete", i))
		}
	}
	for i, d := range r.DeepDives {
		if d.QuestionID == "" || d.FollowUp == "" || d.When.empty() {
			errs = append(errs, fmt.Sprintf("deep dive #%d is incomplete", i))
		}
	}
	for i, s := range r.SectorExclusions {
		if s.Sector == "" || len(s.Categories) == 0 {
			errs = append(errs, fmt.Sprintf("sector exclusion #%d is incomplete", i))
		}
	}
	if len(errs) > 0 {
		return eris.Errorf("flow: invalid rules: %s", strings.Join(errs, "; "))
	}
	return nil
}
