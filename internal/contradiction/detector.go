// Package contradiction scans a raw answer set for logically inconsistent
// answer combinations, independent of the analyzer panel.
package contradiction

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/assessment-cli/internal/flow"
	"github.com/sells-group/assessment-cli/internal/model"
)

// Condition is one predicate over one answer.
type Condition struct {
	QuestionID string         `yaml:"question_id" json:"question_id"`
	When       flow.Predicate `yaml:"when" json:"when"`
}

// Rule fires when every condition holds.
type Rule struct {
	Name           string         `yaml:"name" json:"name"`
	Severity       model.Severity `yaml:"severity" json:"severity"`
	Title          string         `yaml:"title" json:"title"`
	Message        string         `yaml:"message" json:"message"`
	Recommendation string         `yaml:"recommendation" json:"recommendation"`
	Conditions     []Condition    `yaml:"conditions" json:"conditions"`
}

// Match reports whether all conditions hold. A rule without conditions
// never matches.
func (r Rule) Match(answers model.AnswerSet) bool {
	if len(r.Conditions) == 0 {
		return false
	}
	for _, c := range r.Conditions {
		if !c.When.Match(answers, c.QuestionID) {
			return false
		}
	}
	return true
}

// Alert builds the alert emitted when the rule fires.
func (r Rule) Alert() model.Alert {
	return model.Alert{
		Severity:       r.Severity,
		Title:          r.Title,
		Message:        r.Message,
		Recommendation: r.Recommendation,
		Source:         model.AlertSourceContradiction,
	}
}

// DefaultRules returns the built-in contradiction table.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:           "revenue_high_but_declining",
			Severity:       model.SeverityHigh,
			Title:          "Revenue reported high but declining",
			Message:        "Revenue is described as above competitors while the trend is declining.",
			Recommendation: "Confirm recent revenue figures; a lead over competitors may already be shrinking.",
			Conditions: []Condition{
				{QuestionID: "Q_FIN_004", When: flow.Equals("high")},
				{QuestionID: "Q_FIN_002", When: flow.Equals("declining")},
			},
		},
		{
			Name:           "ecommerce_without_website",
			Severity:       model.SeverityMedium,
			Title:          "Online store without a website",
			Message:        "An online store is reported but the business has no website.",
			Recommendation: "Clarify whether sales run through a marketplace and record that channel explicitly.",
			Conditions: []Condition{
				{QuestionID: "Q_DIG_001", When: flow.Equals("no")},
				{QuestionID: "Q_DIG_003", When: flow.Equals("yes")},
			},
		},
		{
			Name:           "platforms_without_social_presence",
			Severity:       model.SeverityLow,
			Title:          "Social platforms listed without a social presence",
			Message:        "Social platforms are listed although social media presence was answered no.",
			Recommendation: "Review the social media answers and keep only accounts that are actively used.",
			Conditions: []Condition{
				{QuestionID: "Q_SOC_001", When: flow.Equals("no")},
				{QuestionID: "Q_SOC_002", When: flow.Present()},
			},
		},
		{
			Name:           "kpis_without_goals",
			Severity:       model.SeverityMedium,
			Title:          "KPIs tracked without defined goals",
			Message:        "KPIs are tracked but business goals are not defined, so the indicators measure nothing specific.",
			Recommendation: "Write down three business goals and map each tracked KPI to one of them.",
			Conditions: []Condition{
				{QuestionID: "Q_STR_002", When: flow.Equals("no")},
				{QuestionID: "Q_STR_004", When: flow.Equals("yes")},
			},
		},
		{
			Name:           "satisfaction_without_feedback",
			Severity:       model.SeverityLow,
			Title:          "High satisfaction reported without feedback collection",
			Message:        "Customer satisfaction is rated very high but no customer feedback is collected.",
			Recommendation: "Run a short customer survey to confirm the satisfaction estimate.",
			Conditions: []Condition{
				{QuestionID: "Q_CUS_001", When: flow.Equals("no")},
				{QuestionID: "Q_CUS_003", When: flow.GreaterThan(8)},
			},
		},
		{
			Name:           "high_margin_without_reserves",
			Severity:       model.SeverityHigh,
			Title:          "High margin with no cash reserves",
			Message:        "Profit margins are reported high yet the business holds less than one month of reserves.",
			Recommendation: "Check where profits go; set up a reserve account funded from each month's surplus.",
			Conditions: []Condition{
				{QuestionID: "Q_FIN_003", When: flow.Equals("high")},
				{QuestionID: "Q_FIN_005", When: flow.LessThan(1)},
			},
		},
	}
}

// Detector evaluates a rule table.
type Detector struct {
	rules []Rule
}

// NewDetector creates a detector over rules.
func NewDetector(rules []Rule) *Detector {
	return &Detector{rules: rules}
}

// Rules returns the detector's rule table.
func (d *Detector) Rules() []Rule {
	return d.rules
}

// Detect evaluates every rule independently and returns one alert per rule
// that fires, in table order.
func (d *Detector) Detect(answers model.AnswerSet) []model.Alert {
	var alerts []model.Alert
	for _, r := range d.rules {
		if r.Match(answers) {
			alerts = append(alerts, r.Alert())
		}
	}
	return alerts
}

// LoadRules reads a rule table from a YAML file.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "contradiction: read rules file")
	}
	var rules []Rule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, eris.Wrap(err, "contradiction: parse rules file")
	}
	if err := Validate(rules); err != nil {
		return nil, err
	}
	return rules, nil
}

// Validate checks that every rule is complete and names are unique.
func Validate(rules []Rule) error {
	seen := make(map[string]bool, len(rules))
	for i, r := range rules {
		switch {
		case r.Name == "":
			return eris.Errorf("contradiction: rule #%d has no name", i)
		case seen[r.Name]:
			return eris.Errorf("contradiction: duplicate rule %q", r.Name)
		case r.Title == "":
			return eris.Errorf("contradiction: rule %q has no title", r.Name)
		case len(r.Conditions) < 2:
			return eris.Errorf("contradiction: rule %q needs at least two conditions", r.Name)
		}
		switch r.Severity {
		case model.SeverityCritical, model.SeverityHigh, model.SeverityMedium, model.SeverityLow:
		default:
			return eris.Errorf("contradiction: rule %q has invalid severity %q", r.Name, r.Severity)
		}
		seen[r.Name] = true
	}
	return nil
}
