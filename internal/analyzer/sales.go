package analyzer

import (
	"fmt"

	"github.com/sells-group/assessment-cli/internal/model"
)

var salesCapabilities = []capability{
	{
		QuestionID: "Q_SAL_001",
		Service:    "defined sales process",
		Importance: "A repeatable process makes sales results predictable and teachable.",
		Benefits:   []string{"Consistent conversion", "Faster onboarding of sellers"},
		Points:     30,
	},
	{
		QuestionID: "Q_SAL_003",
		Service:    "sales targets",
		Importance: "Targets turn growth ambitions into numbers the team can act on.",
		Benefits:   []string{"Clear expectations", "Performance visibility"},
		Points:     20,
		Severity:   model.SeverityLow,
	},
	{
		QuestionID: "Q_TEC_001",
		Service:    "CRM system",
		Importance: "A CRM keeps every lead and customer interaction in one place so nothing falls through the cracks.",
		Benefits:   []string{"No lost leads", "Pipeline forecasting", "Customer history"},
		Points:     20,
	},
}

// Sales scores the sales process and conversion.
type Sales struct{}

func (Sales) ID() string   { return "sales" }
func (Sales) Name() string { return "Sales Analyst" }

func (Sales) Analyze(answers model.AnswerSet, _ model.SessionContext) (*model.AnalyzerResult, error) {
	res := newResult()

	score := capabilityScore(res, answers, model.DimSalesEffectiveness, salesCapabilities)

	// Conversion at or above 30% earns the full 30 points.
	conversion, hasConversion := answers.Number("Q_SAL_002")
	score += scaled(conversion, 0, 30, 30)
	score = clamp(score)
	res.Dimensions[model.DimSalesEffectiveness] = score

	levelInsight(res, model.DimSalesEffectiveness, score,
		"Effective, well-run sales",
		"Sales lack process and tooling")

	if hasConversion && conversion < 2 {
		res.Alerts = append(res.Alerts, model.Alert{
			Severity:       model.SeverityMedium,
			Title:          "Very low lead conversion",
			Message:        fmt.Sprintf("Only %.1f%% of leads become customers.", conversion),
			Recommendation: "Review lead qualification and follow-up speed before buying more leads.",
		})
	}
	return res, nil
}
