package analyzer

import (
	"fmt"
	"math"

	"github.com/sells-group/assessment-cli/internal/model"
)

// budgetRevenueAlertRatio is the monthly marketing budget share of revenue
// above which spending is flagged as critical.
const budgetRevenueAlertRatio = 0.5

var marketingPlanCapability = capability{
	QuestionID: "Q_MKT_002",
	Service:    "marketing plan",
	Importance: "A documented plan ties marketing spend to goals and makes results comparable month to month.",
	Benefits:   []string{"Predictable lead flow", "Budget accountability"},
	Points:     40,
}

// Marketing scores planning, channel mix and budget sanity.
type Marketing struct{}

func (Marketing) ID() string   { return "marketing" }
func (Marketing) Name() string { return "Marketing Analyst" }

func (Marketing) Analyze(answers model.AnswerSet, _ model.SessionContext) (*model.AnalyzerResult, error) {
	res := newResult()

	score := capabilityScore(res, answers, model.DimMarketingMaturity, []capability{marketingPlanCapability})

	channels := len(answers.List("Q_MKT_003"))
	score += math.Min(float64(channels), 4) * 10

	budget := answers.Float("Q_MKT_001", 0)
	revenue := answers.Float("Q_FIN_001", 0)
	if budget > 0 {
		score += 20
	}
	score = clamp(score)
	res.Dimensions[model.DimMarketingMaturity] = score

	levelInsight(res, model.DimMarketingMaturity, score,
		"Structured, multi-channel marketing",
		"Marketing is ad hoc and narrow")

	// Missing revenue leaves the ratio undefined; a reported zero revenue
	// with any spend is treated as overspend.
	_, revenueAnswered := answers.Number("Q_FIN_001")
	switch share := ratio(budget, revenue); {
	case share > budgetRevenueAlertRatio:
		overspend(res, fmt.Sprintf("Monthly marketing budget is %.0f%% of monthly revenue.", share*100))
	case budget > 0 && revenueAnswered && revenue <= 0:
		overspend(res, "Marketing budget is being spent with no reported monthly revenue.")
	}

	if channels == 1 {
		res.SWOT.Opportunities = append(res.SWOT.Opportunities, "Diversify marketing channels")
	}
	return res, nil
}

func overspend(res *model.AnalyzerResult, message string) {
	res.Alerts = append(res.Alerts, model.Alert{
		Severity:       model.SeverityCritical,
		Title:          "Marketing spend exceeds half of revenue",
		Message:        message,
		Recommendation: "Cut marketing spend to a sustainable share of revenue and measure return per channel.",
	})
	res.SWOT.Threats = append(res.SWOT.Threats, "Unsustainable marketing spend")
}
