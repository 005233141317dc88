package analyzer

import (
	"fmt"

	"github.com/sells-group/assessment-cli/internal/model"
)

var (
	revenueTrendPoints = map[string]float64{"growing": 30, "stable": 20, "declining": 5}
	marginPoints       = map[string]float64{"negative": 0, "low": 10, "medium": 20, "high": 30}

	accountingCapability = capability{
		QuestionID: "Q_FIN_006",
		Service:    "accounting software",
		Importance: "Accurate, current books are the basis for every financial decision and for tax compliance.",
		Benefits:   []string{"Real-time cash view", "Fewer bookkeeping errors", "Simpler tax filing"},
		Points:     15,
	}
)

// Finance scores financial health. It also writes a financial view of
// risk_score, which the risk analyzer overrides when both run.
type Finance struct{}

func (Finance) ID() string   { return "finance" }
func (Finance) Name() string { return "Finance Analyst" }

func (Finance) Analyze(answers model.AnswerSet, _ model.SessionContext) (*model.AnalyzerResult, error) {
	res := newResult()

	trend := answers.String("Q_FIN_002", "stable")
	margin := answers.String("Q_FIN_003", "low")
	reserves, hasReserves := answers.Number("Q_FIN_005")

	score := capabilityScore(res, answers, model.DimFinancialHealth, []capability{accountingCapability})
	score += lookup(revenueTrendPoints, answers, "Q_FIN_002", revenueTrendPoints["stable"])
	score += lookup(marginPoints, answers, "Q_FIN_003", marginPoints["low"])
	// Six months of reserves earns the full 25 points.
	score += scaled(reserves, 0, 6, 25)
	score = clamp(score)
	res.Dimensions[model.DimFinancialHealth] = score

	var risk float64
	if trend == "declining" {
		risk += 35
	}
	if margin == "negative" {
		risk += 35
	}
	if hasReserves && reserves < 1 {
		risk += 30
	}
	res.Dimensions[model.DimRiskScore] = clamp(risk)

	levelInsight(res, model.DimFinancialHealth, score,
		"Healthy finances",
		"Fragile financial position")

	if trend == "declining" && margin == "negative" {
		res.Alerts = append(res.Alerts, model.Alert{
			Severity:       model.SeverityHigh,
			Title:          "Loss-making with declining revenue",
			Message:        "The business is losing money while revenue is shrinking.",
			Recommendation: "Build a 13-week cash forecast and cut costs that do not protect core revenue.",
		})
	}
	if hasReserves && reserves < 1 {
		res.Alerts = append(res.Alerts, model.Alert{
			Severity:       model.SeverityHigh,
			Title:          "Cash reserves below one month",
			Message:        fmt.Sprintf("Reserves cover %.1f months of operating expenses.", reserves),
			Recommendation: "Set aside a fixed share of monthly revenue until reserves cover three months of costs.",
		})
	}

	switch answers.String("Q_FIN_DD_001", "") {
	case "over_12m":
		res.SWOT.Threats = append(res.SWOT.Threats, "Revenue decline persisting for over a year")
	case "3_12m":
		res.SWOT.Threats = append(res.SWOT.Threats, "Revenue decline for several months")
	}
	if trend == "growing" {
		res.SWOT.Opportunities = append(res.SWOT.Opportunities, "Reinvest growing revenue into capacity")
	}
	return res, nil
}
