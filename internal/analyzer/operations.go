package analyzer

import "github.com/sells-group/assessment-cli/internal/model"

var (
	automationPoints = map[string]float64{"none": 0, "partial": 20, "extensive": 35}

	operationsCapabilities = []capability{
		{
			QuestionID: "Q_OPS_001",
			Service:    "documented processes",
			Importance: "Documented processes keep quality steady when people are absent or leave.",
			Benefits:   []string{"Consistent delivery", "Faster training", "Less key-person risk"},
			Points:     35,
		},
		{
			QuestionID: "Q_OPS_003",
			Service:    "quality measurement",
			Importance: "What is not measured cannot be improved; quality metrics catch problems before customers do.",
			Benefits:   []string{"Fewer defects", "Lower rework cost"},
			Points:     30,
			Severity:   model.SeverityLow,
		},
	}

	inventoryCapability = capability{
		QuestionID: "Q_INV_001",
		Service:    "inventory management system",
		Importance: "Tracking stock levels prevents both stockouts and cash tied up in excess inventory.",
		Benefits:   []string{"Fewer stockouts", "Less dead stock", "Better cash flow"},
		Points:     0,
	}
)

// Operations scores process maturity and, for stock-holding businesses,
// inventory control.
type Operations struct{}

func (Operations) ID() string   { return "operations" }
func (Operations) Name() string { return "Operations Analyst" }

func (Operations) Analyze(answers model.AnswerSet, _ model.SessionContext) (*model.AnalyzerResult, error) {
	res := newResult()

	score := capabilityScore(res, answers, model.DimOperationsEfficiency, operationsCapabilities)
	score += lookup(automationPoints, answers, "Q_OPS_002", 0)

	// Inventory only counts when the session was asked about it.
	if answers.Has("Q_INV_001") {
		capabilityScore(res, answers, model.DimOperationsEfficiency, []capability{inventoryCapability})
		if answers.String("Q_INV_002", "") == "often" {
			score -= 10
			res.Alerts = append(res.Alerts, model.Alert{
				Severity:       model.SeverityMedium,
				Title:          "Frequent stockouts",
				Message:        "Products regularly run out of stock, which loses sales.",
				Recommendation: "Set reorder points for fast-moving items and review them monthly.",
			})
		}
	}
	score = clamp(score)
	res.Dimensions[model.DimOperationsEfficiency] = score

	levelInsight(res, model.DimOperationsEfficiency, score,
		"Efficient, well-documented operations",
		"Operations depend on manual, undocumented work")

	if answers.String("Q_OPS_002", "none") != "extensive" {
		res.SWOT.Opportunities = append(res.SWOT.Opportunities, "Automate repetitive operational tasks")
	}
	return res, nil
}
