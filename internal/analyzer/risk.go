package analyzer

import (
	"fmt"

	"github.com/sells-group/assessment-cli/internal/model"
)

// concentrationAlertShare is the largest-customer revenue share that raises
// a concentration alert.
const concentrationAlertShare = 50.0

var riskCapabilities = []capability{
	{
		QuestionID: "Q_RSK_001",
		Service:    "business insurance",
		Importance: "A single uninsured claim or incident can end a small business.",
		Benefits:   []string{"Protection against liability", "Contract eligibility"},
		Severity:   model.SeverityHigh,
	},
	{
		QuestionID: "Q_RSK_002",
		Service:    "business continuity plan",
		Importance: "A continuity plan shortens downtime when a supplier, site or key person is lost.",
		Benefits:   []string{"Faster recovery", "Customer confidence"},
	},
	{
		QuestionID: "Q_RSK_003",
		Service:    "regular data backups",
		Importance: "Without backups, a failed disk or ransomware attack can wipe out customer and financial records.",
		Benefits:   []string{"Recoverable data", "Ransomware resilience"},
		Severity:   model.SeverityHigh,
	},
}

// riskPoints is added to risk_score for each missing protection, by question.
var riskPoints = map[string]float64{
	"Q_RSK_001": 25,
	"Q_RSK_002": 20,
	"Q_RSK_003": 25,
}

// Risk scores exposure. Higher risk_score is worse.
type Risk struct{}

func (Risk) ID() string   { return "risk" }
func (Risk) Name() string { return "Risk Analyst" }

func (Risk) Analyze(answers model.AnswerSet, _ model.SessionContext) (*model.AnalyzerResult, error) {
	res := newResult()

	capabilityScore(res, answers, model.DimRiskScore, riskCapabilities)
	var risk float64
	for _, c := range riskCapabilities {
		if !answers.YesNo(c.QuestionID) {
			risk += riskPoints[c.QuestionID]
		}
	}

	share, hasShare := answers.Number("Q_RSK_004")
	concentration := scaled(share, 0, 100, 30)
	if answers.YesNo("Q_RSK_DD_001") {
		// A long-term contract halves the concentration exposure.
		concentration /= 2
	}
	risk += concentration
	risk = clamp(risk)
	res.Dimensions[model.DimRiskScore] = risk

	// Inverted: low risk is the strength.
	levelInsight(res, model.DimRiskScore, 100-risk,
		"Well-protected against common business risks",
		"Exposed to avoidable business risks")

	if hasShare && share > concentrationAlertShare {
		res.Alerts = append(res.Alerts, model.Alert{
			Severity:       model.SeverityHigh,
			Title:          "Customer concentration risk",
			Message:        fmt.Sprintf("The largest customer accounts for %.0f%% of revenue.", share),
			Recommendation: "Win new accounts so that no single customer exceeds a quarter of revenue.",
		})
		res.SWOT.Threats = append(res.SWOT.Threats, "Dependence on a single customer")
	}
	if !answers.YesNo("Q_RSK_003") {
		res.Alerts = append(res.Alerts, model.Alert{
			Severity:       model.SeverityCritical,
			Title:          "No regular data backups",
			Message:        "Business data is not backed up on a schedule.",
			Recommendation: "Enable automatic daily backups to an off-site or cloud location this week.",
		})
	}
	return res, nil
}
