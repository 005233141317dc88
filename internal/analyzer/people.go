package analyzer

import (
	"fmt"

	"github.com/sells-group/assessment-cli/internal/model"
)

var (
	turnoverPoints = map[string]float64{"low": 40, "medium": 25, "high": 5}

	peopleCapabilities = []capability{
		{
			QuestionID: "Q_HR_002",
			Service:    "staff training program",
			Importance: "Training keeps skills current and is one of the strongest levers on retention.",
			Benefits:   []string{"Higher productivity", "Better retention"},
			Points:     30,
		},
		{
			QuestionID: "Q_HR_004",
			Service:    "performance reviews",
			Importance: "Regular reviews surface problems early and give people a path to grow.",
			Benefits:   []string{"Aligned expectations", "Early issue detection"},
			Points:     30,
			Severity:   model.SeverityLow,
		},
	}
)

// soloThreshold is the headcount below which people practices are not scored.
const soloThreshold = 2

// People scores HR practices and retention.
type People struct{}

func (People) ID() string   { return "people" }
func (People) Name() string { return "People Analyst" }

func (People) Analyze(answers model.AnswerSet, _ model.SessionContext) (*model.AnalyzerResult, error) {
	res := newResult()

	employees, hasEmployees := answers.Number("Q_HR_001")
	if hasEmployees && employees < soloThreshold {
		// A sole trader has no team to train or review; report a neutral score.
		res.Dimensions[model.DimPeopleMaturity] = 50
		return res, nil
	}

	score := capabilityScore(res, answers, model.DimPeopleMaturity, peopleCapabilities)
	score += lookup(turnoverPoints, answers, "Q_HR_003", turnoverPoints["medium"])
	score = clamp(score)
	res.Dimensions[model.DimPeopleMaturity] = score

	levelInsight(res, model.DimPeopleMaturity, score,
		"Mature people practices",
		"People practices are underdeveloped")

	if answers.String("Q_HR_003", "") == "high" {
		msg := "Staff turnover is high."
		if reason := answers.String("Q_HR_DD_001", ""); reason != "" {
			msg = fmt.Sprintf("Staff turnover is high; the main reason given is %s.", reason)
		}
		res.Alerts = append(res.Alerts, model.Alert{
			Severity:       model.SeverityHigh,
			Title:          "High staff turnover",
			Message:        msg,
			Recommendation: "Run exit interviews and address the leading cause before hiring more.",
		})
		res.SWOT.Threats = append(res.SWOT.Threats, "Loss of know-how through turnover")
	}
	return res, nil
}
