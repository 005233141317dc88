package analyzer

import (
	"fmt"
	"math"

	"github.com/sells-group/assessment-cli/internal/model"
)

// Neutral values used when satisfaction or retention were not answered.
const (
	neutralSatisfaction = 5.0
	neutralRetention    = 50.0
)

var feedbackCapability = capability{
	QuestionID: "Q_CUS_001",
	Service:    "customer feedback collection",
	Importance: "Feedback is the cheapest way to learn why customers stay or leave.",
	Benefits:   []string{"Early churn signals", "Product ideas", "Better reviews"},
	Points:     30,
}

// Customer scores customer experience.
type Customer struct{}

func (Customer) ID() string   { return "customer" }
func (Customer) Name() string { return "Customer Experience Analyst" }

func (Customer) Analyze(answers model.AnswerSet, _ model.SessionContext) (*model.AnalyzerResult, error) {
	res := newResult()

	score := capabilityScore(res, answers, model.DimCustomerExperience, []capability{feedbackCapability})
	if answers.YesNo(feedbackCapability.QuestionID) {
		score += math.Min(float64(len(answers.List("Q_CUS_002"))), 3) * 5
	}

	satisfaction, hasSatisfaction := answers.Number("Q_CUS_003")
	if !hasSatisfaction {
		satisfaction = neutralSatisfaction
	}
	score += scaled(satisfaction, 0, 10, 35)
	score += scaled(answers.Float("Q_CUS_004", neutralRetention), 0, 100, 20)
	score = clamp(score)
	res.Dimensions[model.DimCustomerExperience] = score

	levelInsight(res, model.DimCustomerExperience, score,
		"Customers are satisfied and loyal",
		"Customer experience needs attention")

	if hasSatisfaction && satisfaction <= 4 {
		res.Alerts = append(res.Alerts, model.Alert{
			Severity:       model.SeverityHigh,
			Title:          "Low customer satisfaction",
			Message:        fmt.Sprintf("Customers rate satisfaction %.0f out of 10.", satisfaction),
			Recommendation: "Contact recent customers to find the top complaint and fix it first.",
		})
		res.SWOT.Threats = append(res.SWOT.Threats, "Dissatisfied customers may switch to competitors")
	}
	if hasSatisfaction && satisfaction >= 8 {
		res.SWOT.Opportunities = append(res.SWOT.Opportunities, "Turn satisfied customers into referrals")
	}
	return res, nil
}
