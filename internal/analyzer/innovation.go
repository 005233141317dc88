package analyzer

import "github.com/sells-group/assessment-cli/internal/model"

// neutralOpenness is used when technology openness was not answered.
const neutralOpenness = 3.0

var innovationCapabilities = []capability{
	{
		QuestionID: "Q_INN_001",
		Service:    "new product development",
		Importance: "Regular launches keep the offer relevant as customer needs shift.",
		Benefits:   []string{"New revenue streams", "Competitive differentiation"},
		Points:     35,
		Severity:   model.SeverityLow,
	},
	{
		QuestionID: "Q_INN_002",
		Service:    "R&D investment",
		Importance: "Even a small, steady R&D budget compounds into capabilities competitors lack.",
		Benefits:   []string{"Long-term differentiation", "Process improvements"},
		Points:     35,
		Severity:   model.SeverityLow,
	},
}

// Innovation scores the capacity to renew products and adopt technology.
type Innovation struct{}

func (Innovation) ID() string   { return "innovation" }
func (Innovation) Name() string { return "Innovation Analyst" }

func (Innovation) Analyze(answers model.AnswerSet, _ model.SessionContext) (*model.AnalyzerResult, error) {
	res := newResult()

	score := capabilityScore(res, answers, model.DimInnovationIndex, innovationCapabilities)
	openness := answers.Float("Q_INN_003", neutralOpenness)
	score += scaled(openness, 1, 5, 30)
	score = clamp(score)
	res.Dimensions[model.DimInnovationIndex] = score

	levelInsight(res, model.DimInnovationIndex, score,
		"Innovative and open to change",
		"Little investment in innovation")

	if openness >= 4 {
		res.SWOT.Opportunities = append(res.SWOT.Opportunities, "Team is ready to adopt new technology")
	}
	return res, nil
}
