package analyzer

import "github.com/sells-group/assessment-cli/internal/model"

var strategyCapabilities = []capability{
	{
		QuestionID: "Q_STR_001",
		Service:    "written business plan",
		Importance: "A written plan aligns the team on priorities and is required by most lenders and investors.",
		Benefits:   []string{"Clear priorities", "Easier access to financing", "Measurable milestones"},
		Points:     30,
		Severity:   model.SeverityHigh,
	},
	{
		QuestionID: "Q_STR_002",
		Service:    "defined business goals",
		Importance: "Without explicit goals, effort and budget drift toward whatever is urgent instead of what matters.",
		Benefits:   []string{"Focused investment", "Shared direction"},
		Points:     25,
		Severity:   model.SeverityHigh,
	},
	{
		QuestionID: "Q_STR_004",
		Service:    "KPI tracking",
		Importance: "Tracking a few key indicators shows early whether the strategy is working.",
		Benefits:   []string{"Early warning on performance", "Data-driven decisions"},
		Points:     25,
	},
}

var planningHorizon = map[string]float64{
	"none":    0,
	"1_year":  10,
	"3_years": 20,
	"5_years": 20,
}

// Strategy scores planning discipline.
type Strategy struct{}

func (Strategy) ID() string   { return "strategy" }
func (Strategy) Name() string { return "Strategy Analyst" }

func (Strategy) Analyze(answers model.AnswerSet, _ model.SessionContext) (*model.AnalyzerResult, error) {
	res := newResult()

	score := capabilityScore(res, answers, model.DimStrategyMaturity, strategyCapabilities)
	score += lookup(planningHorizon, answers, "Q_STR_003", 0)
	score = clamp(score)
	res.Dimensions[model.DimStrategyMaturity] = score

	levelInsight(res, model.DimStrategyMaturity, score,
		"Clear strategic direction backed by planning",
		"Strategy is informal and largely unplanned")

	if answers.YesNo("Q_STR_001") && !answers.YesNo("Q_STR_004") {
		res.SWOT.Opportunities = append(res.SWOT.Opportunities,
			"Attach measurable KPIs to the existing business plan")
	}
	return res, nil
}
