package analyzer

import "github.com/sells-group/assessment-cli/internal/model"

var (
	websiteCapability = capability{
		QuestionID: "Q_DIG_001",
		Service:    "business website",
		Importance: "Most customers look a business up online before buying; no website means invisible to them.",
		Benefits:   []string{"Online visibility", "Credibility", "Lead capture"},
		Points:     30,
		Severity:   model.SeverityHigh,
	}
	mobileCapability = capability{
		QuestionID: "Q_DIG_002",
		Service:    "mobile-friendly website",
		Importance: "Over half of web traffic is mobile; a site that breaks on phones loses those visitors.",
		Benefits:   []string{"Better search ranking", "Higher mobile conversion"},
		Points:     15,
	}
	digitalCapabilities = []capability{
		{
			QuestionID: "Q_DIG_003",
			Service:    "e-commerce channel",
			Importance: "Selling online extends reach beyond opening hours and local customers.",
			Benefits:   []string{"New revenue channel", "24/7 sales"},
			Points:     15,
			Severity:   model.SeverityLow,
		},
		{
			QuestionID: "Q_SOC_001",
			Service:    "social media presence",
			Importance: "Social channels are where many customers discover and talk about businesses.",
			Benefits:   []string{"Brand awareness", "Direct customer engagement"},
			Points:     15,
		},
		{
			QuestionID: "Q_TEC_002",
			Service:    "cloud-based tooling",
			Importance: "Cloud tools cut maintenance costs and let the team work from anywhere.",
			Benefits:   []string{"Lower IT overhead", "Remote access", "Automatic backups"},
			Points:     25,
			Severity:   model.SeverityLow,
		},
	}
)

// Digital scores online presence and tooling.
type Digital struct{}

func (Digital) ID() string   { return "digital" }
func (Digital) Name() string { return "Digital Analyst" }

func (Digital) Analyze(answers model.AnswerSet, _ model.SessionContext) (*model.AnalyzerResult, error) {
	res := newResult()

	caps := []capability{websiteCapability}
	// Mobile readiness is only a gap when there is a website to speak of.
	if answers.YesNo(websiteCapability.QuestionID) {
		caps = append(caps, mobileCapability)
	}
	caps = append(caps, digitalCapabilities...)

	score := capabilityScore(res, answers, model.DimDigitalMaturity, caps)
	if len(answers.List("Q_SOC_002")) >= 3 {
		res.SWOT.Strengths = append(res.SWOT.Strengths, "Active on several social platforms")
	}
	score = clamp(score)
	res.Dimensions[model.DimDigitalMaturity] = score

	levelInsight(res, model.DimDigitalMaturity, score,
		"Strong digital presence",
		"Limited digital presence")

	if !answers.YesNo("Q_DIG_003") {
		res.SWOT.Opportunities = append(res.SWOT.Opportunities, "Open an online sales channel")
	}
	return res, nil
}
