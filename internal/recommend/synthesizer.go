// Package recommend converts insights and alerts into tiered
// recommendations.
package recommend

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/assessment-cli/internal/model"
)

var priorityRank = map[model.Priority]int{
	model.PriorityCritical: 0,
	model.PriorityHigh:     1,
	model.PriorityMedium:   2,
	model.PriorityLow:      3,
}

// Synthesizer builds recommendation tiers. Every missing-capability insight
// becomes one strategic item, every weakness one tactical item and every
// alert one execution item; nothing is dropped or merged.
type Synthesizer struct{}

// NewSynthesizer creates a Synthesizer.
func NewSynthesizer() *Synthesizer {
	return &Synthesizer{}
}

// Generate derives the three tiers from the merged insights and alerts of
// result.
func (*Synthesizer) Generate(result *model.AnalysisResult) model.RecommendationTiers {
	var tiers model.RecommendationTiers
	if result == nil {
		return tiers
	}

	for _, in := range result.Insights {
		switch in.Type {
		case model.InsightMissingCapability:
			tiers.Strategic = append(tiers.Strategic, strategic(in))
		case model.InsightWeakness:
			tiers.Tactical = append(tiers.Tactical, tactical(in))
		}
	}
	for _, a := range result.Alerts {
		tiers.Execution = append(tiers.Execution, execution(a))
	}

	order(tiers.Strategic)
	order(tiers.Tactical)
	order(tiers.Execution)
	return tiers
}

func strategic(in model.AttributedInsight) model.Recommendation {
	r := model.Recommendation{
		Tier:           model.TierStrategic,
		Rationale:      in.Explanation,
		Priority:       model.PriorityHigh,
		SourceAnalyzer: in.AnalyzerID,
	}
	service := dimensionLabel(in.Dimension)
	if in.Gap != nil {
		service = in.Gap.Service
		r.Rationale = in.Gap.Importance
		r.Benefits = append([]string(nil), in.Gap.Benefits...)
	}
	r.Title = fmt.Sprintf("Establish %s", service)
	return r
}

func tactical(in model.AttributedInsight) model.Recommendation {
	// Casers are stateful; build one per call.
	title := cases.Title(language.English)
	return model.Recommendation{
		Tier:           model.TierTactical,
		Title:          fmt.Sprintf("Improve %s", title.String(dimensionLabel(in.Dimension))),
		Rationale:      in.Explanation,
		Priority:       severityPriority(in.Severity),
		SourceAnalyzer: in.AnalyzerID,
	}
}

func execution(a model.Alert) model.Recommendation {
	return model.Recommendation{
		Tier:           model.TierExecution,
		Title:          fmt.Sprintf("Resolve: %s", a.Title),
		Rationale:      a.Message,
		Action:         a.Recommendation,
		Priority:       model.PriorityCritical,
		SourceAnalyzer: a.Source,
	}
}

func dimensionLabel(dim string) string {
	return strings.ReplaceAll(dim, "_", " ")
}

func severityPriority(s model.Severity) model.Priority {
	switch s {
	case model.SeverityCritical:
		return model.PriorityCritical
	case model.SeverityHigh:
		return model.PriorityHigh
	case model.SeverityLow:
		return model.PriorityLow
	default:
		return model.PriorityMedium
	}
}

// order stable-sorts by priority and assigns 1-based display order keys.
func order(recs []model.Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		return priorityRank[recs[i].Priority] < priorityRank[recs[j].Priority]
	})
	for i := range recs {
		recs[i].Order = i + 1
	}
}
