package analyzer

import (
	"fmt"
	"math"

	"github.com/sells-group/assessment-cli/internal/model"
)

// Thresholds for the per-dimension strength and weakness insights.
const (
	strengthThreshold = 70.0
	weaknessThreshold = 40.0
	criticalThreshold = 20.0
)

// capability is a tracked yes/no capability. Points are added to the
// dimension score when present; a missing-capability insight is emitted when
// absent.
type capability struct {
	QuestionID string
	Service    string
	Importance string
	Benefits   []string
	Points     float64
	Severity   model.Severity
}

func newResult() *model.AnalyzerResult {
	return &model.AnalyzerResult{
		Dimensions: make(map[string]float64),
		SWOT:       &model.SWOT{},
	}
}

// capabilityScore sums the points of present capabilities and appends a
// missing-capability insight for each absent one. Missing answers count as
// "no".
func capabilityScore(res *model.AnalyzerResult, answers model.AnswerSet, dimension string, caps []capability) float64 {
	var points float64
	for _, c := range caps {
		if answers.YesNo(c.QuestionID) {
			points += c.Points
			continue
		}
		res.Insights = append(res.Insights, missingCapability(dimension, c))
	}
	return points
}

// missingCapability builds the uniform gap insight consumed by the
// recommendation synthesizer.
func missingCapability(dimension string, c capability) model.Insight {
	severity := c.Severity
	if severity == "" {
		severity = model.SeverityMedium
	}
	benefits := make([]string, len(c.Benefits))
	copy(benefits, c.Benefits)
	return model.Insight{
		Type:        model.InsightMissingCapability,
		Dimension:   dimension,
		Severity:    severity,
		Explanation: fmt.Sprintf("No %s in place.", c.Service),
		Gap: &model.CapabilityGap{
			Service:    c.Service,
			Importance: c.Importance,
			Benefits:   benefits,
		},
	}
}

// levelInsight adds a strength or weakness insight (and the matching SWOT
// entry) when score crosses a threshold. Scores in between add nothing.
func levelInsight(res *model.AnalyzerResult, dimension string, score float64, strength, weakness string) {
	switch {
	case score >= strengthThreshold:
		res.Insights = append(res.Insights, model.Insight{
			Type:        model.InsightStrength,
			Dimension:   dimension,
			Severity:    model.SeverityLow,
			Explanation: strength,
		})
		res.SWOT.Strengths = append(res.SWOT.Strengths, strength)
	case score < weaknessThreshold:
		severity := model.SeverityMedium
		if score < criticalThreshold {
			severity = model.SeverityHigh
		}
		res.Insights = append(res.Insights, model.Insight{
			Type:        model.InsightWeakness,
			Dimension:   dimension,
			Severity:    severity,
			Explanation: weakness,
		})
		res.SWOT.Weaknesses = append(res.SWOT.Weaknesses, weakness)
	}
}

// clamp bounds a score to [0, 100] and rounds it to two decimals.
func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	v = math.Max(0, math.Min(100, v))
	return math.Round(v*100) / 100
}

// ratio returns num/den, or 0 when den is not positive.
func ratio(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return num / den
}

// lookup returns table[key], or def for unknown and missing answers.
func lookup(table map[string]float64, answers model.AnswerSet, questionID string, def float64) float64 {
	if v, ok := table[answers.String(questionID, "")]; ok {
		return v
	}
	return def
}

// scaled maps a value in [lo, hi] linearly onto [0, points].
func scaled(v, lo, hi, points float64) float64 {
	if hi <= lo {
		return 0
	}
	f := (v - lo) / (hi - lo)
	return math.Max(0, math.Min(1, f)) * points
}
