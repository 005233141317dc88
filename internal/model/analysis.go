package model

import "time"

// Severity grades insights and alerts.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// InsightType classifies an analyzer observation.
type InsightType string

const (
	InsightStrength          InsightType = "strength"
	InsightWeakness          InsightType = "weakness"
	InsightMissingCapability InsightType = "missing_capability"
)

// Canonical dimension names shared across analyzers.
const (
	DimStrategyMaturity     = "strategy_maturity"
	DimDigitalMaturity      = "digital_maturity"
	DimMarketingMaturity    = "marketing_maturity"
	DimSalesEffectiveness   = "sales_effectiveness"
	DimFinancialHealth      = "financial_health"
	DimOperationsEfficiency = "operations_efficiency"
	DimPeopleMaturity       = "people_maturity"
	DimCustomerExperience   = "customer_experience"
	DimRiskScore            = "risk_score"
	DimInnovationIndex      = "innovation_index"
)

// CapabilityGap describes a tracked capability the business lacks. Every
// analyzer reports gaps in this shape.
type CapabilityGap struct {
	Service    string   `json:"service"`
	Importance string   `json:"importance"`
	Benefits   []string `json:"benefits"`
}

// Insight is one structured observation from an analyzer.
type Insight struct {
	Type        InsightType    `json:"type"`
	Dimension   string         `json:"dimension"`
	Severity    Severity       `json:"severity"`
	Explanation string         `json:"explanation"`
	Gap         *CapabilityGap `json:"gap,omitempty"`
}

// AlertSourceContradiction tags alerts raised by the contradiction detector.
const AlertSourceContradiction = "contradiction"

// Alert is a severity-tagged warning about a risky or contradictory condition.
type Alert struct {
	Severity       Severity `json:"severity"`
	Title          string   `json:"title"`
	Message        string   `json:"message"`
	Recommendation string   `json:"recommendation"`
	// Source is the analyzer ID, or AlertSourceContradiction.
	Source string `json:"source,omitempty"`
}

// SWOT holds strengths, weaknesses, opportunities and threats.
type SWOT struct {
	Strengths     []string `json:"strengths"`
	Weaknesses    []string `json:"weaknesses"`
	Opportunities []string `json:"opportunities"`
	Threats       []string `json:"threats"`
}

// Append concatenates each list of other onto s.
func (s *SWOT) Append(other *SWOT) {
	if other == nil {
		return
	}
	s.Strengths = append(s.Strengths, other.Strengths...)
	s.Weaknesses = append(s.Weaknesses, other.Weaknesses...)
	s.Opportunities = append(s.Opportunities, other.Opportunities...)
	s.Threats = append(s.Threats, other.Threats...)
}

// AnalyzerResult is the ephemeral output of a single analyzer.
type AnalyzerResult struct {
	Dimensions map[string]float64 `json:"dimensions"`
	Insights   []Insight          `json:"insights"`
	Alerts     []Alert            `json:"alerts"`
	SWOT       *SWOT              `json:"swot,omitempty"`
}

// AttributedInsight is an insight tagged with the analyzer that produced it.
type AttributedInsight struct {
	Insight
	AnalyzerID   string `json:"analyzer_id"`
	AnalyzerName string `json:"analyzer_name"`
}

// AnalyzerFailure records an analyzer whose contribution was skipped.
type AnalyzerFailure struct {
	AnalyzerID string `json:"analyzer_id"`
	Error      string `json:"error"`
}

// AnalyzerRun summarizes which analyzers contributed to a result.
type AnalyzerRun struct {
	Succeeded []string          `json:"succeeded"`
	Failed    []AnalyzerFailure `json:"failed,omitempty"`
}

// MaturityLevel is the label attached to a composite score.
type MaturityLevel string

const (
	MaturityInitial    MaturityLevel = "initial"
	MaturityDeveloping MaturityLevel = "developing"
	MaturityDefined    MaturityLevel = "defined"
	MaturityManaged    MaturityLevel = "managed"
	MaturityOptimized  MaturityLevel = "optimized"
)

// ScoreSummary is the normalized composite score.
type ScoreSummary struct {
	Composite      float64       `json:"composite"`
	Maturity       MaturityLevel `json:"maturity"`
	DimensionCount int           `json:"dimension_count"`
}

// RecommendationTier is the planning horizon of a recommendation.
type RecommendationTier string

const (
	TierStrategic RecommendationTier = "strategic"
	TierTactical  RecommendationTier = "tactical"
	TierExecution RecommendationTier = "execution"
)

// Priority ranks recommendations.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Recommendation is one actionable item in a report.
type Recommendation struct {
	Tier           RecommendationTier `json:"tier"`
	Title          string             `json:"title"`
	Rationale      string             `json:"rationale,omitempty"`
	Action         string             `json:"action,omitempty"`
	Benefits       []string           `json:"benefits,omitempty"`
	Priority       Priority           `json:"priority"`
	Order          int                `json:"order"`
	SourceAnalyzer string             `json:"source_analyzer,omitempty"`
}

// RecommendationTiers partitions recommendations by tier.
type RecommendationTiers struct {
	Strategic []Recommendation `json:"strategic"`
	Tactical  []Recommendation `json:"tactical"`
	Execution []Recommendation `json:"execution"`
}

// Count returns the number of recommendations across all tiers.
func (t RecommendationTiers) Count() int {
	return len(t.Strategic) + len(t.Tactical) + len(t.Execution)
}

// AnalysisResult is the persisted output of one pipeline run. Results are
// append-only: re-running analysis creates a new record.
type AnalysisResult struct {
	ID              string              `json:"id"`
	SessionID       string              `json:"session_id"`
	Dimensions      map[string]float64  `json:"dimensions"`
	Insights        []AttributedInsight `json:"insights"`
	Alerts          []Alert             `json:"alerts"`
	SWOT            SWOT                `json:"swot"`
	Score           ScoreSummary        `json:"score"`
	Recommendations RecommendationTiers `json:"recommendations"`
	Analyzers       AnalyzerRun         `json:"analyzers"`
	CreatedAt       time.Time           `json:"created_at"`
}
