// Package analyzer holds the expert panel: ten stateless analyzers that each
// turn the answer set into dimension scores, insights, alerts and SWOT
// fragments.
package analyzer

import (
	"github.com/sells-group/assessment-cli/internal/model"
)

// Analyzer is one member of the panel. Implementations must be deterministic
// and must not read another analyzer's output.
type Analyzer interface {
	ID() string
	Name() string
	Analyze(answers model.AnswerSet, sctx model.SessionContext) (*model.AnalyzerResult, error)
}

// DefaultPanel returns the ten analyzers in registration order. Order matters
// only for last-writer-wins on shared dimensions: finance and risk both write
// risk_score, and risk, registered later, wins.
func DefaultPanel() []Analyzer {
	return []Analyzer{
		Strategy{},
		Digital{},
		Marketing{},
		Sales{},
		Finance{},
		Operations{},
		People{},
		Customer{},
		Risk{},
		Innovation{},
	}
}
