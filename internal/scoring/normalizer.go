package scoring

import (
	"math"
	"slices"
	"sort"

	"github.com/sells-group/assessment-cli/internal/config"
	"github.com/sells-group/assessment-cli/internal/model"
)

// Normalizer computes the composite score. It is immutable after creation.
type Normalizer struct {
	cfg config.ScoringConfig
}

// NewNormalizer creates a Normalizer for cfg.
func NewNormalizer(cfg config.ScoringConfig) *Normalizer {
	return &Normalizer{cfg: cfg}
}

func (n *Normalizer) weight(dim string) float64 {
	if w, ok := n.cfg.Weights[dim]; ok {
		return w
	}
	return 1
}

// Score returns the weighted mean of the present dimensions, rounded to two
// decimals and clamped to [0, 100]. Inverted dimensions contribute 100 - v.
// Dimensions weighted 0 are ignored.
func (n *Normalizer) Score(dimensions map[string]float64) model.ScoreSummary {
	names := make([]string, 0, len(dimensions))
	for name := range dimensions {
		names = append(names, name)
	}
	// Fixed summation order keeps the float result reproducible.
	sort.Strings(names)

	var total, weights float64
	var count int
	for _, name := range names {
		w := n.weight(name)
		if w <= 0 {
			continue
		}
		v := math.Max(0, math.Min(100, dimensions[name]))
		if slices.Contains(n.cfg.Inverted, name) {
			v = 100 - v
		}
		total += v * w
		weights += w
		count++
	}

	var composite float64
	if weights > 0 {
		composite = math.Round(total/weights*100) / 100
		composite = math.Max(0, math.Min(100, composite))
	}

	return model.ScoreSummary{
		Composite:      composite,
		Maturity:       n.Maturity(composite),
		DimensionCount: count,
	}
}

// Maturity maps a composite score onto its band.
func (n *Normalizer) Maturity(score float64) model.MaturityLevel {
	b := n.cfg.Bands
	switch {
	case score < b.Initial:
		return model.MaturityInitial
	case score < b.Developing:
		return model.MaturityDeveloping
	case score < b.Defined:
		return model.MaturityDefined
	case score < b.Managed:
		return model.MaturityManaged
	default:
		return model.MaturityOptimized
	}
}
