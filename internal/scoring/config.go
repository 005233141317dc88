// Package scoring turns merged dimension scores into one composite score and
// a maturity label.
package scoring

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/assessment-cli/internal/config"
	"github.com/sells-group/assessment-cli/internal/model"
)

// DefaultConfig returns the scoring configuration used when none is loaded.
func DefaultConfig() config.ScoringConfig {
	return config.ScoringConfig{
		Weights: map[string]float64{
			model.DimStrategyMaturity:     1,
			model.DimDigitalMaturity:      1,
			model.DimMarketingMaturity:    1,
			model.DimSalesEffectiveness:   1,
			model.DimFinancialHealth:      1.5,
			model.DimOperationsEfficiency: 1,
			model.DimPeopleMaturity:       1,
			model.DimCustomerExperience:   1,
			model.DimRiskScore:            1,
			model.DimInnovationIndex:      0.5,
		},
		Inverted: []string{model.DimRiskScore},
		Bands: config.BandsConfig{
			Initial:    20,
			Developing: 40,
			Defined:    60,
			Managed:    80,
		},
	}
}

// ValidateConfig checks that a ScoringConfig is internally consistent.
func ValidateConfig(c config.ScoringConfig) error {
	var errs []string

	names := make([]string, 0, len(c.Weights))
	for name := range c.Weights {
		names = append(names, name)
	}
	sort.Strings(names)
	var sum float64
	for _, name := range names {
		w := c.Weights[name]
		if w < 0 {
			errs = append(errs, fmt.Sprintf("weight %s must be >= 0", name))
		}
		sum += w
	}
	if len(c.Weights) > 0 && sum <= 0 {
		errs = append(errs, "weight sum must be > 0")
	}

	bands := []struct {
		name string
		v    float64
	}{
		{"initial", c.Bands.Initial},
		{"developing", c.Bands.Developing},
		{"defined", c.Bands.Defined},
		{"managed", c.Bands.Managed},
	}
	prev := 0.0
	for _, b := range bands {
		if b.v < 0 || b.v > 100 {
			errs = append(errs, fmt.Sprintf("band %s must be between 0 and 100", b.name))
		}
		if b.v < prev {
			errs = append(errs, fmt.Sprintf("band %s must be >= the previous band", b.name))
		}
		prev = b.v
	}

	if len(errs) > 0 {
		return eris.Errorf("scoring: invalid config: %s", strings.Join(errs, "; "))
	}
	return nil
}
