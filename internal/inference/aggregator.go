// Package inference runs the analyzer panel over an answer set and merges
// the per-analyzer results into one analysis.
package inference

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/assessment-cli/internal/analyzer"
	"github.com/sells-group/assessment-cli/internal/model"
	"github.com/sells-group/assessment-cli/internal/monitoring"
)

// Aggregator fans the answer set out to every analyzer and merges the
// results. It holds no per-run state and is safe for concurrent use.
type Aggregator struct {
	panel []analyzer.Analyzer
}

// NewAggregator creates an aggregator over panel. Panel order is the merge
// order.
func NewAggregator(panel []analyzer.Analyzer) *Aggregator {
	return &Aggregator{panel: panel}
}

// Panel returns the registered analyzers in merge order.
func (a *Aggregator) Panel() []analyzer.Analyzer {
	return a.panel
}

type outcome struct {
	res     *model.AnalyzerResult
	err     error
	elapsed time.Duration
}

// Run invokes every analyzer and merges their output into a partial
// AnalysisResult (dimensions, insights, alerts, SWOT and the analyzer run
// summary). A failing analyzer is logged and skipped. Run fails only when
// ctx is cancelled before the join or when no analyzer succeeds.
func (a *Aggregator) Run(ctx context.Context, answers model.AnswerSet, sctx model.SessionContext) (*model.AnalysisResult, error) {
	outcomes := make([]outcome, len(a.panel))

	g, gctx := errgroup.WithContext(ctx)
	for i, an := range a.panel {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				outcomes[i].err = err
				return nil
			}
			start := time.Now()
			res, err := analyze(an, answers, sctx)
			outcomes[i] = outcome{res: res, err: err, elapsed: time.Since(start)}
			return nil // analyzers fail soft
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "inference: run cancelled")
	}

	return merge(a.panel, outcomes)
}

// analyze calls an.Analyze, converting a panic into an error.
func analyze(an analyzer.Analyzer, answers model.AnswerSet, sctx model.SessionContext) (res *model.AnalyzerResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = eris.Errorf("inference: analyzer %s panicked: %v", an.ID(), r)
		}
	}()

	res, err = an.Analyze(answers, sctx)
	if err != nil {
		return nil, eris.Wrapf(err, "inference: analyzer %s", an.ID())
	}
	if res == nil {
		return nil, eris.Errorf("inference: analyzer %s returned no result", an.ID())
	}
	return res, nil
}

func merge(panel []analyzer.Analyzer, outcomes []outcome) (*model.AnalysisResult, error) {
	merged := &model.AnalysisResult{
		Dimensions: make(map[string]float64),
	}

	for i, an := range panel {
		o := outcomes[i]
		monitoring.AnalyzerDuration.WithLabelValues(an.ID()).Observe(o.elapsed.Seconds())

		if o.err != nil {
			zap.L().Warn("inference: analyzer failed, skipping contribution",
				zap.String("analyzer", an.ID()),
				zap.Error(o.err),
			)
			monitoring.AnalyzerFailures.WithLabelValues(an.ID()).Inc()
			merged.Analyzers.Failed = append(merged.Analyzers.Failed, model.AnalyzerFailure{
				AnalyzerID: an.ID(),
				Error:      o.err.Error(),
			})
			continue
		}

		res := o.res
		// Last writer wins on shared dimensions.
		for dim, v := range res.Dimensions {
			merged.Dimensions[dim] = v
		}
		for _, in := range res.Insights {
			merged.Insights = append(merged.Insights, model.AttributedInsight{
				Insight:      in,
				AnalyzerID:   an.ID(),
				AnalyzerName: an.Name(),
			})
		}
		for _, al := range res.Alerts {
			if al.Source == "" {
				al.Source = an.ID()
			}
			merged.Alerts = append(merged.Alerts, al)
		}
		merged.SWOT.Append(res.SWOT)
		merged.Analyzers.Succeeded = append(merged.Analyzers.Succeeded, an.ID())
	}

	if len(merged.Analyzers.Succeeded) == 0 {
		return nil, eris.Wrap(model.ErrNoAnalyzerContribution,
			fmt.Sprintf("inference: %d of %d analyzers failed", len(merged.Analyzers.Failed), len(panel)))
	}

	zap.L().Debug("inference: merged analyzer results",
		zap.Int("succeeded", len(merged.Analyzers.Succeeded)),
		zap.Int("failed", len(merged.Analyzers.Failed)),
		zap.Int("dimensions", len(merged.Dimensions)),
		zap.Int("insights", len(merged.Insights)),
		zap.Int("alerts", len(merged.Alerts)),
	)
	return merged, nil
}
