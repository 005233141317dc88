package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/assessment-cli/internal/model"
	"github.com/sells-group/assessment-cli/internal/store"
)

// MetricsSnapshot holds a point-in-time view of session health.
type MetricsSnapshot struct {
	// Sessions created within the lookback window, by status.
	SessionsTotal      int     `json:"sessions_total"`
	SessionsDraft      int     `json:"sessions_draft"`
	SessionsInProgress int     `json:"sessions_in_progress"`
	SessionsCompleted  int     `json:"sessions_completed"`
	SessionsAbandoned  int     `json:"sessions_abandoned"`
	AbandonRate        float64 `json:"abandon_rate"`

	// In-progress sessions of any age with no update for StaleAfter.
	StaleSessions int `json:"stale_sessions"`

	// Analysis results appended within the lookback window.
	ResultsTotal        int     `json:"results_total"`
	AnalyzerRuns        int     `json:"analyzer_runs"`
	AnalyzerFailures    int     `json:"analyzer_failures"`
	AnalyzerFailureRate float64 `json:"analyzer_failure_rate"`
	AvgComposite        float64 `json:"avg_composite"`

	LookbackHours int       `json:"lookback_hours"`
	StaleHours    int       `json:"stale_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// SessionSource is the subset of store.Store the collector reads.
type SessionSource interface {
	ListSessions(ctx context.Context, filter store.SessionFilter) ([]model.AssessmentSession, error)
	ListAnalysisResults(ctx context.Context, filter store.ResultFilter) ([]model.AnalysisResult, error)
}

// collectLimit bounds each listing.
const collectLimit = 10000

// Collector gathers session metrics from the store.
type Collector struct {
	source SessionSource
	now    func() time.Time
}

// NewCollector creates a new metrics collector.
func NewCollector(source SessionSource) *Collector {
	return &Collector{source: source, now: time.Now}
}

// Collect gathers a snapshot over the lookback window. Sessions in progress
// with no update for staleHours count as stale; staleHours <= 0 disables
// the stale check.
func (c *Collector) Collect(ctx context.Context, lookbackHours, staleHours int) (*MetricsSnapshot, error) {
	now := c.now().UTC()
	snap := &MetricsSnapshot{
		LookbackHours: lookbackHours,
		StaleHours:    staleHours,
		CollectedAt:   now,
	}
	cutoff := now.Add(-time.Duration(lookbackHours) * time.Hour)

	sessions, err := c.source.ListSessions(ctx, store.SessionFilter{CreatedAfter: cutoff, Limit: collectLimit})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list sessions")
	}
	snap.SessionsTotal = len(sessions)
	for _, s := range sessions {
		switch s.Status {
		case model.SessionDraft:
			snap.SessionsDraft++
		case model.SessionInProgress:
			snap.SessionsInProgress++
		case model.SessionCompleted:
			snap.SessionsCompleted++
		case model.SessionAbandoned:
			snap.SessionsAbandoned++
		}
	}
	if ended := snap.SessionsCompleted + snap.SessionsAbandoned; ended > 0 {
		snap.AbandonRate = float64(snap.SessionsAbandoned) / float64(ended)
	}

	if staleHours > 0 {
		stale, err := c.source.ListSessions(ctx, store.SessionFilter{
			Status:        model.SessionInProgress,
			UpdatedBefore: now.Add(-time.Duration(staleHours) * time.Hour),
			Limit:         collectLimit,
		})
		if err != nil {
			return nil, eris.Wrap(err, "monitoring: list stale sessions")
		}
		snap.StaleSessions = len(stale)
	}

	results, err := c.source.ListAnalysisResults(ctx, store.ResultFilter{CreatedAfter: cutoff, Limit: collectLimit})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list analysis results")
	}
	snap.ResultsTotal = len(results)
	var composite float64
	for _, r := range results {
		snap.AnalyzerRuns += len(r.Analyzers.Succeeded) + len(r.Analyzers.Failed)
		snap.AnalyzerFailures += len(r.Analyzers.Failed)
		composite += r.Score.Composite
	}
	if snap.AnalyzerRuns > 0 {
		snap.AnalyzerFailureRate = float64(snap.AnalyzerFailures) / float64(snap.AnalyzerRuns)
	}
	if snap.ResultsTotal > 0 {
		snap.AvgComposite = composite / float64(snap.ResultsTotal)
	}

	return snap, nil
}
