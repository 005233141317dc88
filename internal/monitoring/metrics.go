package monitoring

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"
)

const namespace = "assessment"

var (
	// AnalyzerFailures counts analyzer runs whose contribution was skipped.
	AnalyzerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyzer_failures_total",
			Help:      "Analyzer runs that failed and were skipped.",
		},
		[]string{"analyzer"},
	)

	AnalyzerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analyzer_duration_seconds",
			Help:      "Duration of a single analyzer run.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
		[]string{"analyzer"},
	)

	// SessionTransitions counts session state changes by target status.
	SessionTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_transitions_total",
			Help:      "Session lifecycle transitions by target status.",
		},
		[]string{"status"},
	)

	AnswersSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_submitted_total",
			Help:      "Answers stored, by kind (answered or skipped).",
		},
		[]string{"kind"},
	)

	AnalysisResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_results_total",
			Help:      "Analysis results appended, by trigger (complete or reanalyze).",
		},
		[]string{"trigger"},
	)

	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "route"},
	)
)

// Collectors returns every metric owned by this package.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		AnalyzerFailures,
		AnalyzerDuration,
		SessionTransitions,
		AnswersSubmitted,
		AnalysisResults,
		RequestCounter,
		RequestDuration,
	}
}

// Register adds all metrics to reg. Already-registered collectors are
// ignored so Register is safe to call more than once.
func Register(reg prometheus.Registerer) error {
	for _, c := range Collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return eris.Wrap(err, "monitoring: register metrics")
		}
	}
	return nil
}
