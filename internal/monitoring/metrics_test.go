package monitoring

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_Idempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, Register(reg))
	require.NoError(t, Register(reg))

	AnswersSubmitted.WithLabelValues("answered").Inc()
	count, err := testutil.GatherAndCount(reg, "assessment_answers_submitted_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRegister_Conflict(t *testing.T) {
	reg := prometheus.NewRegistry()
	clash := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "analyzer_failures_total",
		Help:      "Same name, different labels.",
	})
	require.NoError(t, reg.Register(clash))

	err := Register(reg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "monitoring: register metrics")
}

func TestCollectors_Lint(t *testing.T) {
	for _, c := range Collectors() {
		problems, err := testutil.CollectAndLint(c)
		require.NoError(t, err)
		assert.Empty(t, problems)
	}
}
