package monitoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/assessment-cli/internal/config"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func testMonitoringConfig() config.MonitoringConfig {
	return config.MonitoringConfig{
		AbandonRateThreshold:     0.5,
		AnalyzerFailureThreshold: 0.1,
		StaleSessionHours:        72,
	}
}

func fastAlerter(cfg config.MonitoringConfig) *Alerter {
	a := NewAlerter(cfg)
	a.retry.Backoff = time.Millisecond
	a.retry.MaxBackoff = 2 * time.Millisecond
	a.retry.Jitter = 0
	return a
}

func TestAlerter_Evaluate_NoAlerts(t *testing.T) {
	a := NewAlerter(testMonitoringConfig())

	snap := &MetricsSnapshot{
		SessionsCompleted:   18,
		SessionsAbandoned:   2,
		AbandonRate:         0.1,
		AnalyzerRuns:        160,
		AnalyzerFailures:    1,
		AnalyzerFailureRate: 1.0 / 160,
		LookbackHours:       24,
	}

	assert.Empty(t, a.Evaluate(snap))
}

func TestAlerter_Evaluate_AbandonRate(t *testing.T) {
	a := NewAlerter(testMonitoringConfig())

	snap := &MetricsSnapshot{
		SessionsCompleted: 3,
		SessionsAbandoned: 7,
		AbandonRate:       0.7,
		LookbackHours:     24,
	}

	alerts := a.Evaluate(snap)
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertAbandonRate, alerts[0].Type)
	assert.Equal(t, "medium", alerts[0].Severity)
	assert.Contains(t, alerts[0].Message, "70.0%")
	assert.Equal(t, 10, alerts[0].Details["ended"])
}

func TestAlerter_Evaluate_AbandonRateSmallSample(t *testing.T) {
	a := NewAlerter(testMonitoringConfig())

	snap := &MetricsSnapshot{
		SessionsCompleted: 1,
		SessionsAbandoned: 3,
		AbandonRate:       0.75,
	}

	assert.Empty(t, a.Evaluate(snap))
}

func TestAlerter_Evaluate_AnalyzerFailureRate(t *testing.T) {
	a := NewAlerter(testMonitoringConfig())

	snap := &MetricsSnapshot{
		AnalyzerRuns:        40,
		AnalyzerFailures:    8,
		AnalyzerFailureRate: 0.2,
		LookbackHours:       24,
	}

	alerts := a.Evaluate(snap)
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertAnalyzerFailureRate, alerts[0].Type)
	assert.Equal(t, "high", alerts[0].Severity)
	assert.Contains(t, alerts[0].Message, "20.0%")
}

func TestAlerter_Evaluate_StaleSessions(t *testing.T) {
	a := NewAlerter(testMonitoringConfig())

	alerts := a.Evaluate(&MetricsSnapshot{StaleSessions: 4, StaleHours: 72})
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertStaleSessions, alerts[0].Type)
	assert.Equal(t, "low", alerts[0].Severity)
	assert.Contains(t, alerts[0].Message, "4 in-progress")
}

func TestAlerter_Evaluate_ZeroThresholdDisables(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{})

	snap := &MetricsSnapshot{
		SessionsCompleted:   1,
		SessionsAbandoned:   9,
		AbandonRate:         0.9,
		AnalyzerRuns:        20,
		AnalyzerFailures:    20,
		AnalyzerFailureRate: 1,
	}

	assert.Empty(t, a.Evaluate(snap))
}

func TestAlerter_SendAlerts(t *testing.T) {
	var received atomic.Int32
	var got Alert

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		received.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testMonitoringConfig()
	cfg.WebhookURL = srv.URL
	a := fastAlerter(cfg)

	sent := a.SendAlerts(context.Background(), []Alert{{
		Type:     AlertStaleSessions,
		Severity: "low",
		Message:  "2 stale",
	}})

	assert.Equal(t, 1, sent)
	assert.Equal(t, int32(1), received.Load())
	assert.Equal(t, AlertStaleSessions, got.Type)
}

func TestAlerter_SendAlerts_NoWebhook(t *testing.T) {
	a := NewAlerter(testMonitoringConfig())
	assert.Equal(t, 0, a.SendAlerts(context.Background(), []Alert{{Type: AlertStaleSessions}}))
}

func TestAlerter_SendAlerts_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	cfg := testMonitoringConfig()
	cfg.WebhookURL = srv.URL
	a := fastAlerter(cfg)

	// Retry-After is capped by the policy's MaxBackoff.
	start := time.Now()
	sent := a.SendAlerts(context.Background(), []Alert{{Type: AlertAbandonRate}})
	assert.Equal(t, 1, sent)
	assert.Equal(t, int32(2), calls.Load())
	assert.Less(t, time.Since(start), time.Second)
}

func TestAlerter_SendAlerts_PermanentStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	cfg := testMonitoringConfig()
	cfg.WebhookURL = srv.URL
	a := fastAlerter(cfg)

	sent := a.SendAlerts(context.Background(), []Alert{{Type: AlertAbandonRate}, {Type: AlertStaleSessions}})
	assert.Equal(t, 0, sent)
	assert.Equal(t, int32(2), calls.Load())
}
