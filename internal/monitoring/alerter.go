package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/assessment-cli/internal/config"
	"github.com/sells-group/assessment-cli/internal/resilience"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertAbandonRate         AlertType = "abandon_rate"
	AlertAnalyzerFailureRate AlertType = "analyzer_failure_rate"
	AlertStaleSessions       AlertType = "stale_sessions"
)

// Minimum sample sizes before a rate alert fires.
const (
	minEndedSessions = 5
	minAnalyzerRuns  = 10
)

// Alert is one operational alert sent to the webhook.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter evaluates a MetricsSnapshot against configured thresholds and
// posts alerts to a webhook.
type Alerter struct {
	cfg    config.MonitoringConfig
	client *http.Client
	retry  resilience.Policy
}

// NewAlerter creates an Alerter with the given monitoring config.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		retry:  resilience.DefaultPolicy("monitoring.webhook"),
	}
}

// Evaluate checks the snapshot against thresholds and returns any alerts.
func (a *Alerter) Evaluate(snap *MetricsSnapshot) []Alert {
	var alerts []Alert
	now := time.Now().UTC()

	ended := snap.SessionsCompleted + snap.SessionsAbandoned
	if ended >= minEndedSessions && a.cfg.AbandonRateThreshold > 0 && snap.AbandonRate > a.cfg.AbandonRateThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertAbandonRate,
			Severity: "medium",
			Message: fmt.Sprintf(
				"Session abandon rate %.1f%% exceeds threshold %.1f%% (%d abandoned / %d ended in last %dh)",
				snap.AbandonRate*100, a.cfg.AbandonRateThreshold*100,
				snap.SessionsAbandoned, ended, snap.LookbackHours,
			),
			Details: map[string]any{
				"abandon_rate": snap.AbandonRate,
				"threshold":    a.cfg.AbandonRateThreshold,
				"abandoned":    snap.SessionsAbandoned,
				"ended":        ended,
			},
			Timestamp: now,
		})
	}

	if snap.AnalyzerRuns >= minAnalyzerRuns && a.cfg.AnalyzerFailureThreshold > 0 &&
		snap.AnalyzerFailureRate > a.cfg.AnalyzerFailureThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertAnalyzerFailureRate,
			Severity: "high",
			Message: fmt.Sprintf(
				"Analyzer failure rate %.1f%% exceeds threshold %.1f%% (%d failed / %d runs in last %dh)",
				snap.AnalyzerFailureRate*100, a.cfg.AnalyzerFailureThreshold*100,
				snap.AnalyzerFailures, snap.AnalyzerRuns, snap.LookbackHours,
			),
			Details: map[string]any{
				"failure_rate": snap.AnalyzerFailureRate,
				"threshold":    a.cfg.AnalyzerFailureThreshold,
				"failed":       snap.AnalyzerFailures,
				"runs":         snap.AnalyzerRuns,
			},
			Timestamp: now,
		})
	}

	if snap.StaleSessions > 0 {
		alerts = append(alerts, Alert{
			Type:     AlertStaleSessions,
			Severity: "low",
			Message: fmt.Sprintf(
				"%d in-progress session(s) without activity for %dh",
				snap.StaleSessions, snap.StaleHours,
			),
			Details: map[string]any{
				"stale_sessions": snap.StaleSessions,
				"stale_hours":    snap.StaleHours,
			},
			Timestamp: now,
		})
	}

	return alerts
}

// SendAlerts delivers alerts to the configured webhook URL and returns the
// number delivered.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		err := resilience.Do(ctx, a.retry, func(ctx context.Context) error {
			return a.sendWebhook(ctx, alert)
		})
		if err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

// sendWebhook posts a single alert. Retryable statuses come back as
// resilience.TransientError.
func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		err := eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			wait := resilience.ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
			return resilience.NewTransientError(err, resp.StatusCode).WithRetryAfter(wait)
		}
		return err
	}
	return nil
}
