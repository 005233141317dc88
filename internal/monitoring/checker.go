package monitoring

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/assessment-cli/internal/config"
)

const (
	defaultCheckInterval = 5 * time.Minute

	// alertCooldown suppresses repeat notifications of the same alert type.
	alertCooldown = time.Hour
)

// Checker periodically collects session health, evaluates it and notifies
// the webhook. A firing alert is re-sent at most once per alertCooldown.
type Checker struct {
	collector *Collector
	alerter   *Alerter
	cfg       config.MonitoringConfig
	now       func() time.Time

	mu       sync.Mutex
	notified map[AlertType]time.Time
	last     *MetricsSnapshot
}

// NewChecker wires a collector and alerter into a background checker.
func NewChecker(collector *Collector, alerter *Alerter, cfg config.MonitoringConfig) *Checker {
	return &Checker{
		collector: collector,
		alerter:   alerter,
		cfg:       cfg,
		now:       time.Now,
		notified:  make(map[AlertType]time.Time),
	}
}

// Run checks once immediately, then on every interval until ctx is done.
func (c *Checker) Run(ctx context.Context) {
	interval := time.Duration(c.cfg.CheckIntervalSecs) * time.Second
	if interval <= 0 {
		interval = defaultCheckInterval
	}

	log := zap.L().With(zap.String("component", "monitoring.checker"))
	log.Info("monitoring: checker started",
		zap.Duration("interval", interval),
		zap.Int("lookback_hours", c.cfg.LookbackWindowHours),
		zap.Int("stale_hours", c.cfg.StaleSessionHours),
	)

	if ctx.Err() == nil {
		c.Check(ctx)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("monitoring: checker stopped")
			return
		case <-ticker.C:
			c.Check(ctx)
		}
	}
}

// Check collects one snapshot and returns every alert it triggers. Only
// alerts outside their cooldown are sent.
func (c *Checker) Check(ctx context.Context) []Alert {
	log := zap.L().With(zap.String("component", "monitoring.checker"))

	snap, err := c.collector.Collect(ctx, c.cfg.LookbackWindowHours, c.cfg.StaleSessionHours)
	if err != nil {
		log.Error("monitoring: collect failed", zap.Error(err))
		return nil
	}

	alerts := c.alerter.Evaluate(snap)
	due := c.record(snap, alerts)
	if len(alerts) == 0 {
		log.Debug("monitoring: healthy",
			zap.Int("sessions", snap.SessionsTotal),
			zap.Float64("abandon_rate", snap.AbandonRate),
		)
		return nil
	}
	if len(due) == 0 {
		log.Debug("monitoring: alerts in cooldown", zap.Int("alerts", len(alerts)))
		return alerts
	}

	sent := c.alerter.SendAlerts(ctx, due)
	log.Info("monitoring: alerts evaluated",
		zap.Int("triggered", len(alerts)),
		zap.Int("due", len(due)),
		zap.Int("sent", sent),
	)
	return alerts
}

// Last returns the most recent snapshot, or nil before the first check.
func (c *Checker) Last() *MetricsSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// record stores snap and returns the alerts whose cooldown has elapsed,
// marking them notified. Alert types that stopped firing are reset.
func (c *Checker) record(snap *MetricsSnapshot, alerts []Alert) []Alert {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.last = snap
	now := c.now()

	firing := make(map[AlertType]bool, len(alerts))
	var due []Alert
	for _, a := range alerts {
		firing[a.Type] = true
		if at, ok := c.notified[a.Type]; ok && now.Sub(at) < alertCooldown {
			continue
		}
		c.notified[a.Type] = now
		due = append(due, a)
	}
	for t := range c.notified {
		if !firing[t] {
			delete(c.notified, t)
		}
	}
	return due
}
