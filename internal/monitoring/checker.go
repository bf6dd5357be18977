// Package monitoring watches prediction health and raises webhook alerts.
package monitoring

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/flash-cli/internal/config"
)

// Checker runs periodic alert checks in the background.
type Checker struct {
	collector *Collector
	alerter   *Alerter
	cfg       config.MonitoringConfig
}

// NewChecker creates a background alert checker.
func NewChecker(collector *Collector, alerter *Alerter, cfg config.MonitoringConfig) *Checker {
	return &Checker{
		collector: collector,
		alerter:   alerter,
		cfg:       cfg,
	}
}

// Run checks once immediately and then on every interval. It blocks until
// ctx is cancelled.
func (c *Checker) Run(ctx context.Context) {
	interval := time.Duration(c.cfg.CheckIntervalSecs) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	log := zap.L().Named("monitoring")
	log.Info("alert checker started",
		zap.Duration("interval", interval),
		zap.Int("lookback_hours", c.cfg.LookbackWindowHours),
		zap.Float64("degraded_rate_threshold", c.cfg.DegradedRateThreshold),
		zap.Bool("webhook", c.cfg.WebhookURL != ""),
	)

	if ctx.Err() == nil {
		c.Check(ctx)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("alert checker stopped")
			return
		case <-ticker.C:
			c.Check(ctx)
		}
	}
}

// Check collects one snapshot and sends any alerts it triggers. It returns
// the alerts raised.
func (c *Checker) Check(ctx context.Context) []Alert {
	log := zap.L().Named("monitoring")

	snap, err := c.collector.Collect(ctx, c.cfg.LookbackWindowHours)
	if err != nil {
		log.Error("collect metrics", zap.Error(err))
		return nil
	}

	alerts := c.alerter.Evaluate(snap)
	if len(alerts) == 0 {
		log.Debug("no alerts", zap.Int("submissions", snap.SubmissionTotal))
		return nil
	}

	sent := c.alerter.SendAlerts(ctx, alerts)
	log.Warn("alerts raised",
		zap.Int("alerts_triggered", len(alerts)),
		zap.Int("alerts_sent", sent),
		zap.Float64("degraded_rate", snap.DegradedRate),
	)
	return alerts
}
