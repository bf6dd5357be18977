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

	"github.com/sells-group/flash-cli/internal/config"
	"github.com/sells-group/flash-cli/internal/resilience"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertDegradedRate AlertType = "degraded_rate"
	AlertCircuitOpen  AlertType = "circuit_open"
)

const defaultMinSubmissions = 5

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter evaluates a MetricsSnapshot against configured thresholds
// and sends alerts via webhook when thresholds are breached.
type Alerter struct {
	cfg    config.MonitoringConfig
	client *http.Client
	retry  resilience.RetryConfig
}

// NewAlerter creates a new Alerter with the given monitoring config.
// Webhook deliveries that fail transiently are retried.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	retry := resilience.DefaultRetryConfig()
	retry.InitialBackoff = 500 * time.Millisecond
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		retry:  retry,
	}
}

// Evaluate checks the snapshot against thresholds and returns any alerts.
func (a *Alerter) Evaluate(snap *MetricsSnapshot) []Alert {
	var alerts []Alert
	now := time.Now().UTC()

	minSubs := a.cfg.MinSubmissions
	if minSubs <= 0 {
		minSubs = defaultMinSubmissions
	}
	unscored := snap.Degraded + snap.Failed
	if a.cfg.DegradedRateThreshold > 0 &&
		snap.SubmissionTotal >= minSubs &&
		snap.DegradedRate > a.cfg.DegradedRateThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertDegradedRate,
			Severity: "high",
			Message: fmt.Sprintf(
				"Degraded prediction rate %.1f%% exceeds threshold %.1f%% (%d of %d submissions in last %dh)",
				snap.DegradedRate*100, a.cfg.DegradedRateThreshold*100,
				unscored, snap.SubmissionTotal, snap.LookbackHours,
			),
			Details: map[string]any{
				"degraded_rate": snap.DegradedRate,
				"threshold":     a.cfg.DegradedRateThreshold,
				"degraded":      snap.Degraded,
				"failed":        snap.Failed,
				"total":         snap.SubmissionTotal,
			},
			Timestamp: now,
		})
	}

	if snap.CircuitState == resilience.CircuitOpen.String() {
		alerts = append(alerts, Alert{
			Type:      AlertCircuitOpen,
			Severity:  "critical",
			Message:   "Prediction backend circuit breaker is open",
			Details:   map[string]any{"circuit_state": snap.CircuitState},
			Timestamp: now,
		})
	}

	return alerts
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
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
			return resilience.NewTransientError(err, resp.StatusCode)
		}
		return err
	}
	return nil
}
