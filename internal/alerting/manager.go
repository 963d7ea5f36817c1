// Package alerting evaluates normalized fabric metrics against configured
// thresholds and maintains the active-alert and alert-history collections.
package alerting

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/tamersaid2022/sdwan-health-monitor/internal/event"
	"github.com/tamersaid2022/sdwan-health-monitor/pkg/models"
)

var alertsEmittedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "sdwan_alerts_emitted_total",
		Help: "Total number of alerts emitted by the evaluator.",
	},
	[]string{"severity"},
)

func init() {
	prometheus.MustRegister(alertsEmittedTotal)
}

// Manager evaluates device and tunnel metrics against thresholds and
// tracks the resulting alerts.
//
// Evaluation is deliberately memoryless: re-evaluating unchanged metrics
// emits a fresh alert each call, so the history shows every breached
// observation window. Suppression windows are a caller concern.
type Manager struct {
	thresholds Thresholds
	bus        *event.Bus
	logger     *zap.Logger

	mu      sync.Mutex
	active  []models.Alert
	history []models.Alert

	now func() time.Time
}

// NewManager creates an alert manager. bus may be nil, in which case no
// notification events are published.
func NewManager(thresholds Thresholds, bus *event.Bus, logger *zap.Logger) *Manager {
	if thresholds == nil {
		thresholds = DefaultThresholds()
	}
	return &Manager{
		thresholds: thresholds,
		bus:        bus,
		logger:     logger,
		now:        time.Now,
	}
}

// EvaluateDevice checks a device's metrics against the threshold table and
// returns the alerts generated by this evaluation. Each metric produces at
// most one alert per call: the critical tier suppresses the warning tier.
// Reachability failure always emits exactly one critical alert, independent
// of the resource metrics.
func (m *Manager) EvaluateDevice(ctx context.Context, d models.DeviceHealth) []models.Alert {
	var alerts []models.Alert

	if a := m.checkMetric(d.Hostname, MetricCPU, d.CPUPercent, "CPU at %.1f%% (threshold: %.0f%%)"); a != nil {
		alerts = append(alerts, *a)
	}
	if a := m.checkMetric(d.Hostname, MetricMemory, d.MemoryPercent, "Memory at %.1f%% (threshold: %.0f%%)"); a != nil {
		alerts = append(alerts, *a)
	}
	if d.Reachability != models.Reachable {
		alerts = append(alerts, models.Alert{
			ID:        uuid.NewString(),
			Device:    d.Hostname,
			Severity:  models.SeverityCritical,
			Metric:    MetricReachability,
			Value:     0,
			Threshold: 1,
			Message:   fmt.Sprintf("Device unreachable (status: %s)", d.Reachability),
			CreatedAt: m.now(),
		})
	}

	m.record(ctx, alerts)
	return alerts
}

// EvaluateTunnel checks a tunnel's loss and latency against the threshold
// table, with the same critical-suppresses-warning tiering as devices.
func (m *Manager) EvaluateTunnel(ctx context.Context, t models.TunnelHealth) []models.Alert {
	var alerts []models.Alert
	name := t.Name()

	if a := m.checkMetric(name, MetricTunnelLoss, t.LossPercent, "Tunnel loss at %.1f%% (threshold: %.0f%%)"); a != nil {
		alerts = append(alerts, *a)
	}
	if a := m.checkMetric(name, MetricTunnelLatency, t.LatencyMs, "Tunnel latency at %.0fms (threshold: %.0fms)"); a != nil {
		alerts = append(alerts, *a)
	}

	m.record(ctx, alerts)
	return alerts
}

// checkMetric applies the two-tier threshold check for one metric.
// Returns nil when the value is below the warning tier.
func (m *Manager) checkMetric(device, metric string, value float64, format string) *models.Alert {
	tier := m.thresholds.For(metric)

	var severity models.AlertSeverity
	var threshold float64
	switch {
	case value >= tier.Critical:
		severity, threshold = models.SeverityCritical, tier.Critical
	case value >= tier.Warning:
		severity, threshold = models.SeverityWarning, tier.Warning
	default:
		return nil
	}

	return &models.Alert{
		ID:        uuid.NewString(),
		Device:    device,
		Severity:  severity,
		Metric:    metric,
		Value:     value,
		Threshold: threshold,
		Message:   fmt.Sprintf(format, value, threshold),
		CreatedAt: m.now(),
	}
}

// record appends alerts to both the active and history collections and
// publishes a best-effort notification event per alert.
func (m *Manager) record(ctx context.Context, alerts []models.Alert) {
	if len(alerts) == 0 {
		return
	}

	m.mu.Lock()
	m.active = append(m.active, alerts...)
	m.history = append(m.history, alerts...)
	m.mu.Unlock()

	for i := range alerts {
		alertsEmittedTotal.WithLabelValues(string(alerts[i].Severity)).Inc()
		m.logger.Warn("alert raised",
			zap.String("device", alerts[i].Device),
			zap.String("metric", alerts[i].Metric),
			zap.String("severity", string(alerts[i].Severity)),
			zap.Float64("value", alerts[i].Value),
		)
		if m.bus != nil {
			m.bus.PublishAsync(ctx, event.Event{
				Topic:     event.TopicAlertTriggered,
				Source:    "alerting",
				Timestamp: alerts[i].CreatedAt,
				Payload:   alerts[i],
			})
		}
	}
}

// Active returns active alerts ordered by creation time descending,
// truncated to limit. limit <= 0 means no truncation.
func (m *Manager) Active(limit int) []models.Alert {
	m.mu.Lock()
	out := make([]models.Alert, len(m.active))
	copy(out, m.active)
	m.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// History returns a copy of the append-only alert history.
func (m *Manager) History() []models.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Alert, len(m.history))
	copy(out, m.history)
	return out
}

// Acknowledge sets the acknowledged flag on the active alert with the
// given ID. The corresponding history entry is left untouched. Returns
// false when no active alert matches.
func (m *Manager) Acknowledge(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.active {
		if m.active[i].ID == id {
			m.active[i].Acknowledged = true
			return true
		}
	}
	return false
}

// ClearAcknowledged removes every acknowledged alert from the active
// collection and returns the number removed. History is unaffected.
func (m *Manager) ClearAcknowledged() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.active[:0]
	removed := 0
	for _, a := range m.active {
		if a.Acknowledged {
			removed++
			continue
		}
		kept = append(kept, a)
	}
	m.active = kept
	return removed
}
