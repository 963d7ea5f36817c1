package fabric

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tamersaid2022/sdwan-health-monitor/internal/alerting"
	"github.com/tamersaid2022/sdwan-health-monitor/pkg/models"
)

// ErrNotFound is returned by targeted lookups for unknown entity IDs.
var ErrNotFound = errors.New("not found")

// Cache keys, one per upstream resource kind.
const (
	resourceDevices = "devices"
	resourceTunnels = "tunnels"
	resourceAlarms  = "alarms"
)

// DataSource produces raw controller records. Every call may fail with a
// network or auth error; the monitor treats failure as "no data this
// cycle", never as fatal.
type DataSource interface {
	FetchDevices(ctx context.Context) ([]map[string]any, error)
	FetchDeviceStatus(ctx context.Context) ([]map[string]any, error)
	FetchTunnelSessions(ctx context.Context) ([]map[string]any, error)
	FetchAlarms(ctx context.Context, activeOnly bool) ([]map[string]any, error)
	Acknowledge(ctx context.Context, alarmID string) error
}

// Evaluator receives every freshly normalized record for threshold
// evaluation. Defined consumer-side; *alerting.Manager satisfies it.
type Evaluator interface {
	EvaluateDevice(ctx context.Context, d models.DeviceHealth) []models.Alert
	EvaluateTunnel(ctx context.Context, t models.TunnelHealth) []models.Alert
}

// Config holds the monitor's polling and cache-freshness settings.
type Config struct {
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	DeviceTTL       time.Duration `mapstructure:"device_ttl"`
	TunnelTTL       time.Duration `mapstructure:"tunnel_ttl"`
	AlarmTTL        time.Duration `mapstructure:"alarm_ttl"`
}

// DefaultConfig returns the documented default intervals.
func DefaultConfig() Config {
	return Config{
		RefreshInterval: 60 * time.Second,
		DeviceTTL:       30 * time.Second,
		TunnelTTL:       30 * time.Second,
		AlarmTTL:        15 * time.Second,
	}
}

// Monitor orchestrates the fetch -> normalize -> cache -> evaluate ->
// aggregate pipeline. It is constructed once with its dependencies and
// shared by the publisher loop and the query handlers; all mutable state
// lives behind the cache's locks.
type Monitor struct {
	source     DataSource
	evaluator  Evaluator
	thresholds alerting.Thresholds
	cfg        Config
	cache      *Cache
	logger     *zap.Logger

	now func() time.Time
}

// NewMonitor creates a fabric monitor. evaluator may be nil to disable
// alert generation.
func NewMonitor(source DataSource, evaluator Evaluator, thresholds alerting.Thresholds, cfg Config, logger *zap.Logger) *Monitor {
	if cfg.RefreshInterval == 0 {
		cfg = DefaultConfig()
	}
	if thresholds == nil {
		thresholds = alerting.DefaultThresholds()
	}
	return &Monitor{
		source:     source,
		evaluator:  evaluator,
		thresholds: thresholds,
		cfg:        cfg,
		cache:      NewCache(logger.Named("cache")),
		logger:     logger,
		now:        time.Now,
	}
}

// Devices returns the cached, normalized device collection, refetching
// when the freshness window has expired. On upstream failure the last
// good collection is served.
func (m *Monitor) Devices(ctx context.Context) []models.DeviceHealth {
	devices, _ := GetOrFetch(ctx, m.cache, resourceDevices, m.cfg.DeviceTTL, false, m.fetchDevices)
	return devices
}

// Device returns a single device by ID. The linear scan is bounded by
// fabric size, fine for hundreds of devices.
func (m *Monitor) Device(ctx context.Context, id string) (models.DeviceHealth, error) {
	for _, d := range m.Devices(ctx) {
		if d.DeviceID == id {
			return d, nil
		}
	}
	return models.DeviceHealth{}, fmt.Errorf("device %s: %w", id, ErrNotFound)
}

// Tunnels returns the cached, normalized tunnel collection.
func (m *Monitor) Tunnels(ctx context.Context) []models.TunnelHealth {
	tunnels, _ := GetOrFetch(ctx, m.cache, resourceTunnels, m.cfg.TunnelTTL, false, m.fetchTunnels)
	return tunnels
}

// Alarms returns the cached, normalized active-alarm collection.
func (m *Monitor) Alarms(ctx context.Context) []models.Alarm {
	alarms, _ := GetOrFetch(ctx, m.cache, resourceAlarms, m.cfg.AlarmTTL, false, m.fetchAlarms)
	return alarms
}

// FabricHealth folds the three cached collections into the fabric-wide
// summary. The summary is recomputed from scratch on every call; nothing
// is incrementally maintained, so counts cannot drift.
func (m *Monitor) FabricHealth(ctx context.Context) models.FabricHealth {
	devices := m.Devices(ctx)
	m.Tunnels(ctx) // keeps the tunnel window fresh and evaluated
	alarms := m.Alarms(ctx)

	health := models.FabricHealth{
		TotalDevices:  len(devices),
		SLACompliance: 100.0,
	}

	for _, d := range devices {
		switch Classify(d, m.thresholds) {
		case models.StatusHealthy:
			health.HealthyDevices++
		case models.StatusWarning:
			health.WarningDevices++
		case models.StatusCritical:
			health.CriticalDevices++
		}
		if d.Reachability != models.Reachable {
			health.UnreachableDevices++
		}
		health.TotalTunnels += d.TunnelsTotal
		health.TunnelsUp += d.TunnelsUp
	}
	health.TunnelsDown = health.TotalTunnels - health.TunnelsUp

	health.TotalAlarms = len(alarms)
	for _, a := range alarms {
		switch a.Severity {
		case models.AlarmCritical:
			health.CriticalAlarms++
		case models.AlarmMajor:
			health.MajorAlarms++
		case models.AlarmMinor:
			health.MinorAlarms++
		}
	}

	// No tunnels means vacuously compliant.
	if health.TotalTunnels > 0 {
		health.SLACompliance = float64(health.TunnelsUp) / float64(health.TotalTunnels) * 100
	}

	health.LastUpdated = m.now().UTC()
	return health
}

// Refresh forces a refetch of all three resources regardless of
// freshness. Used at startup to warm the cache.
func (m *Monitor) Refresh(ctx context.Context) {
	_, _ = GetOrFetch(ctx, m.cache, resourceDevices, m.cfg.DeviceTTL, true, m.fetchDevices)
	_, _ = GetOrFetch(ctx, m.cache, resourceTunnels, m.cfg.TunnelTTL, true, m.fetchTunnels)
	_, _ = GetOrFetch(ctx, m.cache, resourceAlarms, m.cfg.AlarmTTL, true, m.fetchAlarms)
}

// AcknowledgeAlarm delegates acknowledgment to the controller. The local
// alarm cache is not mutated; the next fetch cycle reflects the new
// state.
func (m *Monitor) AcknowledgeAlarm(ctx context.Context, alarmID string) error {
	if err := m.source.Acknowledge(ctx, alarmID); err != nil {
		return fmt.Errorf("acknowledge alarm %s: %w", alarmID, err)
	}
	return nil
}

// fetchDevices pulls the device inventory and the status feed, overlays
// status fields onto each inventory record, and normalizes. Evaluation
// runs here, inside the cache refresh, so one observation window is
// evaluated exactly once no matter how many callers arrive.
func (m *Monitor) fetchDevices(ctx context.Context) ([]models.DeviceHealth, error) {
	raw, err := m.source.FetchDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch devices: %w", err)
	}

	// The status feed enriches but never gates the inventory.
	status, err := m.source.FetchDeviceStatus(ctx)
	if err != nil {
		m.logger.Warn("device status fetch failed, using inventory fields only", zap.Error(err))
		status = nil
	}
	statusIndex := make(map[string]map[string]any, len(status))
	for _, s := range status {
		if id := stringField(s, "deviceId", "system-ip"); id != "" {
			statusIndex[id] = s
		}
	}

	devices := make([]models.DeviceHealth, 0, len(raw))
	for _, r := range raw {
		merged := make(map[string]any, len(r))
		for k, v := range r {
			merged[k] = v
		}
		// Status fields take precedence over inventory fields.
		if s, ok := statusIndex[stringField(r, "deviceId", "system-ip")]; ok {
			for k, v := range s {
				merged[k] = v
			}
		}

		d := NormalizeDevice(merged)
		if m.evaluator != nil {
			m.evaluator.EvaluateDevice(ctx, d)
		}
		devices = append(devices, d)
	}

	m.logger.Info("collected device metrics", zap.Int("devices", len(devices)))
	return devices, nil
}

func (m *Monitor) fetchTunnels(ctx context.Context) ([]models.TunnelHealth, error) {
	raw, err := m.source.FetchTunnelSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch tunnel sessions: %w", err)
	}

	tunnels := make([]models.TunnelHealth, 0, len(raw))
	for _, r := range raw {
		t := NormalizeTunnel(r)
		if m.evaluator != nil {
			m.evaluator.EvaluateTunnel(ctx, t)
		}
		tunnels = append(tunnels, t)
	}

	m.logger.Info("collected tunnel metrics", zap.Int("tunnels", len(tunnels)))
	return tunnels, nil
}

func (m *Monitor) fetchAlarms(ctx context.Context) ([]models.Alarm, error) {
	raw, err := m.source.FetchAlarms(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("fetch alarms: %w", err)
	}

	alarms := make([]models.Alarm, 0, len(raw))
	for _, r := range raw {
		alarms = append(alarms, NormalizeAlarm(r))
	}
	return alarms, nil
}
