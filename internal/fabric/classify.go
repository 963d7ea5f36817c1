package fabric

import (
	"github.com/tamersaid2022/sdwan-health-monitor/internal/alerting"
	"github.com/tamersaid2022/sdwan-health-monitor/pkg/models"
)

// Classify computes the qualitative health status of a device. Rules are
// evaluated in escalation order and the first match wins: loss of
// reachability dominates resource pressure, which dominates control-plane
// degradation.
func Classify(d models.DeviceHealth, th alerting.Thresholds) models.HealthStatus {
	cpu := th.For(alerting.MetricCPU)
	mem := th.For(alerting.MetricMemory)

	switch {
	case d.Reachability != models.Reachable:
		return models.StatusCritical
	case d.CPUPercent >= cpu.Critical || d.MemoryPercent >= mem.Critical:
		return models.StatusCritical
	case d.CPUPercent >= cpu.Warning || d.MemoryPercent >= mem.Warning:
		return models.StatusWarning
	case d.ControlConnections < d.ControlConnectionsExpected:
		return models.StatusWarning
	default:
		return models.StatusHealthy
	}
}
