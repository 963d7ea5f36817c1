package fabric

import (
	"testing"

	"github.com/tamersaid2022/sdwan-health-monitor/internal/alerting"
	"github.com/tamersaid2022/sdwan-health-monitor/pkg/models"
)

func TestClassify(t *testing.T) {
	th := alerting.DefaultThresholds()

	tests := []struct {
		name   string
		device models.DeviceHealth
		want   models.HealthStatus
	}{
		{
			name: "healthy",
			device: models.DeviceHealth{
				Reachability: models.Reachable, CPUPercent: 40, MemoryPercent: 50,
				ControlConnections: 2, ControlConnectionsExpected: 2,
			},
			want: models.StatusHealthy,
		},
		{
			name: "unreachable dominates low metrics",
			device: models.DeviceHealth{
				Reachability: models.Unreachable, CPUPercent: 10, MemoryPercent: 10,
				ControlConnections: 2, ControlConnectionsExpected: 2,
			},
			want: models.StatusCritical,
		},
		{
			name: "unknown reachability is critical",
			device: models.DeviceHealth{
				Reachability: models.ReachUnknown,
			},
			want: models.StatusCritical,
		},
		{
			name: "cpu critical",
			device: models.DeviceHealth{
				Reachability: models.Reachable, CPUPercent: 92,
				ControlConnections: 2, ControlConnectionsExpected: 2,
			},
			want: models.StatusCritical,
		},
		{
			name: "memory critical beats cpu warning",
			device: models.DeviceHealth{
				Reachability: models.Reachable, CPUPercent: 75, MemoryPercent: 96,
				ControlConnections: 2, ControlConnectionsExpected: 2,
			},
			want: models.StatusCritical,
		},
		{
			name: "cpu warning",
			device: models.DeviceHealth{
				Reachability: models.Reachable, CPUPercent: 75, MemoryPercent: 50,
				ControlConnections: 2, ControlConnectionsExpected: 2,
			},
			want: models.StatusWarning,
		},
		{
			name: "degraded control plane",
			device: models.DeviceHealth{
				Reachability: models.Reachable, CPUPercent: 40, MemoryPercent: 50,
				ControlConnections: 1, ControlConnectionsExpected: 2,
			},
			want: models.StatusWarning,
		},
		{
			name: "exact warning boundary",
			device: models.DeviceHealth{
				Reachability: models.Reachable, CPUPercent: 70,
				ControlConnections: 2, ControlConnectionsExpected: 2,
			},
			want: models.StatusWarning,
		},
		{
			name: "exact critical boundary",
			device: models.DeviceHealth{
				Reachability: models.Reachable, MemoryPercent: 95,
				ControlConnections: 2, ControlConnectionsExpected: 2,
			},
			want: models.StatusCritical,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.device, th); got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassify_CustomThresholds(t *testing.T) {
	th := alerting.Thresholds{
		alerting.MetricCPU:    {Warning: 50, Critical: 80},
		alerting.MetricMemory: {Warning: 50, Critical: 80},
	}
	d := models.DeviceHealth{
		Reachability: models.Reachable, CPUPercent: 60,
		ControlConnections: 2, ControlConnectionsExpected: 2,
	}
	if got := Classify(d, th); got != models.StatusWarning {
		t.Errorf("Classify() = %q, want warning with lowered thresholds", got)
	}
}
