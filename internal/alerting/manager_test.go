package alerting

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/tamersaid2022/sdwan-health-monitor/pkg/models"
)

func testThresholds() Thresholds {
	return Thresholds{
		MetricCPU:           {Warning: 70, Critical: 90},
		MetricMemory:        {Warning: 75, Critical: 95},
		MetricTunnelLoss:    {Warning: 1, Critical: 5},
		MetricTunnelLatency: {Warning: 150, Critical: 300},
	}
}

func reachableDevice(cpu, mem float64) models.DeviceHealth {
	return models.DeviceHealth{
		DeviceID:      "10.1.1.1",
		Hostname:      "dc-vedge-01",
		Reachability:  models.Reachable,
		CPUPercent:    cpu,
		MemoryPercent: mem,
	}
}

func TestEvaluateDevice_CriticalSuppressesWarning(t *testing.T) {
	m := NewManager(testThresholds(), nil, zap.NewNop())
	ctx := context.Background()

	alerts := m.EvaluateDevice(ctx, reachableDevice(95, 50))

	if len(alerts) != 1 {
		t.Fatalf("got %d alerts, want 1: %+v", len(alerts), alerts)
	}
	a := alerts[0]
	if a.Severity != models.SeverityCritical {
		t.Errorf("severity = %q, want critical", a.Severity)
	}
	if a.Metric != MetricCPU {
		t.Errorf("metric = %q, want cpu", a.Metric)
	}
	if a.Value != 95 || a.Threshold != 90 {
		t.Errorf("value/threshold = %v/%v, want 95/90", a.Value, a.Threshold)
	}
}

func TestEvaluateDevice_AllBelowWarning(t *testing.T) {
	m := NewManager(testThresholds(), nil, zap.NewNop())

	alerts := m.EvaluateDevice(context.Background(), reachableDevice(30, 40))

	if len(alerts) != 0 {
		t.Fatalf("got %d alerts, want 0: %+v", len(alerts), alerts)
	}
	if got := m.Active(0); len(got) != 0 {
		t.Errorf("active collection has %d entries, want 0", len(got))
	}
}

func TestEvaluateDevice_WarningTier(t *testing.T) {
	m := NewManager(testThresholds(), nil, zap.NewNop())

	alerts := m.EvaluateDevice(context.Background(), reachableDevice(75, 80))

	if len(alerts) != 2 {
		t.Fatalf("got %d alerts, want 2 (cpu + memory warning): %+v", len(alerts), alerts)
	}
	for _, a := range alerts {
		if a.Severity != models.SeverityWarning {
			t.Errorf("%s severity = %q, want warning", a.Metric, a.Severity)
		}
	}
}

func TestEvaluateDevice_UnreachableAlwaysCritical(t *testing.T) {
	m := NewManager(testThresholds(), nil, zap.NewNop())

	d := reachableDevice(10, 10)
	d.Reachability = models.Unreachable

	alerts := m.EvaluateDevice(context.Background(), d)

	if len(alerts) != 1 {
		t.Fatalf("got %d alerts, want 1: %+v", len(alerts), alerts)
	}
	if alerts[0].Metric != MetricReachability {
		t.Errorf("metric = %q, want reachability", alerts[0].Metric)
	}
	if alerts[0].Severity != models.SeverityCritical {
		t.Errorf("severity = %q, want critical", alerts[0].Severity)
	}
}

func TestEvaluateDevice_UnreachableIndependentOfMetrics(t *testing.T) {
	m := NewManager(testThresholds(), nil, zap.NewNop())

	d := reachableDevice(95, 96)
	d.Reachability = models.Unreachable

	alerts := m.EvaluateDevice(context.Background(), d)

	// cpu critical + memory critical + reachability critical.
	if len(alerts) != 3 {
		t.Fatalf("got %d alerts, want 3: %+v", len(alerts), alerts)
	}
	var reach int
	for _, a := range alerts {
		if a.Metric == MetricReachability {
			reach++
		}
	}
	if reach != 1 {
		t.Errorf("got %d reachability alerts, want exactly 1", reach)
	}
}

func TestEvaluateTunnel_Tiers(t *testing.T) {
	m := NewManager(testThresholds(), nil, zap.NewNop())
	ctx := context.Background()

	tests := []struct {
		name         string
		loss         float64
		latency      float64
		wantCount    int
		wantSeverity models.AlertSeverity
	}{
		{"clean", 0.1, 20, 0, ""},
		{"loss warning", 2.0, 20, 1, models.SeverityWarning},
		{"loss critical", 6.0, 20, 1, models.SeverityCritical},
		{"latency critical", 0.1, 400, 1, models.SeverityCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tun := models.TunnelHealth{
				SourceIP:    "10.1.1.1",
				DestIP:      "10.2.1.1",
				LossPercent: tt.loss,
				LatencyMs:   tt.latency,
			}
			alerts := m.EvaluateTunnel(ctx, tun)
			if len(alerts) != tt.wantCount {
				t.Fatalf("got %d alerts, want %d: %+v", len(alerts), tt.wantCount, alerts)
			}
			if tt.wantCount == 1 {
				if alerts[0].Severity != tt.wantSeverity {
					t.Errorf("severity = %q, want %q", alerts[0].Severity, tt.wantSeverity)
				}
				if alerts[0].Device != "10.1.1.1 -> 10.2.1.1" {
					t.Errorf("device = %q", alerts[0].Device)
				}
			}
		})
	}
}

func TestAcknowledge_ActiveOnlyNotHistory(t *testing.T) {
	m := NewManager(testThresholds(), nil, zap.NewNop())

	alerts := m.EvaluateDevice(context.Background(), reachableDevice(95, 50))
	id := alerts[0].ID

	if !m.Acknowledge(id) {
		t.Fatal("Acknowledge returned false for known id")
	}

	active := m.Active(0)
	if len(active) != 1 || !active[0].Acknowledged {
		t.Errorf("active alert not acknowledged: %+v", active)
	}

	history := m.History()
	if len(history) != 1 {
		t.Fatalf("history has %d entries, want 1", len(history))
	}
	if history[0].Acknowledged {
		t.Error("history entry acknowledged flag changed, want untouched")
	}
}

func TestAcknowledge_UnknownID(t *testing.T) {
	m := NewManager(testThresholds(), nil, zap.NewNop())
	if m.Acknowledge("nope") {
		t.Error("Acknowledge returned true for unknown id")
	}
}

func TestClearAcknowledged_RemovesFromActiveOnly(t *testing.T) {
	m := NewManager(testThresholds(), nil, zap.NewNop())
	ctx := context.Background()

	first := m.EvaluateDevice(ctx, reachableDevice(95, 50))
	m.EvaluateDevice(ctx, reachableDevice(75, 50))

	m.Acknowledge(first[0].ID)
	if removed := m.ClearAcknowledged(); removed != 1 {
		t.Errorf("ClearAcknowledged removed %d, want 1", removed)
	}

	if active := m.Active(0); len(active) != 1 {
		t.Errorf("active has %d entries after clear, want 1", len(active))
	}
	if history := m.History(); len(history) != 2 {
		t.Errorf("history has %d entries after clear, want 2", len(history))
	}
}

func TestActive_OrderAndLimit(t *testing.T) {
	m := NewManager(testThresholds(), nil, zap.NewNop())

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	step := 0
	m.now = func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Second)
	}

	ctx := context.Background()
	m.EvaluateDevice(ctx, reachableDevice(95, 50)) // oldest
	m.EvaluateDevice(ctx, reachableDevice(96, 50))
	m.EvaluateDevice(ctx, reachableDevice(97, 50)) // newest

	active := m.Active(2)
	if len(active) != 2 {
		t.Fatalf("got %d alerts, want 2", len(active))
	}
	if active[0].Value != 97 || active[1].Value != 96 {
		t.Errorf("order wrong: got values %v, %v; want 97, 96", active[0].Value, active[1].Value)
	}
}

func TestEvaluateDevice_ReEmitsEachCall(t *testing.T) {
	m := NewManager(testThresholds(), nil, zap.NewNop())
	ctx := context.Background()

	d := reachableDevice(95, 50)
	m.EvaluateDevice(ctx, d)
	m.EvaluateDevice(ctx, d)

	if got := len(m.History()); got != 2 {
		t.Errorf("history has %d entries after two evaluations, want 2", got)
	}
}
