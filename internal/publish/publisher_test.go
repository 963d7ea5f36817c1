package publish

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/tamersaid2022/sdwan-health-monitor/internal/event"
	"github.com/tamersaid2022/sdwan-health-monitor/internal/fabric"
)

type staticSource struct {
	devices []map[string]any
}

func (s *staticSource) FetchDevices(context.Context) ([]map[string]any, error) {
	return s.devices, nil
}

func (s *staticSource) FetchDeviceStatus(context.Context) ([]map[string]any, error) {
	return nil, nil
}

func (s *staticSource) FetchTunnelSessions(context.Context) ([]map[string]any, error) {
	return nil, nil
}

func (s *staticSource) FetchAlarms(context.Context, bool) ([]map[string]any, error) {
	return nil, nil
}

func (s *staticSource) Acknowledge(context.Context, string) error { return nil }

func newTestPublisher(tick <-chan time.Time) (*Publisher, *event.Bus) {
	src := &staticSource{devices: []map[string]any{
		{"deviceId": "10.1.1.1", "reachability": "reachable", "bfd-sessions-up": float64(4), "bfd-sessions": float64(4)},
	}}
	logger := zap.NewNop()
	bus := event.NewBus(logger)
	monitor := fabric.NewMonitor(src, nil, nil, fabric.DefaultConfig(), logger)
	p := NewPublisher(monitor, bus, time.Minute, logger)
	p.tick = tick
	return p, bus
}

func TestPublisher_PublishesSnapshotOnTick(t *testing.T) {
	tick := make(chan time.Time)
	p, bus := newTestPublisher(tick)

	var mu sync.Mutex
	var got []Snapshot
	bus.Subscribe(event.TopicHealthUpdated, func(_ context.Context, e event.Event) {
		snap, ok := e.Payload.(Snapshot)
		if !ok {
			t.Errorf("payload type %T", e.Payload)
			return
		}
		mu.Lock()
		got = append(got, snap)
		mu.Unlock()
	})

	p.Start(context.Background())
	defer p.Stop()

	// Startup cycle plus two explicit ticks.
	tick <- time.Now()
	tick <- time.Now()
	p.Stop()

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 3 {
		t.Fatalf("snapshots = %d, want 3", len(got))
	}
	for i, snap := range got {
		if snap.Health.TotalDevices != 1 {
			t.Errorf("snapshot %d: TotalDevices = %d, want 1", i, snap.Health.TotalDevices)
		}
		if snap.Health.SLACompliance != 100.0 {
			t.Errorf("snapshot %d: SLACompliance = %v", i, snap.Health.SLACompliance)
		}
		if len(snap.Devices) != 1 {
			t.Errorf("snapshot %d: devices = %d", i, len(snap.Devices))
		}
	}
}

func TestPublisher_StopIsIdempotent(t *testing.T) {
	tick := make(chan time.Time)
	p, _ := newTestPublisher(tick)

	p.Start(context.Background())
	p.Stop()
	p.Stop()
}

func TestPublisher_StopViaParentContext(t *testing.T) {
	tick := make(chan time.Time)
	p, _ := newTestPublisher(tick)

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	cancel()

	select {
	case <-p.done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher did not stop after context cancellation")
	}
}

func TestNewPublisher_ClampsInterval(t *testing.T) {
	logger := zap.NewNop()
	monitor := fabric.NewMonitor(&staticSource{}, nil, nil, fabric.DefaultConfig(), logger)
	p := NewPublisher(monitor, event.NewBus(logger), time.Millisecond, logger)
	if p.interval != time.Second {
		t.Errorf("interval = %v, want clamped to 1s", p.interval)
	}
}
