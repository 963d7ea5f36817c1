// Package publish runs the periodic refresh loop. On every tick it
// forces a fabric refresh and publishes the resulting snapshot on the
// event bus for the WebSocket layer to fan out.
package publish

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tamersaid2022/sdwan-health-monitor/internal/event"
	"github.com/tamersaid2022/sdwan-health-monitor/internal/fabric"
	"github.com/tamersaid2022/sdwan-health-monitor/pkg/models"
)

// Snapshot is the payload published on fabric.health_updated.
type Snapshot struct {
	Health  models.FabricHealth   `json:"health"`
	Devices []models.DeviceHealth `json:"devices"`
	Alarms  []models.Alarm        `json:"alarms"`
}

// Publisher drives the refresh cycle.
type Publisher struct {
	monitor  *fabric.Monitor
	bus      *event.Bus
	interval time.Duration
	logger   *zap.Logger

	// tick overrides the ticker channel in tests.
	tick <-chan time.Time

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewPublisher creates a publisher. interval below one second is
// clamped; a tighter loop only burns the controller's session quota.
func NewPublisher(monitor *fabric.Monitor, bus *event.Bus, interval time.Duration, logger *zap.Logger) *Publisher {
	if interval < time.Second {
		interval = time.Second
	}
	return &Publisher{
		monitor:  monitor,
		bus:      bus,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start launches the refresh loop. An immediate first cycle warms the
// cache so the dashboard has data before the first interval elapses.
func (p *Publisher) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)

	go func() {
		defer close(p.done)

		p.logger.Info("publisher started", zap.Duration("interval", p.interval))
		p.cycle(ctx)

		tick := p.tick
		if tick == nil {
			ticker := time.NewTicker(p.interval)
			defer ticker.Stop()
			tick = ticker.C
		}

		for {
			select {
			case <-ctx.Done():
				p.logger.Info("publisher stopped")
				return
			case <-tick:
				p.cycle(ctx)
			}
		}
	}()
}

// Stop terminates the loop and waits for the in-flight cycle to finish.
func (p *Publisher) Stop() {
	p.once.Do(func() {
		if p.cancel != nil {
			p.cancel()
		}
		<-p.done
	})
}

// cycle forces a refresh and publishes the fabric snapshot.
func (p *Publisher) cycle(ctx context.Context) {
	p.monitor.Refresh(ctx)

	snapshot := Snapshot{
		Health:  p.monitor.FabricHealth(ctx),
		Devices: p.monitor.Devices(ctx),
		Alarms:  p.monitor.Alarms(ctx),
	}

	p.bus.Publish(ctx, event.Event{
		Topic:     event.TopicHealthUpdated,
		Source:    "publish",
		Timestamp: time.Now().UTC(),
		Payload:   snapshot,
	})
}
