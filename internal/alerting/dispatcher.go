package alerting

import (
	"context"

	"go.uber.org/zap"

	"github.com/tamersaid2022/sdwan-health-monitor/internal/event"
	"github.com/tamersaid2022/sdwan-health-monitor/pkg/models"
)

// Dispatcher fans alert events out to the configured notification
// channels. Delivery failures are logged and never propagated.
type Dispatcher struct {
	notifiers []Notifier
	logger    *zap.Logger
}

// NewDispatcher creates a dispatcher over the given channels.
func NewDispatcher(notifiers []Notifier, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{notifiers: notifiers, logger: logger}
}

// HandleAlertEvent processes an alert event from the bus and delivers the
// alert to every channel.
func (d *Dispatcher) HandleAlertEvent(ctx context.Context, e event.Event) {
	alert, ok := e.Payload.(models.Alert)
	if !ok {
		d.logger.Warn("unexpected payload type for alert event", zap.String("topic", e.Topic))
		return
	}

	for _, n := range d.notifiers {
		if err := n.Notify(ctx, alert); err != nil {
			d.logger.Warn("notification delivery failed",
				zap.String("channel", n.Type()),
				zap.String("alert_id", alert.ID),
				zap.Error(err),
			)
			continue
		}
		d.logger.Debug("notification delivered",
			zap.String("channel", n.Type()),
			zap.String("alert_id", alert.ID),
		)
	}
}
