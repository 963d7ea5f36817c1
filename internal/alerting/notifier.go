package alerting

import (
	"context"

	"github.com/tamersaid2022/sdwan-health-monitor/pkg/models"
)

// Notifier delivers alert notifications through a specific channel type.
// Delivery is best-effort: the evaluator never fails because a channel did.
type Notifier interface {
	// Notify sends a single alert notification.
	Notify(ctx context.Context, alert models.Alert) error
	// Type returns the notifier type identifier (e.g. "slack").
	Type() string
}
