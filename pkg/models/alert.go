package models

import "time"

// AlertSeverity is the severity of an evaluator-generated alert.
// Distinct from AlarmSeverity: alerts are produced locally by threshold
// evaluation, alarms originate from the controller.
type AlertSeverity string

const (
	SeverityCritical AlertSeverity = "critical"
	SeverityWarning  AlertSeverity = "warning"
	SeverityInfo     AlertSeverity = "info"
)

// Alert is a threshold-breach record produced by the alert evaluator.
type Alert struct {
	ID           string        `json:"id"`
	Device       string        `json:"device"`
	Severity     AlertSeverity `json:"severity"`
	Metric       string        `json:"metric"`
	Value        float64       `json:"value"`
	Threshold    float64       `json:"threshold"`
	Message      string        `json:"message"`
	CreatedAt    time.Time     `json:"created_at"`
	Acknowledged bool          `json:"acknowledged"`
}
