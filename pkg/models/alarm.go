package models

import "time"

// AlarmSeverity is the controller-assigned severity of an alarm.
type AlarmSeverity string

const (
	AlarmCritical AlarmSeverity = "Critical"
	AlarmMajor    AlarmSeverity = "Major"
	AlarmMinor    AlarmSeverity = "Minor"
	AlarmUnknown  AlarmSeverity = "Unknown"
)

// Rank orders severities for roll-up: Critical > Major > Minor > Unknown.
func (s AlarmSeverity) Rank() int {
	switch s {
	case AlarmCritical:
		return 3
	case AlarmMajor:
		return 2
	case AlarmMinor:
		return 1
	}
	return 0
}

// Alarm is an alarm record originating from the controller. The
// Acknowledged flag is the only field mutated after construction, via the
// controller-side acknowledge operation keyed by AlarmID.
type Alarm struct {
	AlarmID      string        `json:"alarm_id"`
	Severity     AlarmSeverity `json:"severity"`
	Type         string        `json:"type"`
	RuleName     string        `json:"rule_name"`
	Component    string        `json:"component"`
	DeviceID     string        `json:"device_id"`
	Hostname     string        `json:"hostname"`
	Message      string        `json:"message"`
	Timestamp    time.Time     `json:"timestamp"`
	Acknowledged bool          `json:"acknowledged"`
}
