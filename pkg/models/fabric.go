package models

import "time"

// FabricHealth is the fabric-wide summary: device, tunnel, and alarm
// counts rolled up at aggregation time. It is always derived from the
// current collections, never incrementally maintained.
type FabricHealth struct {
	TotalDevices       int       `json:"total_devices"`
	HealthyDevices     int       `json:"healthy_devices"`
	WarningDevices     int       `json:"warning_devices"`
	CriticalDevices    int       `json:"critical_devices"`
	UnreachableDevices int       `json:"unreachable_devices"`
	TotalTunnels       int       `json:"total_tunnels"`
	TunnelsUp          int       `json:"tunnels_up"`
	TunnelsDown        int       `json:"tunnels_down"`
	TotalAlarms        int       `json:"total_alarms"`
	CriticalAlarms     int       `json:"critical_alarms"`
	MajorAlarms        int       `json:"major_alarms"`
	MinorAlarms        int       `json:"minor_alarms"`
	SLACompliance      float64   `json:"sla_compliance"`
	LastUpdated        time.Time `json:"last_updated"`
}
