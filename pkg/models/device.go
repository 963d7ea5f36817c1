// Package models defines the shared, serializable data structures exchanged
// between the fabric core, the HTTP/WebSocket layer, and notification sinks.
package models

import "time"

// Reachability is the controller-reported liveness state of a device.
type Reachability string

const (
	Reachable    Reachability = "reachable"
	Unreachable  Reachability = "unreachable"
	ReachUnknown Reachability = "unknown"
)

// HealthStatus is the qualitative health classification of a device.
type HealthStatus string

const (
	StatusHealthy  HealthStatus = "healthy"
	StatusWarning  HealthStatus = "warning"
	StatusCritical HealthStatus = "critical"
)

// DefaultControlConnections is assumed when the controller does not report
// an expected control-connection count for a device.
const DefaultControlConnections = 2

// DeviceHealth is a point-in-time health record for a single SD-WAN edge
// device. Records are constructed fresh on every normalization pass and
// never mutated; the next fetch cycle supersedes them wholesale.
type DeviceHealth struct {
	DeviceID                   string       `json:"device_id"`
	Hostname                   string       `json:"hostname"`
	SiteID                     string       `json:"site_id"`
	Status                     string       `json:"status"`
	Reachability               Reachability `json:"reachability"`
	CPUPercent                 float64      `json:"cpu_percent"`
	MemoryPercent              float64      `json:"memory_percent"`
	DiskPercent                float64      `json:"disk_percent"`
	ControlConnections         int          `json:"control_connections"`
	ControlConnectionsExpected int          `json:"control_connections_expected"`
	TunnelsUp                  int          `json:"tunnels_up"`
	TunnelsTotal               int          `json:"tunnels_total"`
	Uptime                     string       `json:"uptime"`
	Version                    string       `json:"version"`
	Model                      string       `json:"model"`
	BoardSerial                string       `json:"board_serial"`
	LastUpdated                time.Time    `json:"last_updated"`
}
