package models

import "time"

// TunnelState is the operational state of an IPsec tunnel.
type TunnelState string

const (
	TunnelUp      TunnelState = "up"
	TunnelDown    TunnelState = "down"
	TunnelUnknown TunnelState = "unknown"
)

// TunnelHealth is a point-in-time health record for a single inter-site
// tunnel (one BFD session). Same construct-once lifecycle as DeviceHealth.
type TunnelHealth struct {
	SourceIP    string      `json:"source_ip"`
	DestIP      string      `json:"dest_ip"`
	SourceColor string      `json:"source_color"`
	DestColor   string      `json:"dest_color"`
	State       TunnelState `json:"state"`
	SourceSite  string      `json:"source_site"`
	DestSite    string      `json:"dest_site"`
	LatencyMs   float64     `json:"latency_ms"`
	JitterMs    float64     `json:"jitter_ms"`
	LossPercent float64     `json:"loss_percent"`
	TxBytes     int64       `json:"tx_bytes"`
	RxBytes     int64       `json:"rx_bytes"`
	LastUpdated time.Time   `json:"last_updated"`
}

// Name returns the tunnel's display identity ("source -> dest").
func (t TunnelHealth) Name() string {
	return t.SourceIP + " -> " + t.DestIP
}
