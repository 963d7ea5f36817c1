// Package demo provides a self-contained data source for running the
// monitor without a controller. The fixture fabric is four edge devices
// across three sites: a healthy data-center pair, an unreachable branch,
// and a branch pinned at critical CPU. Metrics drift a little on every
// fetch so the dashboard looks alive.
package demo

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/tamersaid2022/sdwan-health-monitor/internal/fabric"
)

// Source implements fabric.DataSource from in-memory fixtures.
type Source struct {
	mu     sync.Mutex
	acked  map[string]bool
	rand   *rand.Rand
	jitter bool
}

var _ fabric.DataSource = (*Source)(nil)

// NewSource creates a demo source with metric jitter enabled.
func NewSource() *Source {
	return &Source{
		acked:  make(map[string]bool),
		rand:   rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
		jitter: true,
	}
}

// FetchDevices returns the fixture device inventory with jittered
// CPU and memory readings.
func (s *Source) FetchDevices(context.Context) ([]map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return []map[string]any{
		s.device("10.1.1.1", "DC-vEdge-01", "100", "reachable", 45, 62, 34, 2, 48, 48, "45 days", "vEdge-2000"),
		s.device("10.1.1.2", "DC-vEdge-02", "100", "reachable", 38, 58, 28, 2, 48, 48, "45 days", "vEdge-2000"),
		s.device("10.2.1.1", "BR-NYC-01", "200", "unreachable", 0, 0, 0, 0, 0, 24, "--", "vEdge-1000"),
		s.device("10.2.1.2", "BR-LAX-01", "201", "reachable", 94, 82, 45, 2, 24, 24, "12 days", "vEdge-1000"),
	}, nil
}

// FetchDeviceStatus returns nothing; the demo inventory already carries
// live metric fields.
func (s *Source) FetchDeviceStatus(context.Context) ([]map[string]any, error) {
	return nil, nil
}

// FetchTunnelSessions returns fixture BFD sessions between the sites.
func (s *Source) FetchTunnelSessions(context.Context) ([]map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return []map[string]any{
		s.tunnel("10.1.1.1", "10.2.1.2", "mpls", "mpls", "up", "100", "201", 42, 3, 0),
		s.tunnel("10.1.1.1", "10.2.1.2", "biz-internet", "biz-internet", "up", "100", "201", 68, 8, 0.4),
		s.tunnel("10.1.1.2", "10.2.1.2", "mpls", "mpls", "up", "100", "201", 45, 4, 0),
		s.tunnel("10.1.1.1", "10.2.1.1", "mpls", "mpls", "down", "100", "200", 0, 0, 100),
		s.tunnel("10.1.1.2", "10.2.1.1", "biz-internet", "biz-internet", "down", "100", "200", 0, 0, 100),
	}, nil
}

// FetchAlarms returns the fixture alarms minus any acknowledged ones
// when activeOnly is set.
func (s *Source) FetchAlarms(_ context.Context, activeOnly bool) ([]map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := []map[string]any{
		{
			"uuid": "demo-alarm-1", "severity": "Critical", "type": "System",
			"ruleName": "Control Connection Down", "component": "Control",
			"system-ip": "10.2.1.1", "host-name": "BR-NYC-01",
			"message":    "Control connection to vSmart lost",
			"entry_time": float64(time.Now().Add(-20 * time.Minute).UnixMilli()),
		},
		{
			"uuid": "demo-alarm-2", "severity": "Major", "type": "System",
			"ruleName": "High CPU", "component": "CPU",
			"system-ip": "10.2.1.2", "host-name": "BR-LAX-01",
			"message":    "CPU utilization above 90%",
			"entry_time": float64(time.Now().Add(-5 * time.Minute).UnixMilli()),
		},
	}

	alarms := make([]map[string]any, 0, len(all))
	for _, a := range all {
		id := a["uuid"].(string)
		if activeOnly && s.acked[id] {
			continue
		}
		a["acknowledged"] = s.acked[id]
		alarms = append(alarms, a)
	}
	return alarms, nil
}

// Acknowledge marks a fixture alarm acknowledged.
func (s *Source) Acknowledge(_ context.Context, alarmID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	known := map[string]bool{"demo-alarm-1": true, "demo-alarm-2": true}
	if !known[alarmID] {
		return fmt.Errorf("alarm %s not found", alarmID)
	}
	s.acked[alarmID] = true
	return nil
}

func (s *Source) device(id, hostname, site, reach string, cpu, mem, disk float64, control, tunUp, tunTotal int, uptime, model string) map[string]any {
	return map[string]any{
		"deviceId":           id,
		"host-name":          hostname,
		"site-id":            site,
		"status":             reach,
		"reachability":       reach,
		"cpuLoad":            s.drift(cpu, 3),
		"memUsage":           s.drift(mem, 2),
		"diskUsage":          disk,
		"controlConnections": float64(control),
		"bfd-sessions-up":    float64(tunUp),
		"bfd-sessions":       float64(tunTotal),
		"uptime":             uptime,
		"version":            "20.9.3",
		"device-model":       model,
	}
}

func (s *Source) tunnel(src, dst, srcColor, dstColor, state, srcSite, dstSite string, latency, jitter, loss float64) map[string]any {
	return map[string]any{
		"local-system-ip":  src,
		"remote-system-ip": dst,
		"local-color":      srcColor,
		"remote-color":     dstColor,
		"state":            state,
		"site-id":          srcSite,
		"remote-site-id":   dstSite,
		"average-latency":  s.drift(latency, 5),
		"average-jitter":   jitter,
		"loss":             loss,
	}
}

// drift nudges a nonzero reading by at most +/- span without letting it
// cross zero, so a warning device stays a warning device.
func (s *Source) drift(v, span float64) float64 {
	if !s.jitter || v == 0 {
		return v
	}
	d := v + (s.rand.Float64()*2-1)*span
	if d < 1 {
		d = 1
	}
	if d > 100 {
		d = 100
	}
	return d
}
