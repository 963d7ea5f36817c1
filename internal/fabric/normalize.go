// Package fabric implements the monitoring core: normalization of raw
// controller records, TTL-cached fetching, health classification, and
// fabric-wide aggregation.
package fabric

import (
	"strconv"
	"time"

	"github.com/tamersaid2022/sdwan-health-monitor/pkg/models"
)

// The controller exposes the same logical field under different names
// depending on API version and device family. Each normalizer tries an
// ordered candidate list per field, takes the first key present, and
// falls back to a type-appropriate default. Coercion failures count as
// absent: upstream data quality is untrusted but must never crash the
// pipeline.

// NormalizeDevice maps a raw device record to a DeviceHealth.
func NormalizeDevice(raw map[string]any) models.DeviceHealth {
	expected := intField(raw, "expectedControlConnections", "control-connections-expected")
	if expected == 0 {
		expected = models.DefaultControlConnections
	}

	return models.DeviceHealth{
		DeviceID:                   stringField(raw, "deviceId", "system-ip"),
		Hostname:                   stringFieldOr(raw, "Unknown", "host-name", "hostname"),
		SiteID:                     stringField(raw, "site-id", "siteId"),
		Status:                     stringFieldOr(raw, "unknown", "status", "reachability"),
		Reachability:               models.Reachability(stringFieldOr(raw, "unknown", "reachability")),
		CPUPercent:                 floatField(raw, "cpuLoad", "cpu-load"),
		MemoryPercent:              floatField(raw, "memUsage", "mem-usage"),
		DiskPercent:                floatField(raw, "diskUsage", "disk-usage"),
		ControlConnections:         intField(raw, "controlConnections", "control-connections"),
		ControlConnectionsExpected: expected,
		TunnelsUp:                  intField(raw, "omp-peers-up", "bfd-sessions-up"),
		TunnelsTotal:               intField(raw, "omp-peers", "bfd-sessions"),
		Uptime:                     stringField(raw, "uptime-date", "uptime"),
		Version:                    stringField(raw, "version"),
		Model:                      stringField(raw, "device-model", "model"),
		BoardSerial:                stringField(raw, "board-serial", "serialNumber"),
		LastUpdated:                time.Now().UTC(),
	}
}

// NormalizeTunnel maps a raw BFD session record to a TunnelHealth.
func NormalizeTunnel(raw map[string]any) models.TunnelHealth {
	return models.TunnelHealth{
		SourceIP:    stringField(raw, "local-system-ip", "src-ip"),
		DestIP:      stringField(raw, "remote-system-ip", "dst-ip"),
		SourceColor: stringField(raw, "local-color"),
		DestColor:   stringField(raw, "remote-color", "color"),
		State:       models.TunnelState(stringFieldOr(raw, "unknown", "state")),
		SourceSite:  stringField(raw, "site-id"),
		DestSite:    stringField(raw, "remote-site-id"),
		LatencyMs:   floatField(raw, "average-latency", "latency"),
		JitterMs:    floatField(raw, "average-jitter", "jitter"),
		LossPercent: floatField(raw, "loss", "loss-percentage"),
		TxBytes:     int64(floatField(raw, "tx-octets")),
		RxBytes:     int64(floatField(raw, "rx-octets")),
		LastUpdated: time.Now().UTC(),
	}
}

// NormalizeAlarm maps a raw alarm record to an Alarm.
func NormalizeAlarm(raw map[string]any) models.Alarm {
	return models.Alarm{
		AlarmID:      stringField(raw, "uuid", "alarm_id"),
		Severity:     models.AlarmSeverity(stringFieldOr(raw, string(models.AlarmUnknown), "severity")),
		Type:         stringField(raw, "type"),
		RuleName:     stringField(raw, "ruleName", "rule-name-display"),
		Component:    stringField(raw, "component"),
		DeviceID:     stringField(raw, "system-ip", "deviceId"),
		Hostname:     stringFieldOr(raw, "Unknown", "host-name", "hostname"),
		Message:      stringField(raw, "message", "eventname"),
		Timestamp:    millisField(raw, "entry_time"),
		Acknowledged: boolField(raw, "acknowledged"),
	}
}

// stringField returns the first present candidate coerced to a string,
// or "" when none is present. Numeric values are stringified: site IDs
// arrive as numbers from some API versions.
func stringField(raw map[string]any, keys ...string) string {
	return stringFieldOr(raw, "", keys...)
}

func stringFieldOr(raw map[string]any, def string, keys ...string) string {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if t != "" {
				return t
			}
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64)
		case int:
			return strconv.Itoa(t)
		case int64:
			return strconv.FormatInt(t, 10)
		}
	}
	return def
}

// floatField returns the first present candidate coerced to a float64.
// Strings are parsed; anything unparseable counts as absent.
func floatField(raw map[string]any, keys ...string) float64 {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case float64:
			return t
		case int:
			return float64(t)
		case int64:
			return float64(t)
		case string:
			if f, err := strconv.ParseFloat(t, 64); err == nil {
				return f
			}
		}
	}
	return 0
}

func intField(raw map[string]any, keys ...string) int {
	return int(floatField(raw, keys...))
}

func boolField(raw map[string]any, keys ...string) bool {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case bool:
			return t
		case string:
			return t == "true"
		}
	}
	return false
}

// millisField interprets the first present candidate as epoch
// milliseconds. Returns the zero time when absent or unparseable.
func millisField(raw map[string]any, keys ...string) time.Time {
	ms := floatField(raw, keys...)
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(int64(ms)).UTC()
}
