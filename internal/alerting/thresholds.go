package alerting

// Monitored metric names. These key the threshold table and appear in
// generated alerts.
const (
	MetricCPU           = "cpu"
	MetricMemory        = "memory"
	MetricReachability  = "reachability"
	MetricTunnelLoss    = "tunnel_loss"
	MetricTunnelLatency = "tunnel_latency"
)

// Tier holds the warning and critical cut-offs for one metric.
type Tier struct {
	Warning  float64 `mapstructure:"warning"`
	Critical float64 `mapstructure:"critical"`
}

// Thresholds maps metric names to their alert tiers.
type Thresholds map[string]Tier

// DefaultThresholds returns the documented default threshold table.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MetricCPU:           {Warning: 70, Critical: 90},
		MetricMemory:        {Warning: 75, Critical: 95},
		MetricTunnelLoss:    {Warning: 1, Critical: 5},
		MetricTunnelLatency: {Warning: 150, Critical: 300},
	}
}

// For returns the tier for a metric, falling back to the default table
// when the metric is not configured.
func (t Thresholds) For(metric string) Tier {
	if tier, ok := t[metric]; ok {
		return tier
	}
	return DefaultThresholds()[metric]
}
