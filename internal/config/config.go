// Package config loads application configuration and builds the logger.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file and environment variables.
// When configPath is empty, sdwanmon.yaml is searched in ., ./configs,
// and /etc/sdwanmon. Environment variables use the SDWAN prefix, e.g.
// SDWAN_VMANAGE_HOST overrides vmanage.host.
func Load(configPath string) (*viper.Viper, error) {
	v := viper.New()

	// Controller connection.
	v.SetDefault("vmanage.host", "")
	v.SetDefault("vmanage.port", 443)
	v.SetDefault("vmanage.username", "")
	v.SetDefault("vmanage.password", "")
	v.SetDefault("vmanage.verify_ssl", false)
	v.SetDefault("vmanage.timeout", "30s")

	// Polling and cache freshness. Alarms change faster than device or
	// tunnel inventories, so their window is narrower.
	v.SetDefault("monitor.refresh_interval", "60s")
	v.SetDefault("monitor.device_ttl", "30s")
	v.SetDefault("monitor.tunnel_ttl", "30s")
	v.SetDefault("monitor.alarm_ttl", "15s")

	// Alert thresholds keyed by metric name.
	v.SetDefault("thresholds.cpu.warning", 70.0)
	v.SetDefault("thresholds.cpu.critical", 90.0)
	v.SetDefault("thresholds.memory.warning", 75.0)
	v.SetDefault("thresholds.memory.critical", 95.0)
	v.SetDefault("thresholds.tunnel_loss.warning", 1.0)
	v.SetDefault("thresholds.tunnel_loss.critical", 5.0)
	v.SetDefault("thresholds.tunnel_latency.warning", 150.0)
	v.SetDefault("thresholds.tunnel_latency.critical", 300.0)

	// Notification channels.
	v.SetDefault("notify.slack.enabled", false)
	v.SetDefault("notify.slack.webhook_url", "")
	v.SetDefault("notify.slack.channel", "#sdwan-alerts")
	v.SetDefault("notify.slack.timeout", "5s")

	// Dashboard server.
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("sdwanmon")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/sdwanmon")
	}

	v.SetEnvPrefix("SDWAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// No config file is fine -- defaults plus environment apply.
	}

	return v, nil
}
