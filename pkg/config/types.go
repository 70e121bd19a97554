package config

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	// DefaultUDPPort is the metric listening port used when none is
	// configured.
	DefaultUDPPort = 1420

	// DefaultMaxMetrics caps the registry when no limit is configured.
	DefaultMaxMetrics = 500

	// DefaultReportInterval is how often reporters flush snapshots.
	DefaultReportInterval = Duration(60 * time.Second)
)

type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		// parse numeric as nanoseconds
		*d = Duration(time.Duration(value))
		return nil
	case string:
		dur, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}

		*d = Duration(dur)

		return nil
	default:
		return errInvalidDuration
	}
}

// GraphiteConfig points a reporter at a carbon plaintext endpoint.
type GraphiteConfig struct {
	Host   string `json:"host"`
	Port   int    `json:"port"`
	Prefix string `json:"prefix,omitempty"` // defaults to the local hostname
}

// Config is the full configuration for the metriccatcher process.
type Config struct {
	UDPPort        int             `json:"udp_port"`                   // e.g., 1420
	MaxMetrics     int             `json:"max_metrics"`                // registry capacity
	HTTPListenAddr string          `json:"http_listen_addr,omitempty"` // snapshot API, e.g., :8080
	ReportInterval Duration        `json:"report_interval"`
	Graphite       *GraphiteConfig `json:"graphite,omitempty"`
	Console        bool            `json:"console,omitempty"` // log snapshots locally
}

// Validate applies defaults and rejects values the process cannot run with.
func (c *Config) Validate() error {
	if c.UDPPort == 0 {
		c.UDPPort = DefaultUDPPort
	}

	if c.UDPPort < 1 || c.UDPPort > 65535 {
		return fmt.Errorf("%w: udp_port %d", errInvalidPort, c.UDPPort)
	}

	if c.MaxMetrics < 0 {
		return fmt.Errorf("max_metrics must not be negative, got %d", c.MaxMetrics)
	}

	if c.MaxMetrics == 0 {
		c.MaxMetrics = DefaultMaxMetrics
	}

	if c.ReportInterval <= 0 {
		c.ReportInterval = DefaultReportInterval
	}

	if c.Graphite != nil {
		if c.Graphite.Host == "" {
			return fmt.Errorf("graphite.host must be set when graphite is configured")
		}

		if c.Graphite.Port < 1 || c.Graphite.Port > 65535 {
			return fmt.Errorf("%w: graphite.port %d", errInvalidPort, c.Graphite.Port)
		}
	}

	return nil
}
