package config

import (
	"fmt"
	"time"
)

// Config holds the fully resolved relay hub configuration.
type Config struct {
	Port                  int           `mapstructure:"port"`
	MaxReconnectAttempts  int           `mapstructure:"max_reconnect_attempts"`
	ReconnectInterval     time.Duration `mapstructure:"reconnect_interval"`
	LogLevel              string        `mapstructure:"log_level"`
	DebugMode             bool          `mapstructure:"debug_mode"`
	ConnectionTimeout     time.Duration `mapstructure:"connection_timeout"`
	PingInterval          time.Duration `mapstructure:"ping_interval"`
	TelemetryBufferSize   int           `mapstructure:"telemetry_buffer_size"`
}

// Validate checks that the resolved configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Port)
	}
	if c.TelemetryBufferSize <= 0 {
		return fmt.Errorf("config: telemetry_buffer_size must be positive, got %d", c.TelemetryBufferSize)
	}
	if c.PingInterval <= 0 {
		return fmt.Errorf("config: ping_interval must be positive, got %s", c.PingInterval)
	}
	if c.ConnectionTimeout <= c.PingInterval {
		return fmt.Errorf("config: connection_timeout (%s) must exceed ping_interval (%s)", c.ConnectionTimeout, c.PingInterval)
	}
	if c.MaxReconnectAttempts < 0 {
		return fmt.Errorf("config: max_reconnect_attempts must not be negative, got %d", c.MaxReconnectAttempts)
	}
	return nil
}
