package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Loader resolves Config from environment variables using Viper.
type Loader struct {
	viper *viper.Viper
}

// NewLoader creates a Loader with AutomaticEnv bound to the flat env-var
// names the hub recognizes (no prefix, no config file).
func NewLoader() *Loader {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("port", 8000)
	v.SetDefault("max_reconnect_attempts", 5)
	v.SetDefault("reconnect_interval", 2)
	v.SetDefault("log_level", "INFO")
	v.SetDefault("debug_mode", false)
	v.SetDefault("connection_timeout", 30)
	v.SetDefault("ping_interval", 20)
	v.SetDefault("telemetry_buffer_size", 100)

	bindings := map[string]string{
		"port":                  "PORT",
		"max_reconnect_attempts": "MAX_RECONNECT_ATTEMPTS",
		"reconnect_interval":    "RECONNECT_INTERVAL",
		"log_level":             "LOG_LEVEL",
		"debug_mode":            "DEBUG_MODE",
		"connection_timeout":    "CONNECTION_TIMEOUT",
		"ping_interval":         "PING_INTERVAL",
		"telemetry_buffer_size": "TELEMETRY_BUFFER_SIZE",
	}
	for key, env := range bindings {
		_ = v.BindEnv(key, env)
	}

	return &Loader{viper: v}
}

// Load resolves and validates the configuration.
func (l *Loader) Load() (*Config, error) {
	cfg := &Config{
		Port:                 l.viper.GetInt("port"),
		MaxReconnectAttempts: l.viper.GetInt("max_reconnect_attempts"),
		ReconnectInterval:    time.Duration(l.viper.GetInt("reconnect_interval")) * time.Second,
		LogLevel:             l.viper.GetString("log_level"),
		DebugMode:            l.viper.GetBool("debug_mode"),
		ConnectionTimeout:    time.Duration(l.viper.GetInt("connection_timeout")) * time.Second,
		PingInterval:         time.Duration(l.viper.GetInt("ping_interval")) * time.Second,
		TelemetryBufferSize:  l.viper.GetInt("telemetry_buffer_size"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// GetViper exposes the underlying Viper instance for advanced use (hot
// reload of LOG_LEVEL at runtime, tests overriding a single key, etc.).
func (l *Loader) GetViper() *viper.Viper {
	return l.viper
}
