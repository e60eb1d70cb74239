package config

import (
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap/zapcore"
)

var (
	validBackends   = []string{"pebble", "bbolt", "memory"}
	validLogFormats = []string{"json", "console"}
)

// ValidateConfig performs validation on the complete configuration
func ValidateConfig(config *Config) error {
	if err := validateOracle(config); err != nil {
		return fmt.Errorf("oracle config validation failed: %w", err)
	}
	if err := config.Database.Validate(); err != nil {
		return fmt.Errorf("database config validation failed: %w", err)
	}
	if err := config.RPC.Validate(); err != nil {
		return fmt.Errorf("rpc config validation failed: %w", err)
	}
	if err := config.Log.Validate(); err != nil {
		return fmt.Errorf("log config validation failed: %w", err)
	}
	return nil
}

func validateOracle(config *Config) error {
	if _, err := config.ProgramKey(); err != nil {
		return err
	}
	if _, _, err := config.ConsumerKey(); err != nil {
		return err
	}
	if config.Oracle.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", config.Oracle.Workers)
	}
	return nil
}

// Validate performs validation on the database configuration
func (d *DatabaseConfig) Validate() error {
	backend := strings.ToLower(d.Backend)
	if !slices.Contains(validBackends, backend) {
		return fmt.Errorf("invalid backend: %s (valid options: %s)", d.Backend, strings.Join(validBackends, ", "))
	}
	if backend != "memory" && d.Path == "" {
		return fmt.Errorf("path is required for backend %s", backend)
	}
	if d.Name == "" {
		return fmt.Errorf("name is required")
	}
	if d.CacheSize < 0 {
		return fmt.Errorf("cache_size must be non-negative, got %d", d.CacheSize)
	}
	return nil
}

// Validate performs validation on the RPC configuration
func (r *RPCConfig) Validate() error {
	if r.Address == "" {
		return fmt.Errorf("address is required")
	}
	if r.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative, got %s", r.Timeout)
	}
	if r.WebSocketPath != "" && !strings.HasPrefix(r.WebSocketPath, "/") {
		return fmt.Errorf("websocket_path must start with /: %s", r.WebSocketPath)
	}
	return nil
}

// Validate performs validation on the log configuration
func (l *LogConfig) Validate() error {
	if _, err := zapcore.ParseLevel(l.Level); err != nil {
		return fmt.Errorf("invalid level: %w", err)
	}
	if !slices.Contains(validLogFormats, strings.ToLower(l.Format)) {
		return fmt.Errorf("invalid format: %s (valid options: %s)", l.Format, strings.Join(validLogFormats, ", "))
	}
	return nil
}
