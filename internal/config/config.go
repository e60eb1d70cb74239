package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/gagliardetto/solana-go"
)

// Config represents the complete oracled configuration
type Config struct {
	Oracle   OracleConfig   `toml:"oracle" mapstructure:"oracle"`
	Database DatabaseConfig `toml:"database" mapstructure:"database"`
	RPC      RPCConfig      `toml:"rpc" mapstructure:"rpc"`
	Log      LogConfig      `toml:"log" mapstructure:"log"`

	// Internal fields for tracking config file location
	configPath string
}

// OracleConfig represents the [oracle] section
type OracleConfig struct {
	// ProgramID is the base58 identity data feed addresses are derived under
	ProgramID string `toml:"program_id" mapstructure:"program_id"`

	// ConsumerID is the identity the pull RPC reads with. Empty disables pull.
	ConsumerID string `toml:"consumer_id" mapstructure:"consumer_id"`

	RejectStaleTimestamps bool `toml:"reject_stale_timestamps" mapstructure:"reject_stale_timestamps"`
	Workers               int  `toml:"workers" mapstructure:"workers"`
}

// DatabaseConfig represents the [database] section
type DatabaseConfig struct {
	Backend   string `toml:"backend" mapstructure:"backend"` // pebble, bbolt or memory
	Path      string `toml:"path" mapstructure:"path"`
	Name      string `toml:"name" mapstructure:"name"`
	CacheSize int    `toml:"cache_size" mapstructure:"cache_size"` // entries held by the account cache
}

// RPCConfig represents the [rpc] section
type RPCConfig struct {
	Address       string        `toml:"address" mapstructure:"address"`
	Timeout       time.Duration `toml:"timeout" mapstructure:"timeout"`
	WebSocketPath string        `toml:"websocket_path" mapstructure:"websocket_path"`
	Metrics       bool          `toml:"metrics" mapstructure:"metrics"`
}

// LogConfig represents the [log] section
type LogConfig struct {
	Level  string `toml:"level" mapstructure:"level"`
	Format string `toml:"format" mapstructure:"format"` // json or console
}

// ProgramKey returns the parsed oracle program identity.
func (c *Config) ProgramKey() (solana.PublicKey, error) {
	k, err := solana.PublicKeyFromBase58(c.Oracle.ProgramID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid oracle.program_id %q: %w", c.Oracle.ProgramID, err)
	}
	return k, nil
}

// ConsumerKey returns the parsed consumer identity. ok is false when no
// consumer is configured.
func (c *Config) ConsumerKey() (k solana.PublicKey, ok bool, err error) {
	if c.Oracle.ConsumerID == "" {
		return solana.PublicKey{}, false, nil
	}
	k, err = solana.PublicKeyFromBase58(c.Oracle.ConsumerID)
	if err != nil {
		return solana.PublicKey{}, false, fmt.Errorf("invalid oracle.consumer_id %q: %w", c.Oracle.ConsumerID, err)
	}
	return k, true, nil
}

// GetDatabasePath returns the database path, relative paths resolved
// against the config file directory
func (c *Config) GetDatabasePath() string {
	if c.Database.Path == "" || filepath.IsAbs(c.Database.Path) || c.configPath == "" {
		return c.Database.Path
	}
	return filepath.Join(filepath.Dir(c.configPath), c.Database.Path)
}

// ConfigPath returns the file the configuration was read from, if any
func (c *Config) ConfigPath() string {
	return c.configPath
}
