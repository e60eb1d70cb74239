package config

import (
	"time"

	"github.com/spf13/viper"
)

// DefaultProgramID is the oracle program identity used when none is configured.
const DefaultProgramID = "9UYoqKcSHFhTBRoiYBcrkabsBbUKAdx68TZGLKokZKR1"

// setDefaults sets all default values
func setDefaults(v *viper.Viper) {
	// Oracle defaults
	v.SetDefault("oracle.program_id", DefaultProgramID)
	v.SetDefault("oracle.consumer_id", "")
	v.SetDefault("oracle.reject_stale_timestamps", false)
	v.SetDefault("oracle.workers", 8)

	// Database defaults
	v.SetDefault("database.backend", "pebble")
	v.SetDefault("database.path", "data")
	v.SetDefault("database.name", "feeds")
	v.SetDefault("database.cache_size", 1024)

	// RPC defaults
	v.SetDefault("rpc.address", "127.0.0.1:8899")
	v.SetDefault("rpc.timeout", 10*time.Second)
	v.SetDefault("rpc.websocket_path", "/ws")
	v.SetDefault("rpc.metrics", true)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}
