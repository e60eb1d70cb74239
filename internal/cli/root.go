package cli

import (
	"fmt"
	"os"

	"github.com/LeJamon/goOracled/internal/config"
	"github.com/LeJamon/goOracled/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	configFile  string
	debug       bool
	rpcEndpoint string

	cfg    *config.Config
	cfgErr error
	logger = zap.NewNop()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "oracled",
	Short: "goOracled - data feed oracle node",
	Long: `goOracled runs a data feed oracle. Owners publish signed values to feed
accounts derived from (owner, feed id); consumer programs pull them subject to
the feed's license and subscription list.`,
	Version:       "0.1.0-dev",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable normally suppressed debug logging")
	rootCmd.PersistentFlags().StringVar(&rpcEndpoint, "rpc", "", "JSON-RPC endpoint (default: http://<rpc.address>/)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	cfg, cfgErr = config.LoadConfig(configFile)
	if cfgErr != nil {
		return
	}
	if debug {
		cfg.Log.Level = "debug"
	}
	l, err := logging.New(cfg.Log)
	if err != nil {
		cfgErr = err
		return
	}
	logger = l
}

// loadedConfig returns the configuration read by initConfig.
func loadedConfig() (*config.Config, error) {
	if cfgErr != nil {
		return nil, fmt.Errorf("load config: %w", cfgErr)
	}
	if cfg == nil {
		return nil, fmt.Errorf("load config: not initialized")
	}
	return cfg, nil
}

// endpoint returns the RPC URL client commands talk to.
func endpoint(c *config.Config) string {
	if rpcEndpoint != "" {
		return rpcEndpoint
	}
	return "http://" + c.RPC.Address + "/"
}
