package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alfredw/shadcn-ui-mcp-server-sub001/internal/config"
	"github.com/alfredw/shadcn-ui-mcp-server-sub001/internal/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "hybridcached",
	Short: "Demo CLI for the shadcn/ui component registry hybrid cache engine",
	Long: `hybridcached wires the HybridEngine from a config file (or its
documented defaults) and prints its status and stats. It exists to exercise
the config and engine packages end to end, the way a real MCP server would
wire them at startup.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: built-in defaults)")
	if err := logger.Init(logger.Config{Level: "INFO", Format: "text", Output: "stderr"}); err != nil {
		fmt.Fprintln(os.Stderr, "Warning: failed to initialize logger:", err)
	}
}

// Execute runs the root command, exiting the process on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// GetRootCmd returns the root command, mainly for tests.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

// loadConfig loads the config at configPath, falling back to defaults.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
