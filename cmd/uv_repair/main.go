// Package main provides the uv_repair CLI for fixing corrupted texture records in OBJ exports.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/uv-repair/internal/config"
	"github.com/jonathan/uv-repair/internal/observability"
)

const configEnvVar = "UV_REPAIR_CONFIG"

var (
	configPath string
	verbose    bool
	logger     = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "uv_repair",
	Short: "Repair #QNAN texture coordinates in fixed-layout OBJ exports",
	Long: `uv_repair finds texture-coordinate records flagged as quiet NaN in OBJ files written
by a fixed-layout exporter and replaces each one with the texture coordinate of a
nearby vertex that stays consistent with the rest of its face.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return setLogger(verbose)
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a JSON or YAML config file (defaults to "+configEnvVar+" env var)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print detailed debug information")
}

// setLogger replaces the package logger, at debug level when debug is set.
func setLogger(debug bool) error {
	l, err := observability.NewLogger(debug)
	if err != nil {
		return err
	}
	logger = l
	return nil
}

// loadConfig reads the config file named by --config or the environment, if any.
func loadConfig() (config.Config, error) {
	path := configPath
	if path == "" {
		path = os.Getenv(configEnvVar)
	}
	if path == "" {
		return config.Config{}, nil
	}

	loaded, err := config.LoadConfig(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	logger.Debug("Loaded config", zap.String("path", path))
	return *loaded, nil
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
