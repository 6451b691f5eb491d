// Package cli implements the claimradar command line.
package cli

import (
	"fmt"
	"os"

	"github.com/factchecker/claimradar/internal/config"
	"github.com/factchecker/claimradar/internal/logger"
	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags.
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "claimradar",
	Short: "claimradar - cached fact verification service",
	Long: `claimradar verifies claims in text against web evidence and caches every
verdict by text fingerprint. Repeated and near-duplicate texts are answered
from the cache instead of being checked again.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "claimradar %s\n", Version)
	},
}

var generateConfigCmd = &cobra.Command{
	Use:   "generate-config [path]",
	Short: "Write a sample configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "config.yaml"
		if len(args) == 1 {
			path = args[0]
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
		if err := config.GenerateSample(path); err != nil {
			return fmt.Errorf("write sample config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(generateConfigCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkCmd)
}

// loadConfig reads the config file and configures global logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	logger.Setup(cfg.Logging, os.Stderr)
	return cfg, nil
}
