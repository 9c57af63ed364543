package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rongwang/finance-server/internal/config"
)

var envFile string

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "finance-server",
	Short: "Personal finance record-keeper API",
	Long: `finance-server keeps per-user records of incomes, expenses, categories
and balance snapshots, and answers aggregate questions about them.

Configuration comes from environment variables, optionally loaded from a
.env file. Run "finance-server serve" to start the HTTP API.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load environment variables from this file before reading configuration")
}

// loadConfig reads and validates configuration for any subcommand.
func loadConfig() (*config.Config, error) {
	if envFile != "" {
		if err := config.LoadEnvFile(envFile); err != nil {
			return nil, err
		}
	}
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
