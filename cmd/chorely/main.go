// Command chorely runs the household chore tracker.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dukerupert/chorely/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "chorely",
	Short: "Household chore tracker",
	Long: `chorely tracks recurring household chores shared by a group.

Configuration is read from an optional YAML file (--config) and from
CHORELY_* environment variables, e.g. CHORELY_DATABASE_PATH.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, tokenCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
