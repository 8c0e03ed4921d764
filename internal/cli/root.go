// Package cli implements the waflora command line.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/waflora/waflora/internal/daemon"
)

var (
	configPath string
	dataDir    string
)

var rootCmd = &cobra.Command{
	Use:   "waflora",
	Short: "Wa Flora customer credit ledger",
	Long: `Wa Flora tracks what each customer owes the shop.

Credit sales raise a customer's balance, payments lower it (never below
zero), and every sale and payment is kept in an append-only history.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $WAFLORA_HOME/config.toml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "database directory (overrides [database].dir)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig() (daemon.Config, error) {
	path := configPath
	if path == "" {
		path = daemon.ConfigPath()
	}
	cfg, err := daemon.LoadConfig(path)
	if err != nil {
		return cfg, err
	}
	if dataDir != "" {
		cfg.Database.Dir = dataDir
	}
	if err := daemon.ConfigureLogging(cfg.Log); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// openDaemon loads config and opens the database. Callers must Close it.
func openDaemon() (*daemon.Daemon, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return daemon.New(cfg)
}
