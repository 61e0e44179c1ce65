// Package commands implements the deuce-engine CLI: the operator-facing
// surface for running database migrations and checking backend health
// against a configured metadata store.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// Global flags.
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "deuce-engine",
	Short: "Deuce - content-addressed block storage metadata engine",
	Long: `deuce-engine operates the metadata store behind a content-addressed
block storage system: vaults, files, blocks, and their assignments.

Use "deuce-engine [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and runs it. This is
// called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./deuce.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(healthCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// GetConfigFile returns the config file path from the global --config flag.
func GetConfigFile() string {
	return cfgFile
}
