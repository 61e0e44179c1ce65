package commands

import (
	"context"
	"fmt"

	"github.com/marmos91/deuce/internal/logger"
	"github.com/marmos91/deuce/pkg/engine/config"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the configured metadata store's health",
	Long: `Open the configured backend and report its health check result.

Examples:
  # Check the backend named by the default config
  deuce-engine health

  # Check a specific config's backend
  deuce-engine health --config /etc/deuce/deuce.yaml`,
	RunE: runHealth,
}

func runHealth(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return err
	}

	if err := InitLogger(); err != nil {
		return err
	}

	ctx := context.Background()
	backend, err := OpenBackend(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open backend: %w", err)
	}
	defer func() { _ = backend.Close() }()

	status := backend.Health(ctx)
	logger.Info("health check", "driver", cfg.MetadataDriver.Driver, "ok", status.OK)

	if !status.OK {
		fmt.Printf("unhealthy (driver: %s): %s\n", cfg.MetadataDriver.Driver, status.Reason)
		return fmt.Errorf("backend reported unhealthy status")
	}

	fmt.Printf("healthy (driver: %s)\n", cfg.MetadataDriver.Driver)
	return nil
}
