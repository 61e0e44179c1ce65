package commands

import (
	"context"
	"fmt"

	"github.com/marmos91/deuce/internal/logger"
	"github.com/marmos91/deuce/pkg/engine"
	"github.com/marmos91/deuce/pkg/engine/config"
	"github.com/marmos91/deuce/pkg/engine/metrics"
	"github.com/marmos91/deuce/pkg/engine/store/badger"
	"github.com/marmos91/deuce/pkg/engine/store/memory"
	"github.com/marmos91/deuce/pkg/engine/store/sqlite"
)

// InitLogger initializes the structured logger at text/info defaults. The
// engine's own configuration carries no logging section, so unlike the
// server this runs against, there is nothing to source level/format from.
func InitLogger() error {
	if err := logger.Init(logger.Config{Level: "INFO", Format: "text", Output: "stdout"}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// OpenBackend opens the engine.Backend named by cfg.MetadataDriver.Driver.
// Opening the sqlite backend runs its embedded migrations as a side effect.
// When cfg.Metrics.Enabled is set, the returned Backend is wrapped with
// Prometheus instrumentation (see pkg/engine/metrics).
func OpenBackend(ctx context.Context, cfg *config.Config) (engine.Backend, error) {
	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if !cfg.Metrics.Enabled {
		return backend, nil
	}
	return metrics.Instrument(backend, metrics.NewPrometheusMetrics(nil)), nil
}

func openBackend(ctx context.Context, cfg *config.Config) (engine.Backend, error) {
	engineCfg := cfg.EngineConfig()
	switch cfg.MetadataDriver.Driver {
	case "sqlite":
		return sqlite.Open(ctx, sqlite.Config{Path: cfg.MetadataDriver.Options.Path}, engineCfg)
	case "badger":
		return badger.Open(ctx, badger.Config{Dir: cfg.MetadataDriver.Options.Path}, engineCfg)
	case "memory":
		return memory.New(engineCfg), nil
	default:
		return nil, fmt.Errorf("unsupported metadata_driver.driver %q", cfg.MetadataDriver.Driver)
	}
}
