package commands

import (
	"context"

	"github.com/openfroyo/provider-deli/pkg/harness"
	"github.com/openfroyo/provider-deli/pkg/provider"
	"github.com/openfroyo/provider-deli/pkg/telemetry"
)

// openHarness wires the development harness: environment config, logger,
// optional metrics endpoint, SQLite store, and the provider itself. The
// returned cleanup closes the store.
func openHarness(ctx context.Context) (*harness.Harness, func(), error) {
	cfg, err := harness.LoadConfig()
	if err != nil {
		return nil, nil, err
	}

	logger := telemetry.NewLogger(telemetry.LoggingConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: "stderr",
	})

	metricsCfg := telemetry.MetricsConfig{
		Enabled:       cfg.MetricsAddr != "",
		ListenAddress: cfg.MetricsAddr,
		Path:          "/metrics",
		Namespace:     "deli",
	}
	metrics := telemetry.NewMetrics(metricsCfg)
	if metricsCfg.Enabled {
		metrics.StartServer(logger)
	}

	store, err := harness.NewStore(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, nil, err
	}

	p, err := provider.New(provider.WithLogger(logger), provider.WithMetrics(metrics))
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}

	settings := provider.Settings{Upcharge: cfg.UpchargeDecimal()}
	h := harness.New(store, p, settings, logger)
	cleanup := func() { _ = store.Close() }
	return h, cleanup, nil
}
