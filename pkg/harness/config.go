package harness

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Config holds the development harness configuration, loaded from the
// environment.
type Config struct {
	// DBPath is the SQLite database file holding materialized instances.
	DBPath string `env:"DELI_DB_PATH" envDefault:"deli-state.db" validate:"required"`

	// Upcharge is the provider upcharge applied to every priced resource,
	// as a decimal string.
	Upcharge string `env:"DELI_UPCHARGE" envDefault:"0" validate:"required"`

	// LogLevel controls harness log verbosity.
	LogLevel string `env:"DELI_LOG_LEVEL" envDefault:"info" validate:"oneof=trace debug info warn error"`

	// LogFormat selects console or json log output.
	LogFormat string `env:"DELI_LOG_FORMAT" envDefault:"console" validate:"oneof=console json"`

	// MetricsAddr is the Prometheus listen address. Empty disables the
	// metrics endpoint.
	MetricsAddr string `env:"DELI_METRICS_ADDR" envDefault:""`
}

// LoadConfig reads the harness configuration from the environment and
// validates it.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid harness configuration: %w", err)
	}
	if _, err := decimal.NewFromString(cfg.Upcharge); err != nil {
		return Config{}, fmt.Errorf("invalid DELI_UPCHARGE %q: %w", cfg.Upcharge, err)
	}
	return cfg, nil
}

// UpchargeDecimal returns the configured upcharge as a decimal.
func (c Config) UpchargeDecimal() decimal.Decimal {
	d, err := decimal.NewFromString(c.Upcharge)
	if err != nil {
		return decimal.Zero
	}
	return d
}
