// Package common provides shared configuration loading for the auction
// binaries.
package common

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/neodaoist/v3/services"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML configs can use strings like "10s"
// or "1h30m".
type Duration time.Duration

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config contains the daemon configuration, loadable from YAML with flag
// overrides applied on top.
type Config struct {
	// ListenAddr is the HTTP API listen address.
	ListenAddr string `yaml:"listen_addr"`

	// MetricsAddr is the Prometheus listen address; empty disables metrics.
	MetricsAddr string `yaml:"metrics_addr"`

	// EnablePprof enables the pprof debugging API.
	EnablePprof bool `yaml:"enable_pprof"`

	// LogJSON switches log output to JSON.
	LogJSON bool `yaml:"log_json"`

	// LogDebug enables debug-level logging.
	LogDebug bool `yaml:"log_debug"`

	// IssuanceURL is the base URL of the item-issuance collaborator.
	IssuanceURL string `yaml:"issuance_url"`

	// PayoutURL is the base URL of the payout collaborator.
	PayoutURL string `yaml:"payout_url"`

	// Currency selects the payout currency backend.
	Currency string `yaml:"currency"`

	// Postgres enables event persistence when set; events stay in memory
	// otherwise.
	Postgres *services.PostgresConfig `yaml:"postgres"`

	// DrainDuration is the load-balancer drain window before shutdown.
	DrainDuration Duration `yaml:"drain_duration"`

	// GracefulShutdownDuration bounds in-flight request completion at shutdown.
	GracefulShutdownDuration Duration `yaml:"graceful_shutdown_duration"`
}

// DefaultConfig returns a config with sane development defaults.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:               ":8080",
		Currency:                 "native",
		DrainDuration:            Duration(5 * time.Second),
		GracefulShutdownDuration: Duration(30 * time.Second),
	}
}

// LoadConfig reads a YAML config file over the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(body, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Validate checks that required collaborator endpoints are configured.
func (c *Config) Validate() error {
	if c.IssuanceURL == "" {
		return errors.New("issuance_url is required")
	}
	if c.PayoutURL == "" {
		return errors.New("payout_url is required")
	}
	return nil
}

// NewLogger creates the daemon's structured logger per the config.
func (c *Config) NewLogger() *slog.Logger {
	level := slog.LevelInfo
	if c.LogDebug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if c.LogJSON {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
