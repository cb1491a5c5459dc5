// Package config loads costdeck settings and the model pricing table.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/theirongolddev/costdeck/internal/model"
)

// ErrInvalidSettings is returned when budget settings fail validation.
var ErrInvalidSettings = errors.New("invalid budget settings")

// Config holds all costdeck configuration.
type Config struct {
	General   GeneralConfig    `toml:"general"`
	Budget    BudgetConfig     `toml:"budget"`
	Pricing   PricingOverrides `toml:"pricing"`
	Daemon    DaemonConfig     `toml:"daemon"`
	Telemetry TelemetryConfig  `toml:"telemetry"`
	TUI       TUIConfig        `toml:"tui"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	DefaultRange     int    `toml:"default_range"`
	IncludeSubagents bool   `toml:"include_subagents"`
	ClaudeDir        string `toml:"claude_dir,omitempty"`
	RecordsFile      string `toml:"records_file,omitempty"`
	LogLevel         string `toml:"log_level,omitempty"`
}

// BudgetConfig holds budget tracking settings.
type BudgetConfig struct {
	BillingType      string   `toml:"billing_type,omitempty"`
	MonthlyUSD       *float64 `toml:"monthly_usd,omitempty"`
	WarningThreshold float64  `toml:"warning_threshold_percent"`
	AlertsEnabled    bool     `toml:"alerts_enabled"`
}

// DaemonConfig holds background service settings.
type DaemonConfig struct {
	Addr         string        `toml:"addr,omitempty"`
	PollInterval time.Duration `toml:"poll_interval,omitempty"`
	EventsBuffer int           `toml:"events_buffer,omitempty"`
}

// TelemetryConfig controls OTLP metrics export from the daemon.
type TelemetryConfig struct {
	Enabled  bool   `toml:"enabled"`
	Endpoint string `toml:"endpoint,omitempty"`
	Insecure bool   `toml:"insecure"`
}

// TUIConfig holds watch dashboard preferences.
type TUIConfig struct {
	Theme           string        `toml:"theme,omitempty"`
	RefreshInterval time.Duration `toml:"refresh_interval,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			DefaultRange:     7,
			IncludeSubagents: true,
			LogLevel:         "warn",
		},
		Budget: BudgetConfig{
			WarningThreshold: model.DefaultWarningThreshold,
			AlertsEnabled:    true,
		},
		Daemon: DaemonConfig{
			Addr:         "127.0.0.1:8787",
			PollInterval: 30 * time.Second,
			EventsBuffer: 200,
		},
		TUI: TUIConfig{
			Theme:           "flexoki-dark",
			RefreshInterval: 30 * time.Second,
		},
	}
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "costdeck")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "costdeck")
}

// Path returns the full path to the config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads the config file at path, returning defaults if it doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // path is the user's config file
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv layers environment overrides on top of file values.
func applyEnv(cfg *Config) {
	if v := os.Getenv("COSTDECK_MONTHLY_LIMIT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Budget.MonthlyUSD = &f
		}
	}
	if v := os.Getenv("COSTDECK_OTEL_ENDPOINT"); v != "" {
		cfg.Telemetry.Endpoint = v
		cfg.Telemetry.Enabled = true
	}
}

// Save writes the config to the default path.
func Save(cfg Config) error {
	return SaveTo(Path(), cfg)
}

// SaveTo writes the config to path.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // user config path
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return toml.NewEncoder(f).Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}

// BudgetSettings converts the [budget] section into engine settings.
// An unset billing type falls back to the plan detected from claudeDir.
func (c Config) BudgetSettings(claudeDir string) model.BudgetSettings {
	bt := model.BillingType(c.Budget.BillingType)
	if bt != model.BillingAPI && bt != model.BillingSubscription {
		bt = DetectPlan(claudeDir).BillingType
	}

	var limit float64
	if c.Budget.MonthlyUSD != nil {
		limit = *c.Budget.MonthlyUSD
	}

	threshold := c.Budget.WarningThreshold
	if threshold == 0 {
		threshold = model.DefaultWarningThreshold
	}

	return model.BudgetSettings{
		BillingType:             bt,
		MonthlyLimit:            limit,
		WarningThresholdPercent: threshold,
		AlertsEnabled:           c.Budget.AlertsEnabled,
	}
}

// ValidateBudget checks user-entered budget settings.
func ValidateBudget(s model.BudgetSettings) error {
	switch s.BillingType {
	case model.BillingAPI, model.BillingSubscription:
	default:
		return fmt.Errorf("%w: billing type %q must be api or subscription", ErrInvalidSettings, s.BillingType)
	}
	if s.BillingType == model.BillingAPI && s.MonthlyLimit <= 0 {
		return fmt.Errorf("%w: monthly limit must be > 0, got %.2f", ErrInvalidSettings, s.MonthlyLimit)
	}
	if s.WarningThresholdPercent <= 0 || s.WarningThresholdPercent > 100 {
		return fmt.Errorf("%w: warning threshold must be in (0, 100], got %.1f", ErrInvalidSettings, s.WarningThresholdPercent)
	}
	return nil
}
