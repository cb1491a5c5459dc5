package cmd

import (
	"fmt"

	"github.com/theirongolddev/costdeck/internal/config"
	"github.com/theirongolddev/costdeck/internal/pipeline"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg := appConfig

	fmt.Printf("  Config file: %s\n", config.Path())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Printf("  Cache:       %s\n", pipeline.CachePath())
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Default range:     %dd\n", cfg.General.DefaultRange)
	fmt.Printf("    Include subagents: %v\n", cfg.General.IncludeSubagents)
	fmt.Printf("    Claude directory:  %s\n", flagDataDir)
	if flagRecords != "" {
		fmt.Printf("    Records file:      %s\n", flagRecords)
	}
	fmt.Println()

	settings := budgetSettings()
	fmt.Println("  [Budget]")
	fmt.Printf("    Billing type:  %s", settings.BillingType)
	if cfg.Budget.BillingType == "" {
		fmt.Print(" (auto-detected)")
	}
	fmt.Println()
	if settings.MonthlyLimit > 0 {
		fmt.Printf("    Monthly limit: $%.2f\n", settings.MonthlyLimit)
	} else {
		fmt.Println("    Monthly limit: not set")
	}
	fmt.Printf("    Warn at:       %.0f%%\n", settings.WarningThresholdPercent)
	fmt.Printf("    Alerts:        %v\n", settings.AlertsEnabled)
	fmt.Println()

	fmt.Println("  [Pricing]")
	if cfg.Pricing.File != "" {
		fmt.Printf("    Pricing file: %s\n", cfg.Pricing.File)
	}
	fmt.Printf("    Overrides:    %d\n", len(cfg.Pricing.Overrides))
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:  %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Interval: %s\n", cfg.Daemon.PollInterval)
	fmt.Println()

	fmt.Println("  [Telemetry]")
	if cfg.Telemetry.Enabled {
		fmt.Printf("    OTLP endpoint: %s\n", cfg.Telemetry.Endpoint)
	} else {
		fmt.Println("    OTLP export: disabled")
	}
	fmt.Println()

	fmt.Println("  [TUI]")
	fmt.Printf("    Theme:   %s\n", cfg.TUI.Theme)
	fmt.Printf("    Refresh: %s\n", cfg.TUI.RefreshInterval)
	fmt.Println()

	fmt.Println("  Run `costdeck setup` to reconfigure.")
	return nil
}
