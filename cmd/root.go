// Package cmd implements the costdeck CLI commands.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/costdeck/internal/cli"
	"github.com/theirongolddev/costdeck/internal/config"
	"github.com/theirongolddev/costdeck/internal/model"
	"github.com/theirongolddev/costdeck/internal/pipeline"
	"github.com/theirongolddev/costdeck/internal/store"
)

var (
	flagRange       int
	flagProject     string
	flagModel       string
	flagNoCache     bool
	flagDataDir     string
	flagRecords     string
	flagQuiet       bool
	flagNoSubagents bool
	flagLogLevel    string
	flagPricingFile string
	flagJSON        bool
)

// appConfig is the config file merged with env overrides, loaded before
// every command runs.
var appConfig = config.DefaultConfig()

var rootCmd = &cobra.Command{
	Use:               "costdeck",
	Short:             "Claude usage costs, budget and analytics",
	Long:              "Track what your Claude Code sessions cost: month-to-date spend, budget state, projections and usage analytics.",
	SilenceUsage:      true,
	PersistentPreRunE: prepare,
	RunE:              runSummary,
}

// Execute is the main entry point called from main.go.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	homeDir, _ := os.UserHomeDir()
	defaultDataDir := filepath.Join(homeDir, ".claude")

	pf := rootCmd.PersistentFlags()
	pf.IntVarP(&flagRange, "range", "n", 7, "Analytics window in days (7, 14 or 30)")
	pf.StringVarP(&flagProject, "project", "p", "", "Filter to project (substring match)")
	pf.StringVarP(&flagModel, "model", "m", "", "Filter to model (substring match)")
	pf.BoolVar(&flagNoCache, "no-cache", false, "Skip SQLite cache, reparse everything")
	pf.StringVarP(&flagDataDir, "data-dir", "d", defaultDataDir, "Claude data directory")
	pf.StringVar(&flagRecords, "records", "", "Read session records from a JSON/JSONL export instead of scanning")
	pf.BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	pf.BoolVar(&flagNoSubagents, "no-subagents", false, "Exclude subagent sessions")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&flagPricingFile, "pricing-file", "", "YAML pricing table merged over the built-in prices")
	pf.BoolVar(&flagJSON, "json", false, "Print machine-readable JSON where supported")
}

// prepare loads config and layers it under any flags the user did not set.
func prepare(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	appConfig = cfg

	flags := cmd.Flags()
	if !flags.Changed("range") && pipeline.ValidRange(cfg.General.DefaultRange) {
		flagRange = cfg.General.DefaultRange
	}
	if !pipeline.ValidRange(flagRange) {
		return fmt.Errorf("--range %d: %w", flagRange, pipeline.ErrInvalidRange)
	}
	if !flags.Changed("data-dir") && cfg.General.ClaudeDir != "" {
		flagDataDir = cfg.General.ClaudeDir
	}
	if !flags.Changed("records") && cfg.General.RecordsFile != "" {
		flagRecords = cfg.General.RecordsFile
	}
	if !flags.Changed("no-subagents") {
		flagNoSubagents = !cfg.General.IncludeSubagents
	}
	if flagLogLevel == "" {
		flagLogLevel = cfg.General.LogLevel
	}
	if flagPricingFile != "" {
		appConfig.Pricing.File = flagPricingFile
	}

	return setupLogging(flagLogLevel)
}

func setupLogging(level string) error {
	lvl := zerolog.WarnLevel
	if level != "" {
		parsed, err := zerolog.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", level, err)
		}
		lvl = parsed
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()
	return nil
}

// pricingResolver builds the resolver from built-in prices, the optional
// pricing file and [pricing.overrides].
func pricingResolver() (*config.Resolver, error) {
	table, err := appConfig.PricingTable()
	if err != nil {
		return nil, fmt.Errorf("loading pricing: %w", err)
	}
	return config.NewResolver(table), nil
}

func budgetSettings() model.BudgetSettings {
	return appConfig.BudgetSettings(flagDataDir)
}

// loadSessions is the shared loading path: a records export when one is
// configured, otherwise the transcript scan, cached unless --no-cache.
// Project and model filters are applied to the result.
func loadSessions(ctx context.Context, now time.Time, progressFn pipeline.ProgressFunc) (*pipeline.LoadResult, error) {
	result, err := loadUnfiltered(ctx, now, progressFn)
	if err != nil {
		return nil, err
	}
	if flagProject != "" {
		result.Sessions = pipeline.FilterByProject(result.Sessions, flagProject)
	}
	if flagModel != "" {
		result.Sessions = pipeline.FilterByModel(result.Sessions, flagModel)
	}
	return result, nil
}

func loadUnfiltered(ctx context.Context, now time.Time, progressFn pipeline.ProgressFunc) (*pipeline.LoadResult, error) {
	if flagRecords != "" {
		result, err := pipeline.LoadRecords(flagRecords, now)
		if err != nil {
			return nil, err
		}
		if flagNoSubagents {
			result.Sessions = pipeline.ExcludeSubagents(result.Sessions)
		}
		return result, nil
	}

	if !flagNoCache {
		cache, err := store.Open(pipeline.CachePath())
		if err != nil {
			log.Warn().Err(err).Msg("cache unavailable, doing full parse")
		} else {
			defer func() { _ = cache.Close() }()

			cr, err := pipeline.LoadWithCache(ctx, flagDataDir, !flagNoSubagents, cache, now, progressFn)
			if err == nil {
				return &cr.LoadResult, nil
			}
			if ctx.Err() != nil {
				return nil, err
			}
			log.Warn().Err(err).Msg("cache error, falling back to full parse")
		}
	}

	return pipeline.Load(ctx, flagDataDir, !flagNoSubagents, now, progressFn)
}

// loadData wraps loadSessions with the terminal progress display.
func loadData(ctx context.Context, now time.Time) (*pipeline.LoadResult, error) {
	if !flagQuiet && flagRecords == "" {
		fmt.Fprintf(os.Stderr, "  Scanning sessions...\n")
	}

	progressFn := func(current, total int) {
		if flagQuiet {
			return
		}
		if current%100 == 0 || current == total {
			fmt.Fprintf(os.Stderr, "\r  Parsing [%d/%d]", current, total)
		}
	}

	result, err := loadSessions(ctx, now, progressFn)
	if err != nil {
		return nil, err
	}

	if !flagQuiet && result.TotalFiles > 0 {
		fmt.Fprintf(os.Stderr, "\r  Loaded %s sessions across %d projects    \n",
			cli.FormatNumber(int64(len(result.Sessions))), result.ProjectCount)
	}
	if result.FileErrors > 0 {
		fmt.Fprintf(os.Stderr, "  %d files could not be read\n", result.FileErrors)
	}
	return result, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-1]) + "…"
}
