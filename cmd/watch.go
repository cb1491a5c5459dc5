package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/theirongolddev/costdeck/internal/model"
	"github.com/theirongolddev/costdeck/internal/pipeline"
	"github.com/theirongolddev/costdeck/internal/tui"
	"github.com/theirongolddev/costdeck/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var flagWatchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:     "watch",
	Aliases: []string{"tui"},
	Short:   "Live cost and budget dashboard",
	RunE:    runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&flagWatchInterval, "interval", 0, "Refresh interval (default from config)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	theme.SetActive(appConfig.TUI.Theme)
	// Log lines would corrupt the alt screen.
	log.Logger = zerolog.Nop()

	pricing, err := pricingResolver()
	if err != nil {
		return err
	}

	interval := appConfig.TUI.RefreshInterval
	if flagWatchInterval > 0 {
		interval = flagWatchInterval
	}

	app := tui.NewApp(tui.Options{
		Load: func(ctx context.Context, now time.Time, progress pipeline.ProgressFunc) ([]model.SessionRecord, error) {
			result, err := loadSessions(ctx, now, progress)
			if err != nil {
				return nil, err
			}
			return result.Sessions, nil
		},
		Pricing:         pricing,
		Budget:          budgetSettings(),
		RangeDays:       flagRange,
		RefreshInterval: interval,
	})

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}
