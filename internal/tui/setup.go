package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/costdeck/internal/config"
	"github.com/theirongolddev/costdeck/internal/model"
	"github.com/theirongolddev/costdeck/internal/tui/theme"

	"github.com/charmbracelet/huh"
)

// SetupValues holds the raw answers collected by the setup form.
type SetupValues struct {
	BillingType  string
	MonthlyLimit string
	Threshold    string
	Alerts       bool
	Theme        string
}

// SetupValuesFrom seeds form answers from an existing config.
func SetupValuesFrom(cfg config.Config, claudeDir string) SetupValues {
	s := cfg.BudgetSettings(claudeDir)

	v := SetupValues{
		BillingType: string(s.BillingType),
		Threshold:   strconv.FormatFloat(s.WarningThresholdPercent, 'f', -1, 64),
		Alerts:      s.AlertsEnabled,
		Theme:       cfg.TUI.Theme,
	}
	if s.MonthlyLimit > 0 {
		v.MonthlyLimit = strconv.FormatFloat(s.MonthlyLimit, 'f', 2, 64)
	}
	return v
}

// NewSetupForm builds the budget setup form bound to vals.
func NewSetupForm(vals *SetupValues, sessionCount int, claudeDir string) *huh.Form {
	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themeOpts = append(themeOpts, huh.NewOption(t.Name, t.Name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to costdeck").
				Description(fmt.Sprintf("Found %d sessions in %s.\nSet up budget tracking.", sessionCount, claudeDir)),
			huh.NewSelect[string]().
				Title("How are you billed?").
				Options(
					huh.NewOption("API (pay per token)", string(model.BillingAPI)),
					huh.NewOption("Subscription (flat rate, costs tracked only)", string(model.BillingSubscription)),
				).
				Value(&vals.BillingType),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Monthly limit (USD)").
				Description("Leave blank on subscription plans.").
				Placeholder("100.00").
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" && vals.BillingType == string(model.BillingSubscription) {
						return nil
					}
					_, err := parsePositive(s)
					return err
				}).
				Value(&vals.MonthlyLimit),
			huh.NewInput().
				Title("Warning threshold (%)").
				Placeholder("80").
				Validate(func(s string) error {
					f, err := parsePositive(s)
					if err == nil && f > 100 {
						return errors.New("must be at most 100")
					}
					return err
				}).
				Value(&vals.Threshold),
			huh.NewConfirm().
				Title("Enable budget alerts?").
				Value(&vals.Alerts),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Dashboard theme").
				Options(themeOpts...).
				Value(&vals.Theme),
		),
	)
}

// ApplySetup validates form answers and writes them into cfg.
func ApplySetup(cfg config.Config, v SetupValues) (config.Config, error) {
	settings := model.BudgetSettings{
		BillingType:   model.BillingType(v.BillingType),
		AlertsEnabled: v.Alerts,
	}

	if strings.TrimSpace(v.MonthlyLimit) != "" {
		limit, err := parsePositive(v.MonthlyLimit)
		if err != nil {
			return cfg, fmt.Errorf("%w: monthly limit: %v", config.ErrInvalidSettings, err)
		}
		settings.MonthlyLimit = limit
	}

	threshold, err := parsePositive(v.Threshold)
	if err != nil {
		return cfg, fmt.Errorf("%w: warning threshold: %v", config.ErrInvalidSettings, err)
	}
	settings.WarningThresholdPercent = threshold

	if err := config.ValidateBudget(settings); err != nil {
		return cfg, err
	}

	cfg.Budget.BillingType = string(settings.BillingType)
	cfg.Budget.WarningThreshold = settings.WarningThresholdPercent
	cfg.Budget.AlertsEnabled = settings.AlertsEnabled
	cfg.Budget.MonthlyUSD = nil
	if settings.MonthlyLimit > 0 {
		limit := settings.MonthlyLimit
		cfg.Budget.MonthlyUSD = &limit
	}
	if v.Theme != "" {
		cfg.TUI.Theme = theme.ByName(v.Theme).Name
	}
	return cfg, nil
}

// RunSetup runs the interactive setup form and returns the updated config.
func RunSetup(cfg config.Config, claudeDir string, sessionCount int) (config.Config, error) {
	vals := SetupValuesFrom(cfg, claudeDir)
	if err := NewSetupForm(&vals, sessionCount, claudeDir).Run(); err != nil {
		return cfg, err
	}
	return ApplySetup(cfg, vals)
}

func parsePositive(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimPrefix(strings.TrimSpace(s), "$"), 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if f <= 0 {
		return 0, errors.New("must be greater than 0")
	}
	return f, nil
}
