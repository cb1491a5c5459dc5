package cmd

import (
	"fmt"
	"time"

	"github.com/theirongolddev/costdeck/internal/cli"
	"github.com/theirongolddev/costdeck/internal/model"
	"github.com/theirongolddev/costdeck/internal/pipeline"

	"github.com/spf13/cobra"
)

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Budget state and month-end projection",
	RunE:  runBudget,
}

var budgetExitCode bool

func init() {
	budgetCmd.Flags().BoolVar(&budgetExitCode, "exit-code", false, "Exit non-zero when an active budget is in warning or exceeded")
	rootCmd.AddCommand(budgetCmd)
}

// budgetReport is the --json shape of the budget command.
type budgetReport struct {
	Settings model.BudgetSettings `json:"settings"`
	Month    float64              `json:"currentMonthCost"`
	Today    float64              `json:"todayCost"`
	Status   model.BudgetStatus   `json:"status"`
	Forecast model.BudgetForecast `json:"forecast"`
}

func runBudget(cmd *cobra.Command, _ []string) error {
	now := time.Now()
	result, err := loadData(cmd.Context(), now)
	if err != nil {
		return err
	}
	pricing, err := pricingResolver()
	if err != nil {
		return err
	}

	settings := budgetSettings()
	snap := pipeline.AggregateCosts(result.Sessions, pricing, now)
	rep := budgetReport{
		Settings: settings,
		Month:    snap.CurrentMonthCost,
		Today:    snap.TodayCost,
		Status:   pipeline.EvaluateBudget(snap, settings),
		Forecast: pipeline.Forecast(snap, settings, now),
	}

	if flagJSON {
		if err := printJSON(rep); err != nil {
			return err
		}
	} else {
		printBudget(rep)
	}

	if budgetExitCode && rep.Status.Active && rep.Status.State != model.BudgetOK {
		return fmt.Errorf("budget %s: %s of %s", rep.Status.State,
			cli.FormatCost(rep.Month), cli.FormatCost(settings.MonthlyLimit))
	}
	return nil
}

func printBudget(rep budgetReport) {
	fmt.Println()
	fmt.Println(cli.RenderTitle("BUDGET"))
	fmt.Println()

	limit := "not set"
	if rep.Settings.MonthlyLimit > 0 {
		limit = cli.FormatCost(rep.Settings.MonthlyLimit)
	}

	rows := [][]string{
		{"Billing", string(rep.Settings.BillingType)},
		{"Monthly limit", limit},
		{"Warn at", cli.FormatPercent(rep.Settings.WarningThresholdPercent)},
		{"---"},
		{"Month to date", cli.FormatCost(rep.Month)},
		{"Used", cli.FormatPercent(rep.Status.Percentage)},
		{"State", cli.RenderBudgetState(rep.Status)},
		{"---"},
		{"Today", cli.FormatCost(rep.Today)},
		{"Projected month", cli.FormatCost(rep.Forecast.ProjectedMonthly)},
		{"Projected used", cli.FormatPercent(rep.Forecast.ProjectedPercentage)},
		{"Days remaining", fmt.Sprintf("%d of %d", rep.Forecast.DaysRemaining, rep.Forecast.DaysInMonth)},
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Budget", "Value"},
		Rows:    rows,
	}))

	switch {
	case rep.Settings.MonthlyLimit <= 0:
		fmt.Println(cli.RenderMuted("  Set a limit with `costdeck setup` or COSTDECK_MONTHLY_LIMIT."))
	case !rep.Status.Active:
		fmt.Println(cli.RenderMuted("  Alerts are off for this plan; state is shown for reference."))
	}
}
