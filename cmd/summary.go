package cmd

import (
	"fmt"
	"time"

	"github.com/theirongolddev/costdeck/internal/cli"
	"github.com/theirongolddev/costdeck/internal/model"
	"github.com/theirongolddev/costdeck/internal/pipeline"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Month-to-date cost, budget and activity summary",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

// summaryReport is the --json shape of the summary command.
type summaryReport struct {
	Costs     model.CostSnapshot    `json:"costs"`
	Budget    model.BudgetStatus    `json:"budget"`
	Forecast  model.BudgetForecast  `json:"forecast"`
	Analytics model.AnalyticsReport `json:"analytics"`
}

func runSummary(cmd *cobra.Command, _ []string) error {
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

	costs := pipeline.AggregateCosts(result.Sessions, pricing, now)
	report, err := pipeline.Analyze(result.Sessions, pricing, flagRange, now)
	if err != nil {
		return err
	}
	sum := summaryReport{
		Costs:     costs,
		Budget:    pipeline.EvaluateBudget(costs, settings),
		Forecast:  pipeline.Forecast(costs, settings, now),
		Analytics: report,
	}
	if flagJSON {
		return printJSON(sum)
	}

	if len(result.Sessions) == 0 {
		fmt.Println("\n  No Claude Code sessions found.")
		fmt.Println("  Use Claude Code first, then come back!")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("COSTDECK  %s", now.Format("January 2006"))))
	fmt.Println()

	rows := [][]string{
		{"Month to date", cli.FormatCost(sum.Costs.CurrentMonthCost)},
		{"Today", cli.FormatCost(sum.Costs.TodayCost)},
		{"Active sessions", cli.FormatNumber(int64(len(sum.Costs.ActiveSessionCosts)))},
		{"---"},
		{"Projected month", cli.FormatCost(sum.Forecast.ProjectedMonthly)},
		{"Days remaining", fmt.Sprintf("%d of %d", sum.Forecast.DaysRemaining, sum.Forecast.DaysInMonth)},
	}
	if settings.MonthlyLimit > 0 {
		rows = append(rows,
			[]string{"---"},
			[]string{"Monthly limit", cli.FormatCost(settings.MonthlyLimit)},
			[]string{"Used", cli.FormatPercent(sum.Budget.Percentage)},
			[]string{"Budget", cli.RenderBudgetState(sum.Budget)},
		)
	}
	rows = append(rows,
		[]string{"---"},
		[]string{fmt.Sprintf("Sessions (%dd)", flagRange), cli.FormatNumber(int64(report.Totals.SessionCount))},
		[]string{fmt.Sprintf("Messages (%dd)", flagRange), cli.FormatNumber(int64(report.Totals.MessageCount))},
		[]string{fmt.Sprintf("Est. cost (%dd)", flagRange), cli.FormatCost(report.Totals.EstimatedCost)},
	)

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))

	if settings.BillingType == model.BillingSubscription {
		fmt.Println(cli.RenderMuted("  Subscription plan: costs are API-equivalent estimates."))
	}
	return nil
}
