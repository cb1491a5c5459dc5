package cmd

import (
	"fmt"
	"time"

	"github.com/theirongolddev/costdeck/internal/cli"
	"github.com/theirongolddev/costdeck/internal/pipeline"

	"github.com/spf13/cobra"
)

var costsCmd = &cobra.Command{
	Use:   "costs",
	Short: "Month and today spend with per-model and active-session breakdown",
	RunE:  runCosts,
}

func init() {
	rootCmd.AddCommand(costsCmd)
}

func runCosts(cmd *cobra.Command, _ []string) error {
	now := time.Now()
	result, err := loadData(cmd.Context(), now)
	if err != nil {
		return err
	}
	pricing, err := pricingResolver()
	if err != nil {
		return err
	}

	snap := pipeline.AggregateCosts(result.Sessions, pricing, now)
	if flagJSON {
		return printJSON(snap)
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("COSTS  %s", now.Format("January 2006"))))
	fmt.Println()
	fmt.Printf("  Month to date: %s\n", cli.FormatCost(snap.CurrentMonthCost))
	fmt.Printf("  Today:         %s\n\n", cli.FormatCost(snap.TodayCost))

	if len(snap.CostByModel) == 0 {
		fmt.Println("  No usage this month.")
		return nil
	}

	rows := make([][]string, 0, len(snap.CostByModel)+2)
	for _, mc := range snap.CostByModel {
		share := ""
		if snap.CurrentMonthCost > 0 {
			share = cli.FormatPercent(mc.Cost / snap.CurrentMonthCost * 100)
		}
		rows = append(rows, []string{truncate(mc.ModelName, 24), cli.FormatCost(mc.Cost), share})
	}
	rows = append(rows, []string{"---"}, []string{"TOTAL", cli.FormatCost(snap.CurrentMonthCost), ""})

	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "By Model",
		Headers: []string{"Model", "Cost", "Share"},
		Rows:    rows,
	}))

	if len(snap.ActiveSessionCosts) > 0 {
		active := make([][]string, 0, len(snap.ActiveSessionCosts))
		for _, a := range snap.ActiveSessionCosts {
			active = append(active, []string{
				truncate(a.SessionID, 12), truncate(a.ProjectName, 18), truncate(a.Model, 22), cli.FormatCost(a.Cost),
			})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Active Sessions",
			Headers: []string{"Session", "Project", "Model", "Cost"},
			Rows:    active,
		}))
	}
	return nil
}
