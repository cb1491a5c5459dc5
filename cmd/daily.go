package cmd

import (
	"fmt"

	"github.com/theirongolddev/costdeck/internal/cli"

	"github.com/spf13/cobra"
)

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Sessions and cost per local calendar day",
	RunE:  runDaily,
}

func init() {
	rootCmd.AddCommand(dailyCmd)
}

func runDaily(cmd *cobra.Command, _ []string) error {
	report, sessions, pricing, err := analyze(cmd)
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(report.DailySessionCounts)
	}

	costs := costsByDay(report, sessions, pricing)

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("DAILY USAGE  Last %dd", report.RangeDays)))
	fmt.Println()

	rows := make([][]string, 0, len(report.DailySessionCounts))
	for i := len(report.DailySessionCounts) - 1; i >= 0; i-- {
		d := report.DailySessionCounts[i]
		rows = append(rows, []string{
			cli.FormatDay(d.Date),
			cli.FormatNumber(int64(d.Sessions)),
			cli.FormatCost(costs[i]),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Day", "Sessions", "Cost"},
		Rows:    rows,
	}))
	return nil
}
