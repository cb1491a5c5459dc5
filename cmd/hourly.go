package cmd

import (
	"fmt"

	"github.com/theirongolddev/costdeck/internal/cli"

	"github.com/spf13/cobra"
)

var hourlyCmd = &cobra.Command{
	Use:   "hourly",
	Short: "Session starts by hour of day",
	RunE:  runHourly,
}

func init() {
	rootCmd.AddCommand(hourlyCmd)
}

func runHourly(cmd *cobra.Command, _ []string) error {
	report, _, _, err := analyze(cmd)
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(report.HourlyActivity)
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("ACTIVITY BY HOUR  Last %dd (local time)", report.RangeDays)))
	fmt.Println()

	peakHour := 0
	for h, n := range report.HourlyActivity {
		if n > report.HourlyActivity[peakHour] {
			peakHour = h
		}
	}
	peak := report.HourlyActivity[peakHour]

	for h, n := range report.HourlyActivity {
		fmt.Printf("  %02d:00 │ %5s │ %s\n", h, cli.FormatNumber(int64(n)), hourBar(n, peak, 40))
	}

	if peak > 0 {
		fmt.Printf("\n  Peak: %02d:00 (%s sessions)\n\n", peakHour, cli.FormatNumber(int64(peak)))
	}
	return nil
}
