package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/costdeck/internal/cli"
	"github.com/theirongolddev/costdeck/internal/model"
	"github.com/theirongolddev/costdeck/internal/pipeline"

	"github.com/spf13/cobra"
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Usage analytics over the trailing --range days",
	RunE:  runAnalytics,
}

func init() {
	rootCmd.AddCommand(analyticsCmd)
}

// analyze loads sessions and runs the analytics windower for --range.
func analyze(cmd *cobra.Command) (model.AnalyticsReport, []model.SessionRecord, pipeline.PricingResolver, error) {
	now := time.Now()
	result, err := loadData(cmd.Context(), now)
	if err != nil {
		return model.AnalyticsReport{}, nil, nil, err
	}
	pricing, err := pricingResolver()
	if err != nil {
		return model.AnalyticsReport{}, nil, nil, err
	}
	report, err := pipeline.Analyze(result.Sessions, pricing, flagRange, now)
	if err != nil {
		return model.AnalyticsReport{}, nil, nil, fmt.Errorf("--range: %w", err)
	}
	return report, result.Sessions, pricing, nil
}

func runAnalytics(cmd *cobra.Command, _ []string) error {
	report, _, _, err := analyze(cmd)
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(report)
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("ANALYTICS  Last %dd", report.RangeDays)))
	fmt.Println()

	if report.Totals.SessionCount == 0 {
		fmt.Println("  No sessions in the selected window.")
		return nil
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Sessions", cli.FormatNumber(int64(report.Totals.SessionCount))},
			{"Messages", cli.FormatNumber(int64(report.Totals.MessageCount))},
			{"Tool calls", cli.FormatNumber(int64(report.Totals.ToolCallCount))},
			{"Msgs/session", fmt.Sprintf("%.1f", report.AverageMessagesPerSession)},
			{"Est. cost", cli.FormatCost(report.Totals.EstimatedCost)},
		},
	}))

	daily := make([]float64, len(report.DailySessionCounts))
	for i, d := range report.DailySessionCounts {
		daily[i] = float64(d.Sessions)
	}
	fmt.Printf("  Sessions/day  %s\n", cli.RenderSparkline(daily))

	hourly := make([]float64, len(report.HourlyActivity))
	for h, n := range report.HourlyActivity {
		hourly[h] = float64(n)
	}
	fmt.Printf("  By hour       %s\n\n", cli.RenderSparkline(hourly))

	if len(report.TopProjects) > 0 {
		fmt.Println("  Top projects")
		peak := float64(report.TopProjects[0].Sessions)
		for _, p := range report.TopProjects[:min(len(report.TopProjects), 10)] {
			label := fmt.Sprintf("%-18s %4d", truncate(p.Project, 18), p.Sessions)
			fmt.Println(cli.RenderHorizontalBar(label, float64(p.Sessions), peak, 30))
		}
		fmt.Println()
	}
	return nil
}

// costsByDay sums session cost per daily bucket of report.
func costsByDay(report model.AnalyticsReport, sessions []model.SessionRecord, pricing pipeline.PricingResolver) []float64 {
	costs := make([]float64, len(report.DailySessionCounts))
	idx := make(map[string]int, len(costs))
	for i, d := range report.DailySessionCounts {
		idx[d.Date.Format(time.DateOnly)] = i
	}
	loc := report.WindowEnd.Location()
	for _, s := range pipeline.FilterWindow(sessions, report.WindowStart, report.WindowEnd) {
		i, ok := idx[s.StartTime.In(loc).Format(time.DateOnly)]
		if !ok {
			i = 0
		}
		costs[i] += pipeline.SessionCost(s, pricing.Resolve(s.Model))
	}
	return costs
}

// costsByProject sums session cost per project inside the report window.
func costsByProject(report model.AnalyticsReport, sessions []model.SessionRecord, pricing pipeline.PricingResolver) map[string]float64 {
	costs := make(map[string]float64)
	for _, s := range pipeline.FilterWindow(sessions, report.WindowStart, report.WindowEnd) {
		costs[s.ProjectName] += pipeline.SessionCost(s, pricing.Resolve(s.Model))
	}
	return costs
}

func hourBar(n, peak, width int) string {
	if peak == 0 {
		return ""
	}
	return strings.Repeat("█", n*width/peak)
}
