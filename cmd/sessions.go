package cmd

import (
	"fmt"
	"slices"
	"time"

	"github.com/theirongolddev/costdeck/internal/cli"
	"github.com/theirongolddev/costdeck/internal/model"
	"github.com/theirongolddev/costdeck/internal/pipeline"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Recent sessions with estimated cost",
	RunE:  runSessions,
}

var (
	sessionsLimit      int
	sessionsActiveOnly bool
)

func init() {
	sessionsCmd.Flags().IntVarP(&sessionsLimit, "limit", "l", 20, "Number of sessions to show")
	sessionsCmd.Flags().BoolVar(&sessionsActiveOnly, "active", false, "Only show active sessions")
	rootCmd.AddCommand(sessionsCmd)
}

func runSessions(cmd *cobra.Command, _ []string) error {
	now := time.Now()
	result, err := loadData(cmd.Context(), now)
	if err != nil {
		return err
	}
	pricing, err := pricingResolver()
	if err != nil {
		return err
	}

	since := now.Add(-time.Duration(flagRange) * 24 * time.Hour)
	sessions := pipeline.FilterWindow(result.Sessions, since, now)
	if sessionsActiveOnly {
		sessions = slices.DeleteFunc(sessions, func(s model.SessionRecord) bool {
			return s.Status != model.StatusActive
		})
	}

	slices.SortFunc(sessions, func(a, b model.SessionRecord) int {
		return b.StartTime.Compare(a.StartTime)
	})
	if sessionsLimit > 0 && len(sessions) > sessionsLimit {
		sessions = sessions[:sessionsLimit]
	}

	if flagJSON {
		return printJSON(sessions)
	}
	if len(sessions) == 0 {
		fmt.Println("\n  No sessions in the selected time range.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("SESSIONS  Last %dd (showing %d)", flagRange, len(sessions))))
	fmt.Println()

	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		project := s.ProjectName
		if s.IsSubagent {
			project += " (sub)"
		}
		status := ""
		if s.Status == model.StatusActive {
			status = "●"
		}

		rows = append(rows, []string{
			status,
			s.StartTime.Local().Format("Jan 02 15:04"),
			truncate(project, 18),
			truncate(s.Model, 20),
			cli.FormatDuration(s.Stats.Duration),
			cli.FormatNumber(int64(s.Stats.MessageCount)),
			cli.FormatTokens(s.Stats.InputTokens + s.Stats.OutputTokens),
			cli.FormatCost(pipeline.SessionCost(s, pricing.Resolve(s.Model))),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"", "Start", "Project", "Model", "Duration", "Msgs", "Tokens", "Cost"},
		Rows:    rows,
	}))
	return nil
}
