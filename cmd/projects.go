package cmd

import (
	"fmt"

	"github.com/theirongolddev/costdeck/internal/cli"

	"github.com/spf13/cobra"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Project ranking by session count",
	RunE:  runProjects,
}

func init() {
	rootCmd.AddCommand(projectsCmd)
}

func runProjects(cmd *cobra.Command, _ []string) error {
	report, sessions, pricing, err := analyze(cmd)
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(report.TopProjects)
	}
	if len(report.TopProjects) == 0 {
		fmt.Println("\n  No project data in the selected window.")
		return nil
	}

	costs := costsByProject(report, sessions, pricing)

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("PROJECTS  Last %dd", report.RangeDays)))
	fmt.Println()

	rows := make([][]string, 0, len(report.TopProjects))
	for i, p := range report.TopProjects {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			truncate(p.Project, 24),
			cli.FormatNumber(int64(p.Sessions)),
			cli.FormatCost(costs[p.Project]),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"#", "Project", "Sessions", "Cost"},
		Rows:    rows,
	}))
	return nil
}
