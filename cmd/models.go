package cmd

import (
	"fmt"
	"time"

	"github.com/theirongolddev/costdeck/internal/cli"
	"github.com/theirongolddev/costdeck/internal/pipeline"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Token usage and cost by model this month",
	RunE:  runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, _ []string) error {
	now := time.Now()
	result, err := loadData(cmd.Context(), now)
	if err != nil {
		return err
	}
	pricing, err := pricingResolver()
	if err != nil {
		return err
	}

	byModel := pipeline.AggregateCosts(result.Sessions, pricing, now).CostByModel
	if flagJSON {
		return printJSON(byModel)
	}
	if len(byModel) == 0 {
		fmt.Println("\n  No usage this month.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("MODELS  %s", now.Format("January 2006"))))
	fmt.Println()

	rows := make([][]string, 0, len(byModel))
	for _, mc := range byModel {
		p := pricing.Resolve(mc.ModelID)
		rows = append(rows, []string{
			truncate(mc.ModelName, 24),
			cli.FormatNumber(int64(mc.SessionCount)),
			cli.FormatTokens(mc.InputTokens),
			cli.FormatTokens(mc.OutputTokens),
			cli.FormatTokens(mc.CachedTokens),
			fmt.Sprintf("$%.2f/$%.2f", p.InputPerMTok, p.OutputPerMTok),
			cli.FormatCost(mc.Cost),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Model", "Sessions", "Input", "Output", "Cached", "Price/MTok", "Cost"},
		Rows:    rows,
	}))
	return nil
}
