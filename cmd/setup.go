package cmd

import (
	"errors"
	"fmt"

	"github.com/theirongolddev/costdeck/internal/config"
	"github.com/theirongolddev/costdeck/internal/source"
	"github.com/theirongolddev/costdeck/internal/tui"
	"github.com/theirongolddev/costdeck/internal/tui/theme"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive budget and display setup",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	files, _ := source.ScanDir(flagDataDir)

	cfg, err := tui.RunSetup(appConfig, flagDataDir, len(files))
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled, nothing saved.")
			return nil
		}
		return err
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	theme.SetActive(cfg.TUI.Theme)

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.Path())
	fmt.Printf("  Found %d sessions across %d projects.\n", len(files), source.CountProjects(files))
	fmt.Println("  Run `costdeck setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}
