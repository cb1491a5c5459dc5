package components

import (
	"strings"

	"github.com/theirongolddev/costdeck/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// RenderStatusBar renders the bottom status bar with key hints on the left
// and data freshness on the right.
func RenderStatusBar(width int, right string, refreshing bool) string {
	t := theme.Active

	left := " ←→ tabs  [ ] range  r refresh  q quit"
	if refreshing {
		right = "refreshing… " + right
	}
	if right != "" {
		right += " "
	}

	gap := max(0, width-lipgloss.Width(left)-lipgloss.Width(right))
	return lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Width(width).
		Render(left + strings.Repeat(" ", gap) + right)
}
