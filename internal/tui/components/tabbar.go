package components

import (
	"strings"

	"github.com/theirongolddev/costdeck/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Tab represents a single tab in the tab bar.
type Tab struct {
	Name string
	Key  rune
}

// Tabs defines the dashboard tabs in display order.
var Tabs = []Tab{
	{Name: "Overview", Key: 'o'},
	{Name: "Models", Key: 'm'},
	{Name: "Analytics", Key: 'a'},
	{Name: "Sessions", Key: 's'},
}

// RenderTabBar renders the tab bar with the given active index.
func RenderTabBar(activeIdx int) string {
	t := theme.Active

	activeStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true).Underline(true)
	inactiveStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	keyStyle := lipgloss.NewStyle().Foreground(t.TextDim)

	parts := make([]string, len(Tabs))
	for i, tab := range Tabs {
		name := inactiveStyle.Render(tab.Name)
		if i == activeIdx {
			name = activeStyle.Render(tab.Name)
		}
		parts[i] = keyStyle.Render(string(tab.Key)+":") + name
	}
	return " " + strings.Join(parts, "  ")
}

// TabIdxByKey returns the tab index for a key press, or -1.
func TabIdxByKey(key rune) int {
	for i, tab := range Tabs {
		if tab.Key == key {
			return i
		}
	}
	if key >= '1' && int(key-'1') < len(Tabs) {
		return int(key - '1')
	}
	return -1
}
