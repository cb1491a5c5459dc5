// Package components provides reusable widgets for the costdeck dashboard.
package components

import (
	"github.com/theirongolddev/costdeck/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Metric is one label/value pair shown in a MetricCard.
type Metric struct {
	Label string
	Value string
	Note  string
	// Color overrides the value color when set.
	Color lipgloss.Color
}

// LayoutRow distributes totalWidth into n widths that sum to exactly totalWidth.
// First items absorb the remainder from integer division.
func LayoutRow(totalWidth, n int) []int {
	if n <= 0 {
		return nil
	}
	base := totalWidth / n
	remainder := totalWidth % n
	widths := make([]int, n)
	for i := range widths {
		widths[i] = base
		if i < remainder {
			widths[i]++
		}
	}
	return widths
}

// MetricCard renders a small bordered card. outerWidth includes the border.
func MetricCard(m Metric, outerWidth int) string {
	t := theme.Active

	valueColor := t.TextPrimary
	if m.Color != "" {
		valueColor = m.Color
	}

	content := lipgloss.NewStyle().Foreground(t.TextMuted).Render(m.Label) + "\n" +
		lipgloss.NewStyle().Foreground(valueColor).Bold(true).Render(m.Value)
	if m.Note != "" {
		content += "\n" + lipgloss.NewStyle().Foreground(t.TextDim).Render(m.Note)
	}

	return cardStyle(outerWidth, t.Border).Render(content)
}

// MetricCardRow renders metric cards side by side, summing to totalWidth.
func MetricCardRow(metrics []Metric, totalWidth int) string {
	if len(metrics) == 0 {
		return ""
	}

	widths := LayoutRow(totalWidth, len(metrics))
	rendered := make([]string, len(metrics))
	for i, m := range metrics {
		rendered[i] = MetricCard(m, widths[i])
	}
	return CardRow(rendered)
}

// ContentCard renders a bordered card with an optional title.
func ContentCard(title, body string, outerWidth int) string {
	t := theme.Active

	content := ""
	if title != "" {
		content = lipgloss.NewStyle().Foreground(t.TextMuted).Bold(true).Render(title) + "\n"
	}
	content += body

	return cardStyle(outerWidth, t.Border).Render(content)
}

// CardRow joins pre-rendered cards horizontally.
func CardRow(cards []string) string {
	if len(cards) == 0 {
		return ""
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

// CardInnerWidth returns the usable text width inside a ContentCard.
func CardInnerWidth(outerWidth int) int {
	w := outerWidth - 4 // 2 border + 2 padding
	if w < 10 {
		w = 10
	}
	return w
}

func cardStyle(outerWidth int, border lipgloss.Color) lipgloss.Style {
	contentWidth := outerWidth - 2
	if contentWidth < 10 {
		contentWidth = 10
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Width(contentWidth).
		Padding(0, 1)
}
