package components

import (
	"fmt"

	"github.com/theirongolddev/costdeck/internal/model"
	"github.com/theirongolddev/costdeck/internal/tui/theme"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// StateColor maps a budget state to its theme color.
func StateColor(state model.BudgetState) lipgloss.Color {
	t := theme.Active
	switch state {
	case model.BudgetExceeded:
		return t.Red
	case model.BudgetWarning:
		return t.Orange
	default:
		return t.Green
	}
}

// BudgetBar renders spend against the monthly limit. The bar saturates at
// 100% while the label keeps the true percentage.
func BudgetBar(st model.BudgetStatus, width int) string {
	t := theme.Active

	color := StateColor(st.State)
	if !st.Active {
		color = t.TextMuted
	}

	pctStr := fmt.Sprintf("%5.1f%%", st.Percentage)
	barW := max(4, width-lipgloss.Width(pctStr)-1)

	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(barW),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	frac := st.Percentage / 100
	frac = max(0, min(frac, 1))

	return bar.ViewAs(frac) + " " +
		lipgloss.NewStyle().Foreground(color).Bold(true).Render(pctStr)
}

// LoadingBar renders file parsing progress during the initial load.
func LoadingBar(current, total, width int) string {
	t := theme.Active
	if total <= 0 {
		return ""
	}
	frac := max(0, min(float64(current)/float64(total), 1))

	bar := progress.New(
		progress.WithSolidFill(string(t.Accent)),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)
	return bar.ViewAs(frac)
}
