package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/theirongolddev/costdeck/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders a unicode sparkline from values.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}

	peak := 0.0
	for _, v := range values {
		peak = math.Max(peak, v)
	}
	if peak == 0 {
		peak = 1
	}

	var buf strings.Builder
	for _, v := range values {
		idx := int(v / peak * float64(len(sparkBlocks)-1))
		idx = max(0, min(idx, len(sparkBlocks)-1))
		buf.WriteRune(sparkBlocks[idx])
	}
	return lipgloss.NewStyle().Foreground(color).Render(buf.String())
}

// BarChart renders a vertical bar chart of height rows with a y-axis and
// optional x labels (one per value). Narrow areas degrade to a sparkline.
func BarChart(values []float64, labels []string, color lipgloss.Color, width, height int) string {
	if len(values) == 0 {
		return ""
	}
	if width < 15 || height < 3 {
		return Sparkline(values, color)
	}

	t := theme.Active
	axisStyle := lipgloss.NewStyle().Foreground(t.TextDim)
	barStyle := lipgloss.NewStyle().Foreground(color)

	peak := 0.0
	for _, v := range values {
		peak = math.Max(peak, v)
	}
	step := chartTickStep(peak)
	ceiling := math.Max(step, math.Ceil(peak/step)*step)

	yLabelW := max(4, len(formatChartLabel(ceiling))+1)
	n := len(values)
	barW := max(1, min(5, (width-yLabelW-1-(n-1))/n))

	var b strings.Builder
	for row := height; row >= 1; row-- {
		top := ceiling * float64(row) / float64(height)
		bottom := ceiling * float64(row-1) / float64(height)

		label := ""
		switch row {
		case height:
			label = formatChartLabel(ceiling)
		case (height + 1) / 2:
			label = formatChartLabel(ceiling * float64(row) / float64(height))
		}
		b.WriteString(axisStyle.Render(fmt.Sprintf("%*s│", yLabelW, label)))

		for i, v := range values {
			if i > 0 {
				b.WriteByte(' ')
			}
			switch {
			case v >= top:
				b.WriteString(barStyle.Render(strings.Repeat("█", barW)))
			case v > bottom:
				idx := int((v - bottom) / (top - bottom) * float64(len(sparkBlocks)))
				idx = max(0, min(idx, len(sparkBlocks)-1))
				b.WriteString(barStyle.Render(strings.Repeat(string(sparkBlocks[idx]), barW)))
			default:
				b.WriteString(strings.Repeat(" ", barW))
			}
		}
		b.WriteByte('\n')
	}

	axisLen := n*barW + n - 1
	b.WriteString(axisStyle.Render(fmt.Sprintf("%*s└%s", yLabelW, "0", strings.Repeat("─", axisLen))))

	if len(labels) == n {
		b.WriteByte('\n')
		b.WriteString(strings.Repeat(" ", yLabelW+1))
		b.WriteString(axisStyle.Render(xAxisLabels(labels, barW, axisLen)))
	}
	return b.String()
}

// xAxisLabels places labels under their bars, skipping any that would overlap.
func xAxisLabels(labels []string, barW, axisLen int) string {
	buf := []byte(strings.Repeat(" ", axisLen))
	lastEnd := -1
	for i, lbl := range labels {
		pos := i * (barW + 1)
		if pos <= lastEnd || pos+len(lbl) > axisLen {
			continue
		}
		copy(buf[pos:], lbl)
		lastEnd = pos + len(lbl)
	}
	return strings.TrimRight(string(buf), " ")
}

// chartTickStep computes a round tick interval targeting about five ticks.
func chartTickStep(maxVal float64) float64 {
	if maxVal <= 0 {
		return 1
	}
	rough := maxVal / 5
	base := math.Pow(10, math.Floor(math.Log10(rough)))
	switch frac := rough / base; {
	case frac < 1.5:
		return base
	case frac < 3.5:
		return 2 * base
	default:
		return 5 * base
	}
}

func formatChartLabel(v float64) string {
	switch {
	case v >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.1fk", v/1e3)
	case v >= 1 && v == math.Trunc(v):
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.1f", v)
	}
}
