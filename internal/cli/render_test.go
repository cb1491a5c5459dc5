package cli

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestRenderTable_AlignsColumns(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"Model", "Cost"},
		Rows: [][]string{
			{"claude-opus-4-6", "$12.3"},
			{"---"},
			{"Total", "$1,204"},
		},
	})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 7 {
		t.Fatalf("got %d lines, want 7:\n%s", len(lines), out)
	}
	width := lipgloss.Width(lines[0])
	for i, l := range lines {
		if lipgloss.Width(l) != width {
			t.Errorf("line %d width %d, want %d", i, lipgloss.Width(l), width)
		}
	}
}

func TestRenderTable_Empty(t *testing.T) {
	if got := RenderTable(Table{}); got != "" {
		t.Errorf("empty table rendered %q", got)
	}
}

func TestRenderSparkline(t *testing.T) {
	if got := RenderSparkline([]float64{0, 1, 2}); len([]rune(got)) != 3 {
		t.Errorf("sparkline %q has wrong length", got)
	}
	if RenderSparkline(nil) != "" {
		t.Error("nil series should render empty")
	}
}
