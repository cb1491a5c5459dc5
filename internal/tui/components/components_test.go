package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/costdeck/internal/model"
)

func TestLayoutRow(t *testing.T) {
	tests := []struct {
		total, n int
		want     []int
	}{
		{100, 4, []int{25, 25, 25, 25}},
		{10, 3, []int{4, 3, 3}},
		{5, 0, nil},
	}
	for _, tt := range tests {
		got := LayoutRow(tt.total, tt.n)
		if len(got) != len(tt.want) {
			t.Fatalf("LayoutRow(%d, %d) = %v, want %v", tt.total, tt.n, got, tt.want)
		}
		sum := 0
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("LayoutRow(%d, %d)[%d] = %d, want %d", tt.total, tt.n, i, got[i], tt.want[i])
			}
			sum += got[i]
		}
		if tt.n > 0 && sum != tt.total {
			t.Errorf("LayoutRow(%d, %d) sums to %d", tt.total, tt.n, sum)
		}
	}
}

func TestMetricCardRowWidth(t *testing.T) {
	row := MetricCardRow([]Metric{
		{Label: "Month", Value: "$12.00"},
		{Label: "Today", Value: "$1.50", Note: "3 sessions"},
		{Label: "Budget", Value: "WARNING"},
	}, 90)

	for i, line := range strings.Split(row, "\n") {
		if w := lipgloss.Width(line); w != 90 {
			t.Errorf("line %d width = %d, want 90", i, w)
		}
	}
}

func TestCardRowHeightMatchesTallest(t *testing.T) {
	short := ContentCard("Short", "one", 22)
	tall := ContentCard("Tall", "1\n2\n3\n4\n5", 22)

	joined := CardRow([]string{tall, short})
	if got, want := lipgloss.Height(joined), lipgloss.Height(tall); got != want {
		t.Errorf("joined height = %d, want %d", got, want)
	}
}

func TestBudgetBarShowsTruePercentage(t *testing.T) {
	bar := BudgetBar(model.BudgetStatus{Percentage: 150, State: model.BudgetExceeded, Active: true}, 40)
	if !strings.Contains(bar, "150.0%") {
		t.Errorf("bar %q missing uncapped percentage", bar)
	}
	if w := lipgloss.Width(bar); w != 40 {
		t.Errorf("bar width = %d, want 40", w)
	}
}

func TestTabIdxByKey(t *testing.T) {
	tests := []struct {
		key  rune
		want int
	}{
		{'o', 0},
		{'a', 2},
		{'4', 3},
		{'5', -1},
		{'z', -1},
	}
	for _, tt := range tests {
		if got := TabIdxByKey(tt.key); got != tt.want {
			t.Errorf("TabIdxByKey(%q) = %d, want %d", tt.key, got, tt.want)
		}
	}
}

func TestBarChart(t *testing.T) {
	out := BarChart([]float64{1, 4, 2}, []string{"a", "b", "c"}, lipgloss.Color("2"), 40, 4)
	lines := strings.Split(out, "\n")
	// height rows + axis + labels
	if len(lines) != 6 {
		t.Fatalf("got %d lines, want 6:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[5], "a") || !strings.Contains(lines[5], "c") {
		t.Errorf("labels row = %q", lines[5])
	}

	if got := BarChart([]float64{1, 2}, nil, lipgloss.Color("2"), 10, 4); strings.Contains(got, "\n") {
		t.Errorf("narrow chart should fall back to a sparkline, got %q", got)
	}
}
