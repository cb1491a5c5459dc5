package cli

import (
	"testing"
	"time"

	"github.com/theirongolddev/costdeck/internal/model"
)

func TestFormatCost(t *testing.T) {
	tests := map[float64]string{
		0:       "$0.00",
		0.004:   "<$0.01",
		3.456:   "$3.46",
		10.5:    "$10.5",
		250.4:   "$250",
		12345.6: "$12,346",
	}
	for in, want := range tests {
		if got := FormatCost(in); got != want {
			t.Errorf("FormatCost(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatTokens(t *testing.T) {
	tests := map[int64]string{
		999:           "999",
		1234:          "1.2K",
		1_234_567:     "1.2M",
		1_234_567_890: "1.2B",
	}
	for in, want := range tests {
		if got := FormatTokens(in); got != want {
			t.Errorf("FormatTokens(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := map[time.Duration]string{
		0:                         "0s",
		45 * time.Second:          "45s",
		125 * time.Second:         "2m",
		time.Hour + 2*time.Minute: "1h 2m",
		-5 * time.Second:          "0s",
	}
	for in, want := range tests {
		if got := FormatDuration(in); got != want {
			t.Errorf("FormatDuration(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	if got := FormatNumber(1234567); got != "1,234,567" {
		t.Errorf("FormatNumber = %q", got)
	}
	if got := FormatNumber(-1000); got != "-1,000" {
		t.Errorf("FormatNumber negative = %q", got)
	}
}

func TestFormatBudgetState(t *testing.T) {
	if got := FormatBudgetState(model.BudgetStatus{State: model.BudgetWarning, Active: true}); got != "WARNING" {
		t.Errorf("active = %q", got)
	}
	if got := FormatBudgetState(model.BudgetStatus{State: model.BudgetExceeded}); got != "EXCEEDED (not alerting)" {
		t.Errorf("inactive = %q", got)
	}
}
