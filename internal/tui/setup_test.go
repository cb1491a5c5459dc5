package tui

import (
	"errors"
	"testing"

	"github.com/theirongolddev/costdeck/internal/config"
	"github.com/theirongolddev/costdeck/internal/model"
)

func TestApplySetup(t *testing.T) {
	cfg, err := ApplySetup(config.DefaultConfig(), SetupValues{
		BillingType:  "api",
		MonthlyLimit: "$150",
		Threshold:    "75",
		Alerts:       true,
		Theme:        "tokyo-night",
	})
	if err != nil {
		t.Fatalf("ApplySetup: %v", err)
	}
	if cfg.Budget.MonthlyUSD == nil || *cfg.Budget.MonthlyUSD != 150 {
		t.Errorf("monthly limit = %v", cfg.Budget.MonthlyUSD)
	}
	if cfg.Budget.WarningThreshold != 75 || !cfg.Budget.AlertsEnabled {
		t.Errorf("budget = %+v", cfg.Budget)
	}
	if cfg.TUI.Theme != "tokyo-night" {
		t.Errorf("theme = %q", cfg.TUI.Theme)
	}
}

func TestApplySetup_SubscriptionWithoutLimit(t *testing.T) {
	cfg, err := ApplySetup(config.DefaultConfig(), SetupValues{
		BillingType: "subscription",
		Threshold:   "80",
	})
	if err != nil {
		t.Fatalf("ApplySetup: %v", err)
	}
	if cfg.Budget.MonthlyUSD != nil {
		t.Errorf("limit should stay unset, got %v", *cfg.Budget.MonthlyUSD)
	}
	if cfg.Budget.BillingType != string(model.BillingSubscription) {
		t.Errorf("billing type = %q", cfg.Budget.BillingType)
	}
}

func TestApplySetup_Invalid(t *testing.T) {
	tests := []struct {
		name string
		vals SetupValues
	}{
		{"api needs limit", SetupValues{BillingType: "api", Threshold: "80"}},
		{"negative limit", SetupValues{BillingType: "api", MonthlyLimit: "-5", Threshold: "80"}},
		{"threshold over 100", SetupValues{BillingType: "api", MonthlyLimit: "10", Threshold: "120"}},
		{"threshold not a number", SetupValues{BillingType: "api", MonthlyLimit: "10", Threshold: "lots"}},
		{"unknown billing", SetupValues{BillingType: "team", MonthlyLimit: "10", Threshold: "80"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ApplySetup(config.DefaultConfig(), tt.vals)
			if !errors.Is(err, config.ErrInvalidSettings) {
				t.Errorf("err = %v, want ErrInvalidSettings", err)
			}
		})
	}
}

func TestSetupValuesFrom(t *testing.T) {
	cfg := config.DefaultConfig()
	limit := 42.5
	cfg.Budget.BillingType = "api"
	cfg.Budget.MonthlyUSD = &limit

	v := SetupValuesFrom(cfg, t.TempDir())
	if v.BillingType != "api" || v.MonthlyLimit != "42.50" || v.Threshold != "80" {
		t.Errorf("values = %+v", v)
	}
}
