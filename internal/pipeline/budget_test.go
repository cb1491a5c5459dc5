package pipeline

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/theirongolddev/costdeck/internal/model"
)

func apiSettings(limit, threshold float64) model.BudgetSettings {
	return model.BudgetSettings{
		BillingType:             model.BillingAPI,
		MonthlyLimit:            limit,
		WarningThresholdPercent: threshold,
		AlertsEnabled:           true,
	}
}

func TestEvaluateBudget(t *testing.T) {
	tests := []struct {
		name     string
		cost     float64
		settings model.BudgetSettings
		want     model.BudgetStatus
	}{
		{"at limit", 100, apiSettings(100, 80), model.BudgetStatus{Percentage: 100, State: model.BudgetExceeded, Active: true}},
		{"at threshold", 80, apiSettings(100, 80), model.BudgetStatus{Percentage: 80, State: model.BudgetWarning, Active: true}},
		{"below threshold", 79.99, apiSettings(100, 80), model.BudgetStatus{Percentage: 79.99, State: model.BudgetOK, Active: true}},
		{"over limit", 250, apiSettings(100, 80), model.BudgetStatus{Percentage: 250, State: model.BudgetExceeded, Active: true}},
		{"zero limit", 500, apiSettings(0, 80), model.BudgetStatus{State: model.BudgetOK, Active: true}},
		{"negative limit", 500, apiSettings(-10, 80), model.BudgetStatus{State: model.BudgetOK, Active: true}},
		{"threshold out of range", 85, apiSettings(100, 150), model.BudgetStatus{Percentage: 85, State: model.BudgetWarning, Active: true}},
		{"threshold unset", 79, apiSettings(100, 0), model.BudgetStatus{Percentage: 79, State: model.BudgetOK, Active: true}},
		{"custom threshold", 50, apiSettings(100, 50), model.BudgetStatus{Percentage: 50, State: model.BudgetWarning, Active: true}},
		{
			"subscription inactive",
			120,
			model.BudgetSettings{BillingType: model.BillingSubscription, MonthlyLimit: 100, WarningThresholdPercent: 80, AlertsEnabled: true},
			model.BudgetStatus{Percentage: 120, State: model.BudgetExceeded, Active: false},
		},
		{
			"alerts disabled",
			90,
			model.BudgetSettings{BillingType: model.BillingAPI, MonthlyLimit: 100, WarningThresholdPercent: 80},
			model.BudgetStatus{Percentage: 90, State: model.BudgetWarning, Active: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateBudget(model.CostSnapshot{CurrentMonthCost: tt.cost}, tt.settings)
			assert.Equal(t, tt.want.State, got.State)
			assert.Equal(t, tt.want.Active, got.Active)
			assert.InDelta(t, tt.want.Percentage, got.Percentage, 1e-9)
		})
	}
}

func TestEvaluateBudget_Idempotent(t *testing.T) {
	snap := model.CostSnapshot{CurrentMonthCost: 81.5, TodayCost: 3}
	settings := apiSettings(100, 80)

	first := EvaluateBudget(snap, settings)
	second := EvaluateBudget(snap, settings)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("EvaluateBudget not idempotent (-first +second):\n%s", diff)
	}
}

func TestForecast(t *testing.T) {
	now := time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)
	f := Forecast(model.CostSnapshot{TodayCost: 10}, apiSettings(600, 80), now)

	assert.Equal(t, 10.0, f.DailyBurnRate)
	assert.Equal(t, 300.0, f.ProjectedMonthly)
	assert.Equal(t, 30, f.DaysInMonth)
	assert.Equal(t, 20, f.DaysRemaining)
	assert.InDelta(t, 50.0, f.ProjectedPercentage, 1e-9)

	f = Forecast(model.CostSnapshot{TodayCost: 10}, apiSettings(0, 80), now)
	assert.Zero(t, f.ProjectedPercentage)
}
