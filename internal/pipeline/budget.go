package pipeline

import (
	"time"

	"github.com/theirongolddev/costdeck/internal/model"
)

// EvaluateBudget classifies the snapshot's month-to-date spend against the
// configured limit. Each call is independent; there is no carried state.
//
// A non-positive limit reports 0% and ok. The classification is returned even
// when Active is false so callers can decide what to surface.
func EvaluateBudget(snap model.CostSnapshot, settings model.BudgetSettings) model.BudgetStatus {
	status := model.BudgetStatus{
		State:  model.BudgetOK,
		Active: settings.AlertsEnabled && settings.BillingType == model.BillingAPI,
	}

	limit := settings.MonthlyLimit
	if limit <= 0 {
		return status
	}

	threshold := settings.WarningThresholdPercent
	if threshold <= 0 || threshold > 100 {
		threshold = model.DefaultWarningThreshold
	}

	cost := snap.CurrentMonthCost
	status.Percentage = cost / limit * 100

	switch {
	case cost >= limit:
		status.State = model.BudgetExceeded
	case status.Percentage >= threshold:
		status.State = model.BudgetWarning
	}

	return status
}

// Forecast derives the month-end projection for the snapshot as of now.
func Forecast(snap model.CostSnapshot, settings model.BudgetSettings, now time.Time) model.BudgetForecast {
	days := DaysInMonth(now.Year(), now.Month())
	f := model.BudgetForecast{
		DailyBurnRate:    snap.TodayCost,
		ProjectedMonthly: ProjectMonthly(snap.TodayCost, now),
		DaysInMonth:      days,
		DaysRemaining:    days - now.Day(),
	}
	if settings.MonthlyLimit > 0 {
		f.ProjectedPercentage = f.ProjectedMonthly / settings.MonthlyLimit * 100
	}
	return f
}
