package model

// BillingType says whether usage is metered per call or flat-rate.
type BillingType string

const (
	BillingAPI          BillingType = "api"
	BillingSubscription BillingType = "subscription"
)

// DefaultWarningThreshold is the warning threshold used when none is configured.
const DefaultWarningThreshold = 80.0

// BudgetSettings is caller-supplied budget configuration.
type BudgetSettings struct {
	BillingType             BillingType `json:"billingType"`
	MonthlyLimit            float64     `json:"monthlyLimit"`
	WarningThresholdPercent float64     `json:"warningThresholdPercent"`
	AlertsEnabled           bool        `json:"alertsEnabled"`
}

// BudgetState is the three-valued classification of spend against a limit.
type BudgetState string

const (
	BudgetOK       BudgetState = "ok"
	BudgetWarning  BudgetState = "warning"
	BudgetExceeded BudgetState = "exceeded"
)

// BudgetStatus is derived from a CostSnapshot and BudgetSettings.
type BudgetStatus struct {
	Percentage float64     `json:"percentage"`
	State      BudgetState `json:"state"`
	// Active reports whether warning/exceeded should be surfaced at all.
	Active bool `json:"active"`
}

// BudgetForecast holds the month-end projection derived from today's spend.
type BudgetForecast struct {
	DailyBurnRate       float64 `json:"dailyBurnRate"`
	ProjectedMonthly    float64 `json:"projectedMonthly"`
	DaysInMonth         int     `json:"daysInMonth"`
	DaysRemaining       int     `json:"daysRemaining"`
	ProjectedPercentage float64 `json:"projectedPercentage"`
}
