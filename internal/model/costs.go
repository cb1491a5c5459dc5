package model

import "time"

// ModelCost holds aggregate spend and token counts for one resolved model.
type ModelCost struct {
	ModelID      string  `json:"modelId"`
	ModelName    string  `json:"modelName"`
	Cost         float64 `json:"cost"`
	InputTokens  int64   `json:"inputTokens"`
	OutputTokens int64   `json:"outputTokens"`
	CachedTokens int64   `json:"cachedTokens"`
	SessionCount int     `json:"sessionCount"`
}

// ActiveSessionCost itemizes the cost of one still-running session.
type ActiveSessionCost struct {
	SessionID   string  `json:"sessionId"`
	ProjectName string  `json:"projectName"`
	Cost        float64 `json:"cost"`
	Model       string  `json:"model"`
}

// CostSnapshot is the cost ledger recomputed from a session collection.
type CostSnapshot struct {
	CurrentMonthCost   float64             `json:"currentMonthCost"`
	TodayCost          float64             `json:"todayCost"`
	CostByModel        []ModelCost         `json:"costByModel"`
	ActiveSessionCosts []ActiveSessionCost `json:"activeSessionCosts"`
	// ComputedAt is advisory and excluded from equality checks.
	ComputedAt time.Time `json:"computedAt"`
}
