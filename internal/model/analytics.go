package model

import "time"

// AnalyticsTotals sums activity over the sessions inside an analytics window.
type AnalyticsTotals struct {
	SessionCount  int     `json:"sessionCount"`
	MessageCount  int     `json:"messageCount"`
	ToolCallCount int     `json:"toolCallCount"`
	EstimatedCost float64 `json:"estimatedCost"`
}

// DailyCount holds the number of sessions started on one local calendar day.
type DailyCount struct {
	Date     time.Time `json:"date"`
	Sessions int       `json:"sessions"`
}

// ProjectRank is one entry of the project ranking.
type ProjectRank struct {
	Project  string `json:"project"`
	Sessions int    `json:"sessions"`
}

// AnalyticsReport holds usage analytics over a trailing window of days.
type AnalyticsReport struct {
	RangeDays                 int             `json:"rangeDays"`
	WindowStart               time.Time       `json:"windowStart"`
	WindowEnd                 time.Time       `json:"windowEnd"`
	Totals                    AnalyticsTotals `json:"totals"`
	DailySessionCounts        []DailyCount    `json:"dailySessionCounts"`
	HourlyActivity            [24]int         `json:"hourlyActivity"`
	TopProjects               []ProjectRank   `json:"topProjects"`
	AverageMessagesPerSession float64         `json:"averageMessagesPerSession"`
}
