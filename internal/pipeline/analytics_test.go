package pipeline

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/costdeck/internal/model"
)

func TestAnalyze_InvalidRange(t *testing.T) {
	for _, days := range []int{0, 1, 8, 31, -7} {
		_, err := Analyze(nil, testPricing, days, time.Now())
		require.Error(t, err, "range %d", days)
		assert.True(t, errors.Is(err, ErrInvalidRange))
	}
}

func TestAnalyze_Empty(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	for _, days := range ValidRanges {
		report, err := Analyze(nil, testPricing, days, now)
		require.NoError(t, err)

		assert.Equal(t, days, report.RangeDays)
		assert.Equal(t, model.AnalyticsTotals{}, report.Totals)
		assert.Zero(t, report.AverageMessagesPerSession)
		assert.Equal(t, [24]int{}, report.HourlyActivity)
		assert.NotNil(t, report.TopProjects)
		assert.Empty(t, report.TopProjects)

		require.Len(t, report.DailySessionCounts, days+1)
		for _, d := range report.DailySessionCounts {
			assert.Zero(t, d.Sessions)
		}
		assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), report.DailySessionCounts[days].Date)
	}
}

func TestAnalyze_ExcludesOutOfWindow(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	old := session("old", "p", "m1", now.Add(-35*24*time.Hour), 1_000_000, 0, 0)
	fresh := session("new", "p", "m1", now.Add(-2*time.Hour), 1_000_000, 0, 0)

	report, err := Analyze([]model.SessionRecord{old, fresh}, testPricing, 7, now)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Totals.SessionCount)
	assert.InDelta(t, 3.0, report.Totals.EstimatedCost, 1e-9)

	var bucketed int
	for _, d := range report.DailySessionCounts {
		bucketed += d.Sessions
	}
	assert.Equal(t, 1, bucketed)
	assert.Equal(t, 1, report.DailySessionCounts[len(report.DailySessionCounts)-1].Sessions)
	assert.Equal(t, 1, report.HourlyActivity[10])
}

func TestAnalyze_TopProjectsByCount(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	sessions := []model.SessionRecord{
		session("1", "solo", "m1", now.Add(-time.Hour), 0, 0, 0),
		session("2", "pair", "m1", now.Add(-2*time.Hour), 0, 0, 0),
		session("3", "pair", "m2", now.Add(-3*time.Hour), 0, 0, 0),
	}

	report, err := Analyze(sessions, testPricing, 14, now)
	require.NoError(t, err)

	require.Len(t, report.TopProjects, 2)
	assert.Equal(t, model.ProjectRank{Project: "pair", Sessions: 2}, report.TopProjects[0])
	assert.Equal(t, model.ProjectRank{Project: "solo", Sessions: 1}, report.TopProjects[1])
}

func TestAnalyze_ProjectTieBreaksByName(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	sessions := []model.SessionRecord{
		session("1", "zeta", "m1", now.Add(-time.Hour), 0, 0, 0),
		session("2", "alpha", "m1", now.Add(-time.Hour), 0, 0, 0),
	}

	report, err := Analyze(sessions, testPricing, 7, now)
	require.NoError(t, err)
	assert.Equal(t, "alpha", report.TopProjects[0].Project)
}

func TestAnalyze_WindowInclusive(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	edge := session("edge", "p", "m1", now.Add(-7*24*time.Hour), 0, 0, 0)
	justOut := session("out", "p", "m1", now.Add(-7*24*time.Hour-time.Second), 0, 0, 0)
	atNow := session("now", "p", "m1", now, 0, 0, 0)
	future := session("future", "p", "m1", now.Add(time.Minute), 0, 0, 0)

	report, err := Analyze([]model.SessionRecord{edge, justOut, atNow, future}, testPricing, 7, now)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Totals.SessionCount)
	assert.Equal(t, 1, report.DailySessionCounts[0].Sessions)
	assert.Equal(t, 1, report.DailySessionCounts[7].Sessions)
	assert.Equal(t, 2, report.HourlyActivity[12])
}

func TestAnalyze_TotalsAndAverage(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	a := session("a", "p", "m1", now.Add(-24*time.Hour), 1_000_000, 0, 0)
	a.Stats.MessageCount = 10
	a.Stats.ToolCalls = 4
	b := session("b", "q", "m2", now.Add(-48*time.Hour), 0, 1_000_000, 0)
	b.Stats.MessageCount = 5
	b.Stats.ToolCalls = -3

	report, err := Analyze([]model.SessionRecord{a, b}, testPricing, 30, now)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Totals.SessionCount)
	assert.Equal(t, 15, report.Totals.MessageCount)
	assert.Equal(t, 4, report.Totals.ToolCallCount)
	assert.InDelta(t, 78.0, report.Totals.EstimatedCost, 1e-9)
	assert.InDelta(t, 7.5, report.AverageMessagesPerSession, 1e-9)
	assert.Equal(t, now.Add(-30*24*time.Hour), report.WindowStart)
	assert.Equal(t, now, report.WindowEnd)
}

func TestAnalyze_LocalCalendarBuckets(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	now := time.Date(2026, 3, 15, 8, 0, 0, 0, loc)
	// 2026-03-14 20:00 UTC is 2026-03-15 05:00 in UTC+9.
	s := session("s", "p", "m1", time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC), 0, 0, 0)

	report, err := Analyze([]model.SessionRecord{s}, testPricing, 7, now)
	require.NoError(t, err)

	last := report.DailySessionCounts[len(report.DailySessionCounts)-1]
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, loc), last.Date)
	assert.Equal(t, 1, last.Sessions)
	assert.Equal(t, 1, report.HourlyActivity[5])
}
