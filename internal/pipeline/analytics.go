package pipeline

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/theirongolddev/costdeck/internal/model"
)

// ErrInvalidRange is returned when an analytics range is not 7, 14 or 30 days.
var ErrInvalidRange = errors.New("analytics range must be 7, 14 or 30 days")

// ValidRanges lists the supported analytics window sizes in days.
var ValidRanges = []int{7, 14, 30}

// ValidRange reports whether days is a supported analytics window.
func ValidRange(days int) bool {
	for _, r := range ValidRanges {
		if r == days {
			return true
		}
	}
	return false
}

const dayKeyLayout = "2006-01-02"

// Analyze computes usage analytics for the trailing rangeDays window ending at
// now. The window is [now-rangeDays*24h, now], inclusive at both ends.
//
// Daily buckets cover every local calendar day from the first day of the
// window through today (rangeDays+1 buckets), oldest first and zero-filled,
// so each session in the window lands in exactly one bucket.
func Analyze(sessions []model.SessionRecord, pricing PricingResolver, rangeDays int, now time.Time) (model.AnalyticsReport, error) {
	if !ValidRange(rangeDays) {
		return model.AnalyticsReport{}, fmt.Errorf("%w: got %d", ErrInvalidRange, rangeDays)
	}

	loc := now.Location()
	windowStart := now.Add(-time.Duration(rangeDays) * 24 * time.Hour)

	report := model.AnalyticsReport{
		RangeDays:   rangeDays,
		WindowStart: windowStart,
		WindowEnd:   now,
		TopProjects: []model.ProjectRank{},
	}

	today := startOfDay(now)
	first := today.AddDate(0, 0, -rangeDays)
	report.DailySessionCounts = make([]model.DailyCount, 0, rangeDays+1)
	dayIdx := make(map[string]int, rangeDays+1)
	for day := first; !day.After(today); day = day.AddDate(0, 0, 1) {
		dayIdx[day.Format(dayKeyLayout)] = len(report.DailySessionCounts)
		report.DailySessionCounts = append(report.DailySessionCounts, model.DailyCount{Date: day})
	}

	projects := make(map[string]int)

	for _, s := range FilterWindow(sessions, windowStart, now) {
		st := clampStats(s.Stats)
		local := s.StartTime.In(loc)

		report.Totals.SessionCount++
		report.Totals.MessageCount += st.MessageCount
		report.Totals.ToolCallCount += st.ToolCalls
		report.Totals.EstimatedCost += SessionCost(s, pricing.Resolve(s.Model))

		// A DST change inside the window can put windowStart in the day
		// before the first bucket; fold that hour into the first bucket.
		idx, ok := dayIdx[local.Format(dayKeyLayout)]
		if !ok {
			idx = 0
		}
		report.DailySessionCounts[idx].Sessions++

		report.HourlyActivity[local.Hour()]++
		projects[s.ProjectName]++
	}

	for name, n := range projects {
		report.TopProjects = append(report.TopProjects, model.ProjectRank{Project: name, Sessions: n})
	}
	sort.Slice(report.TopProjects, func(i, j int) bool {
		a, b := report.TopProjects[i], report.TopProjects[j]
		if a.Sessions != b.Sessions {
			return a.Sessions > b.Sessions
		}
		return a.Project < b.Project
	})

	if report.Totals.SessionCount > 0 {
		report.AverageMessagesPerSession = float64(report.Totals.MessageCount) / float64(report.Totals.SessionCount)
	}

	return report, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
