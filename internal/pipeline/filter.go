package pipeline

import (
	"strings"
	"time"

	"github.com/theirongolddev/costdeck/internal/model"
)

// FilterWindow returns sessions whose start time falls within [since, until].
func FilterWindow(sessions []model.SessionRecord, since, until time.Time) []model.SessionRecord {
	var result []model.SessionRecord
	for _, s := range sessions {
		if s.StartTime.IsZero() {
			continue
		}
		if s.StartTime.Before(since) || s.StartTime.After(until) {
			continue
		}
		result = append(result, s)
	}
	return result
}

// FilterByProject returns sessions whose project name contains the substring.
func FilterByProject(sessions []model.SessionRecord, project string) []model.SessionRecord {
	if project == "" {
		return sessions
	}
	var result []model.SessionRecord
	for _, s := range sessions {
		if containsIgnoreCase(s.ProjectName, project) {
			result = append(result, s)
		}
	}
	return result
}

// FilterByModel returns sessions whose model id contains the substring.
func FilterByModel(sessions []model.SessionRecord, modelFilter string) []model.SessionRecord {
	if modelFilter == "" {
		return sessions
	}
	var result []model.SessionRecord
	for _, s := range sessions {
		if containsIgnoreCase(s.Model, modelFilter) {
			result = append(result, s)
		}
	}
	return result
}

// ExcludeSubagents drops sessions spawned as subagents of another session.
func ExcludeSubagents(sessions []model.SessionRecord) []model.SessionRecord {
	var result []model.SessionRecord
	for _, s := range sessions {
		if !s.IsSubagent {
			result = append(result, s)
		}
	}
	return result
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
