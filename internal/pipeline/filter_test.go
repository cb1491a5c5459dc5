package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/theirongolddev/costdeck/internal/model"
)

func TestFilters(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	sub := session("sub", "Gitlore", "claude-haiku-4-5", now, 0, 0, 0)
	sub.IsSubagent = true
	sessions := []model.SessionRecord{
		session("a", "gitlore", "claude-opus-4-6", now.Add(-time.Hour), 0, 0, 0),
		session("b", "api", "claude-sonnet-4-6", now.Add(-72*time.Hour), 0, 0, 0),
		session("c", "api", "", time.Time{}, 0, 0, 0),
		sub,
	}

	ids := func(in []model.SessionRecord) []string {
		out := []string{}
		for _, s := range in {
			out = append(out, s.ID)
		}
		return out
	}

	assert.Equal(t, []string{"a", "sub"}, ids(FilterByProject(sessions, "GITLORE")))
	assert.Len(t, FilterByProject(sessions, ""), 4)
	assert.Equal(t, []string{"b"}, ids(FilterByModel(sessions, "sonnet")))
	assert.Equal(t, []string{"a", "b", "c"}, ids(ExcludeSubagents(sessions)))
	assert.Equal(t, []string{"a", "sub"}, ids(FilterWindow(sessions, now.Add(-24*time.Hour), now)))
}
