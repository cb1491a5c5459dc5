package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRecord_JSONRoundTrip(t *testing.T) {
	start := time.UnixMilli(1767225600123)
	rec := SessionRecord{
		ID:          "s1",
		ProjectName: "api",
		ProjectPath: "/src/api",
		StartTime:   start,
		Stats: SessionStats{
			MessageCount: 4,
			ToolCalls:    2,
			InputTokens:  1000,
			OutputTokens: 300,
			CachedTokens: 50,
			Duration:     90*time.Second + 250*time.Millisecond,
		},
		Status:     StatusCompleted,
		FilePath:   "/data/s1.jsonl",
		IsSubagent: true,
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.InDelta(t, 1767225600123, raw["startTime"], 0)
	assert.InDelta(t, 0, raw["lastActivity"], 0)
	assert.NotContains(t, raw, "model")
	assert.NotContains(t, raw, "FilePath")
	stats, ok := raw["stats"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 90250, stats["duration"], 0)

	var got SessionRecord
	require.NoError(t, json.Unmarshal(data, &got))
	assert.True(t, got.StartTime.Equal(start))
	assert.True(t, got.LastActivity.IsZero())
	assert.Empty(t, got.Model)
	assert.Equal(t, rec.Stats, got.Stats)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Empty(t, got.FilePath)
	assert.False(t, got.IsSubagent)
}

func TestSessionRecord_MarshalKeepsModel(t *testing.T) {
	data, err := json.Marshal(SessionRecord{ID: "x", Model: "claude-sonnet-4-6"})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"model":"claude-sonnet-4-6"`)
}
