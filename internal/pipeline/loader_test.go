package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/costdeck/internal/model"
	"github.com/theirongolddev/costdeck/internal/store"
)

const (
	lineUser      = `{"type":"user","timestamp":"2026-03-15T10:00:00Z","cwd":"/src/gitlore"}`
	lineAssistant = `{"type":"assistant","timestamp":"2026-03-15T10:00:05Z","message":{"id":"m1","model":"claude-sonnet-4-6","usage":{"input_tokens":1000,"output_tokens":200}}}`
)

func writeClaudeDir(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	proj := filepath.Join(root, "projects", "-Users-alice-projects-gitlore")
	sub := filepath.Join(proj, "sess-1", "subagents")
	require.NoError(t, os.MkdirAll(sub, 0o750))

	write := func(path string, lines ...string) {
		var data []byte
		for _, l := range lines {
			data = append(data, l...)
			data = append(data, '\n')
		}
		require.NoError(t, os.WriteFile(path, data, 0o600))
	}
	write(filepath.Join(proj, "sess-1.jsonl"), lineUser, lineAssistant)
	write(filepath.Join(proj, "empty.jsonl"))
	write(filepath.Join(sub, "agent-1.jsonl"), lineAssistant)
	return root
}

func TestLoad(t *testing.T) {
	dir := writeClaudeDir(t)
	now := time.Date(2026, 3, 15, 10, 2, 0, 0, time.UTC)

	var calls atomic.Int32
	res, err := Load(context.Background(), dir, true, now, func(_, _ int) { calls.Add(1) })
	require.NoError(t, err)

	assert.Equal(t, 3, res.TotalFiles)
	assert.Equal(t, 3, res.ParsedFiles)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 1, res.ProjectCount)
	require.Len(t, res.Sessions, 2)
	for _, s := range res.Sessions {
		assert.Equal(t, model.StatusActive, s.Status)
		assert.Equal(t, "gitlore", s.ProjectName)
	}

	res, err = Load(context.Background(), dir, false, now, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalFiles)
	assert.Len(t, res.Sessions, 1)
}

func TestLoad_Cancelled(t *testing.T) {
	dir := writeClaudeDir(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Load(ctx, dir, true, time.Now(), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadWithCache(t *testing.T) {
	dir := writeClaudeDir(t)
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	cache, err := store.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer func() { _ = cache.Close() }()

	first, err := LoadWithCache(context.Background(), dir, true, cache, now, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, first.CacheHits)
	assert.Equal(t, 3, first.Reparsed)
	assert.Len(t, first.Sessions, 2)

	second, err := LoadWithCache(context.Background(), dir, true, cache, now, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, second.CacheHits)
	assert.Equal(t, 0, second.Reparsed)
	require.Len(t, second.Sessions, 2)
	for _, s := range second.Sessions {
		assert.Equal(t, model.StatusCompleted, s.Status)
	}

	snapA := AggregateCosts(first.Sessions, testPricing, now)
	snapB := AggregateCosts(second.Sessions, testPricing, now)
	assert.InDelta(t, snapA.CurrentMonthCost, snapB.CurrentMonthCost, 1e-9)
}

func TestLoadRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	data := `[{"id":"r1","projectName":"api","startTime":1773568800000,"lastActivity":1773568800000,"model":"m1","stats":{"inputTokens":5},"status":""},
	          {"id":"r2","projectName":"web","startTime":1773568800000,"lastActivity":1773568800000,"stats":{},"status":"active"}]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	res, err := LoadRecords(path, time.UnixMilli(1773568800000).Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, res.Sessions, 2)
	assert.Equal(t, model.StatusCompleted, res.Sessions[0].Status)
	assert.Equal(t, model.StatusActive, res.Sessions[1].Status)
	assert.Equal(t, 2, res.ProjectCount)
}
