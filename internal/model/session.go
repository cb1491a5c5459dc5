// Package model defines domain types for costdeck sessions, pricing and derived views.
package model

import (
	"encoding/json"
	"time"
)

// SessionStatus distinguishes sessions that are still running from finished ones.
type SessionStatus string

const (
	StatusActive    SessionStatus = "active"
	StatusCompleted SessionStatus = "completed"
)

// SessionStats holds the usage counters observed for one session.
type SessionStats struct {
	MessageCount int
	ToolCalls    int
	InputTokens  int64
	OutputTokens int64
	CachedTokens int64
	Duration     time.Duration
}

// SessionRecord represents one observed usage session. The engine only reads it.
type SessionRecord struct {
	ID           string
	ProjectName  string
	ProjectPath  string
	StartTime    time.Time
	LastActivity time.Time
	Model        string // empty means unknown
	Stats        SessionStats
	Status       SessionStatus

	// Host-side metadata, not part of the exported record shape.
	FilePath   string
	IsSubagent bool
}

// sessionJSON is the wire shape of a SessionRecord: epoch-millisecond
// timestamps and a millisecond duration.
type sessionJSON struct {
	ID           string        `json:"id"`
	ProjectName  string        `json:"projectName"`
	ProjectPath  string        `json:"projectPath"`
	StartTime    int64         `json:"startTime"`
	LastActivity int64         `json:"lastActivity"`
	Model        string        `json:"model,omitempty"`
	Stats        statsJSON     `json:"stats"`
	Status       SessionStatus `json:"status"`
}

type statsJSON struct {
	MessageCount int   `json:"messageCount"`
	ToolCalls    int   `json:"toolCalls"`
	InputTokens  int64 `json:"inputTokens"`
	OutputTokens int64 `json:"outputTokens"`
	CachedTokens int64 `json:"cachedTokens"`
	Duration     int64 `json:"duration"`
}

// MarshalJSON encodes the record in its epoch-millisecond wire form.
func (s SessionRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(sessionJSON{
		ID:           s.ID,
		ProjectName:  s.ProjectName,
		ProjectPath:  s.ProjectPath,
		StartTime:    unixMilli(s.StartTime),
		LastActivity: unixMilli(s.LastActivity),
		Model:        s.Model,
		Stats: statsJSON{
			MessageCount: s.Stats.MessageCount,
			ToolCalls:    s.Stats.ToolCalls,
			InputTokens:  s.Stats.InputTokens,
			OutputTokens: s.Stats.OutputTokens,
			CachedTokens: s.Stats.CachedTokens,
			Duration:     s.Stats.Duration.Milliseconds(),
		},
		Status: s.Status,
	})
}

// UnmarshalJSON decodes the epoch-millisecond wire form.
func (s *SessionRecord) UnmarshalJSON(data []byte) error {
	var raw sessionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = SessionRecord{
		ID:           raw.ID,
		ProjectName:  raw.ProjectName,
		ProjectPath:  raw.ProjectPath,
		StartTime:    fromMilli(raw.StartTime),
		LastActivity: fromMilli(raw.LastActivity),
		Model:        raw.Model,
		Stats: SessionStats{
			MessageCount: raw.Stats.MessageCount,
			ToolCalls:    raw.Stats.ToolCalls,
			InputTokens:  raw.Stats.InputTokens,
			OutputTokens: raw.Stats.OutputTokens,
			CachedTokens: raw.Stats.CachedTokens,
			Duration:     time.Duration(raw.Stats.Duration) * time.Millisecond,
		},
		Status: raw.Status,
	}
	return nil
}

func unixMilli(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMilli(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
