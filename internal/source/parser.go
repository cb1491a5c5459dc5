// Package source discovers session records: Claude Code JSONL transcripts on
// disk, or record exports written by another tool.
package source

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"sort"
	"time"

	"github.com/theirongolddev/costdeck/internal/model"
)

// Byte patterns for field extraction.
var (
	patTurnDuration = []byte(`"turn_duration"`)
	patDurationMs   = []byte(`"durationMs":`)
	patTimestamp1   = []byte(`"timestamp":"`)
	patTimestamp2   = []byte(`"timestamp": "`)
	patCwd1         = []byte(`"cwd":"`)
	patCwd2         = []byte(`"cwd": "`)
)

// ParseResult holds the output of parsing a single JSONL file.
type ParseResult struct {
	Record      model.SessionRecord
	ParseErrors int
	Err         error
}

// apiCall is the final billed state of one assistant message id.
type apiCall struct {
	model        string
	inputTokens  int64
	outputTokens int64
	cachedTokens int64
	toolCalls    int
}

// ParseFile reads a JSONL session file into a SessionRecord. Assistant entries
// are deduplicated by message.id, keeping the last entry (final billed usage).
//
// Token mapping: cache writes are billed as input, cache reads as cached.
// The session model is the one that served the most calls. Status is left
// empty; callers classify it against their own clock (see ClassifyStatus).
func ParseFile(df DiscoveredFile) ParseResult {
	f, err := os.Open(df.Path)
	if err != nil {
		return ParseResult{Err: err}
	}
	defer func() { _ = f.Close() }()

	calls := make(map[string]*apiCall)

	var (
		userMessages  int
		parseErrors   int
		totalDuration int64
		minTime       time.Time
		maxTime       time.Time
		cwd           string
	)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 256*1024), 2*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()

		switch extractTopLevelType(line) {
		case "user":
			userMessages++
			if ts, ok := extractTimestampBytes(line); ok {
				updateTimeRange(&minTime, &maxTime, ts)
			}
			if cwd == "" {
				cwd = extractCwdBytes(line)
			}

		case "system":
			if ts, ok := extractTimestampBytes(line); ok {
				updateTimeRange(&minTime, &maxTime, ts)
			}
			if cwd == "" {
				cwd = extractCwdBytes(line)
			}
			if bytes.Contains(line, patTurnDuration) {
				if ms, ok := extractDurationMs(line); ok {
					totalDuration += ms
				}
			}

		case "assistant":
			var entry RawEntry
			if err := json.Unmarshal(line, &entry); err != nil {
				parseErrors++
				continue
			}

			if ts, err := time.Parse(time.RFC3339Nano, entry.Timestamp); err == nil {
				updateTimeRange(&minTime, &maxTime, ts)
			}
			if cwd == "" && entry.Cwd != "" {
				cwd = entry.Cwd
			}
			if entry.DurationMs > 0 {
				totalDuration += entry.DurationMs
			} else if entry.Data != nil && entry.Data.DurationMs > 0 {
				totalDuration += entry.Data.DurationMs
			}

			msg := entry.Message
			if msg == nil || msg.ID == "" || msg.Usage == nil {
				continue
			}

			u := msg.Usage
			cacheWrite := u.CacheCreationInputTokens
			if u.CacheCreation != nil {
				cacheWrite = u.CacheCreation.Ephemeral5mInputTokens + u.CacheCreation.Ephemeral1hInputTokens
			}

			tools := 0
			for _, c := range msg.Content {
				if c.Type == "tool_use" {
					tools++
				}
			}

			calls[msg.ID] = &apiCall{
				model:        msg.Model,
				inputTokens:  u.InputTokens + cacheWrite,
				outputTokens: u.OutputTokens,
				cachedTokens: u.CacheReadInputTokens,
				toolCalls:    tools,
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return ParseResult{Err: err}
	}

	rec := model.SessionRecord{
		ID:           df.SessionID,
		ProjectName:  df.Project,
		ProjectPath:  cwd,
		StartTime:    minTime,
		LastActivity: maxTime,
		FilePath:     df.Path,
		IsSubagent:   df.IsSubagent,
	}

	if totalDuration > 0 {
		rec.Stats.Duration = time.Duration(totalDuration) * time.Millisecond
	} else if !minTime.IsZero() && !maxTime.IsZero() {
		rec.Stats.Duration = maxTime.Sub(minTime)
	}

	callsByModel := make(map[string]int)
	for _, c := range calls {
		rec.Stats.InputTokens += c.inputTokens
		rec.Stats.OutputTokens += c.outputTokens
		rec.Stats.CachedTokens += c.cachedTokens
		rec.Stats.ToolCalls += c.toolCalls
		if c.model != "" && c.model != "<synthetic>" {
			callsByModel[c.model]++
		}
	}
	rec.Stats.MessageCount = userMessages + len(calls)
	rec.Model = dominantModel(callsByModel)

	return ParseResult{
		Record:      rec,
		ParseErrors: parseErrors,
	}
}

// dominantModel picks the model with the most calls, breaking ties by name.
func dominantModel(counts map[string]int) string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	best := ""
	for _, name := range names {
		if best == "" || counts[name] > counts[best] {
			best = name
		}
	}
	return best
}

// typeKey is the byte sequence for a JSON key named "type" (with quotes).
var typeKey = []byte(`"type"`)

// extractTopLevelType finds the top-level "type" field in a JSONL line.
// Tracks brace depth and string boundaries so nested "type" keys are ignored.
func extractTopLevelType(line []byte) string {
	depth := 0
	for i := 0; i < len(line); {
		switch line[i] {
		case '"':
			if depth == 1 && bytes.HasPrefix(line[i:], typeKey) {
				if val, isKey := classifyType(line, i+len(typeKey)); isKey {
					return val
				}
			}
			i = skipJSONString(line, i)
		case '{':
			depth++
			i++
		case '}':
			depth--
			i++
		default:
			i++
		}
	}
	return ""
}

// classifyType checks whether pos follows a JSON key (expects : then value).
// isKey=false means "type" appeared as a value and scanning should continue.
func classifyType(line []byte, pos int) (val string, isKey bool) {
	i := skipSpaces(line, pos)
	if i >= len(line) || line[i] != ':' {
		return "", false
	}
	i = skipSpaces(line, i+1)
	if i >= len(line) || line[i] != '"' {
		return "", true
	}
	i++

	end := bytes.IndexByte(line[i:], '"')
	if end < 0 || end > 20 {
		return "", true
	}
	switch v := string(line[i : i+end]); v {
	case "assistant", "user", "system":
		return v, true
	}
	return "", true
}

// skipJSONString advances past a JSON string starting at the opening quote.
//
//nolint:gosec // manual bounds checking throughout
func skipJSONString(line []byte, i int) int {
	i++
	for i < len(line) {
		switch line[i] {
		case '\\':
			i += 2
		case '"':
			return i + 1
		default:
			i++
		}
	}
	return i
}

func skipSpaces(line []byte, i int) int {
	for i < len(line) && line[i] == ' ' {
		i++
	}
	return i
}

// extractTimestampBytes extracts the timestamp field via byte scanning.
func extractTimestampBytes(line []byte) (time.Time, bool) {
	for _, pat := range [][]byte{patTimestamp1, patTimestamp2} {
		idx := bytes.Index(line, pat)
		if idx < 0 {
			continue
		}
		start := idx + len(pat)
		end := bytes.IndexByte(line[start:], '"')
		if end < 0 || end > 40 {
			continue
		}
		ts, err := time.Parse(time.RFC3339Nano, string(line[start:start+end]))
		if err != nil {
			return time.Time{}, false
		}
		return ts, true
	}
	return time.Time{}, false
}

// extractCwdBytes extracts the cwd field via byte scanning.
func extractCwdBytes(line []byte) string {
	for _, pat := range [][]byte{patCwd1, patCwd2} {
		idx := bytes.Index(line, pat)
		if idx < 0 {
			continue
		}
		start := idx + len(pat)
		end := bytes.IndexByte(line[start:], '"')
		if end < 0 || end > 1024 {
			continue
		}
		return string(line[start : start+end])
	}
	return ""
}

// extractDurationMs extracts the durationMs integer via byte scanning.
func extractDurationMs(line []byte) (int64, bool) {
	idx := bytes.Index(line, patDurationMs)
	if idx < 0 {
		return 0, false
	}
	start := skipSpaces(line, idx+len(patDurationMs))
	end := start
	for end < len(line) && line[end] >= '0' && line[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false
	}
	var n int64
	for i := start; i < end; i++ {
		n = n*10 + int64(line[i]-'0')
	}
	return n, true
}

func updateTimeRange(minTime, maxTime *time.Time, ts time.Time) {
	if minTime.IsZero() || ts.Before(*minTime) {
		*minTime = ts
	}
	if maxTime.IsZero() || ts.After(*maxTime) {
		*maxTime = ts
	}
}
