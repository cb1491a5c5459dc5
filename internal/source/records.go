package source

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/theirongolddev/costdeck/internal/model"
)

// ActiveWindow is how recently a session must have been touched to count as active.
const ActiveWindow = 5 * time.Minute

// ClassifyStatus marks a record active when its last activity is within
// ActiveWindow of now. A recognized status on the record wins; anything else
// is normalized to active or completed.
func ClassifyStatus(rec model.SessionRecord, now time.Time) model.SessionRecord {
	switch strings.ToLower(strings.TrimSpace(string(rec.Status))) {
	case "active", "running", "in_progress":
		rec.Status = model.StatusActive
		return rec
	case "completed", "complete", "done", "finished", "ended":
		rec.Status = model.StatusCompleted
		return rec
	}
	last := rec.LastActivity
	if last.IsZero() {
		last = rec.StartTime
	}
	if !last.IsZero() && now.Sub(last) <= ActiveWindow {
		rec.Status = model.StatusActive
	} else {
		rec.Status = model.StatusCompleted
	}
	return rec
}

// ReadRecordsFile loads a records export: either a JSON array of session
// records or one record per line (JSONL).
func ReadRecordsFile(path string) ([]model.SessionRecord, error) {
	f, err := os.Open(path) //nolint:gosec // path is supplied by the local user
	if err != nil {
		return nil, fmt.Errorf("opening records file: %w", err)
	}
	defer func() { _ = f.Close() }()

	recs, err := ReadRecords(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return recs, nil
}

// ReadRecords decodes a JSON array or JSONL stream of session records.
func ReadRecords(r io.Reader) ([]model.SessionRecord, error) {
	br := bufio.NewReader(r)

	first, err := peekNonSpace(br)
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if first == '[' {
		var recs []model.SessionRecord
		if err := json.NewDecoder(br).Decode(&recs); err != nil {
			return nil, fmt.Errorf("decoding record array: %w", err)
		}
		return recs, nil
	}

	var recs []model.SessionRecord
	scanner := bufio.NewScanner(br)
	scanner.Buffer(make([]byte, 0, 64*1024), 2*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec model.SessionRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		recs = append(recs, rec)
	}
	return recs, scanner.Err()
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}
