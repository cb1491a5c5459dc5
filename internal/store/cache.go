// Package store provides a SQLite-backed cache for parsed session records.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/costdeck/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Cache provides SQLite-backed session caching keyed by transcript path.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at the given path.
func Open(dbPath string) (*Cache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Cache{db: db}, nil
}

func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return err
	}
	if version != schemaVersion {
		if _, err := db.Exec(dropSQL); err != nil {
			return err
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return err
	}
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion))
	return err
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// FileInfo holds the tracked mtime and size for a file.
type FileInfo struct {
	MtimeNs   int64
	SizeBytes int64
}

// GetTrackedFiles returns a map of file_path -> FileInfo for all tracked files.
func (c *Cache) GetTrackedFiles() (map[string]FileInfo, error) {
	rows, err := c.db.Query("SELECT file_path, mtime_ns, size_bytes FROM file_tracker")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]FileInfo)
	for rows.Next() {
		var path string
		var fi FileInfo
		if err := rows.Scan(&path, &fi.MtimeNs, &fi.SizeBytes); err != nil {
			return nil, err
		}
		result[path] = fi
	}
	return result, rows.Err()
}

// SaveSession stores a parsed record and the file state it was parsed from.
// Status is not persisted; it depends on the clock at load time.
func (c *Cache) SaveSession(r model.SessionRecord, mtimeNs, sizeBytes int64) error {
	if r.FilePath == "" {
		return fmt.Errorf("session %s has no file path", r.ID)
	}

	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	isSubagent := 0
	if r.IsSubagent {
		isSubagent = 1
	}

	_, err = tx.Exec(`INSERT OR REPLACE INTO sessions
		(file_path, session_id, project, project_path, is_subagent, model,
		 start_ms, last_activity_ms, duration_ms, message_count, tool_calls,
		 input_tokens, output_tokens, cached_tokens, parsed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.FilePath, r.ID, r.ProjectName, r.ProjectPath, isSubagent, r.Model,
		toMs(r.StartTime), toMs(r.LastActivity), r.Stats.Duration.Milliseconds(),
		r.Stats.MessageCount, r.Stats.ToolCalls,
		r.Stats.InputTokens, r.Stats.OutputTokens, r.Stats.CachedTokens,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`INSERT OR REPLACE INTO file_tracker (file_path, mtime_ns, size_bytes)
		VALUES (?, ?, ?)`, r.FilePath, mtimeNs, sizeBytes)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// TrackEmpty records a file that parsed to no activity so it is not re-read
// until it changes.
func (c *Cache) TrackEmpty(filePath string, mtimeNs, sizeBytes int64) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM sessions WHERE file_path = ?", filePath); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO file_tracker (file_path, mtime_ns, size_bytes)
		VALUES (?, ?, ?)`, filePath, mtimeNs, sizeBytes); err != nil {
		return err
	}
	return tx.Commit()
}

// LoadAllSessions reads all cached records. Status is left empty.
func (c *Cache) LoadAllSessions() ([]model.SessionRecord, error) {
	rows, err := c.db.Query(`SELECT
		file_path, session_id, project, project_path, is_subagent, model,
		start_ms, last_activity_ms, duration_ms, message_count, tool_calls,
		input_tokens, output_tokens, cached_tokens
		FROM sessions`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var sessions []model.SessionRecord
	for rows.Next() {
		var (
			r                      model.SessionRecord
			projectPath, modelID   sql.NullString
			isSubagent             int
			startMs, lastMs, durMs int64
		)
		err := rows.Scan(
			&r.FilePath, &r.ID, &r.ProjectName, &projectPath, &isSubagent, &modelID,
			&startMs, &lastMs, &durMs, &r.Stats.MessageCount, &r.Stats.ToolCalls,
			&r.Stats.InputTokens, &r.Stats.OutputTokens, &r.Stats.CachedTokens,
		)
		if err != nil {
			return nil, err
		}

		r.IsSubagent = isSubagent != 0
		r.ProjectPath = projectPath.String
		r.Model = modelID.String
		r.StartTime = fromMs(startMs)
		r.LastActivity = fromMs(lastMs)
		r.Stats.Duration = time.Duration(durMs) * time.Millisecond
		sessions = append(sessions, r)
	}
	return sessions, rows.Err()
}

// Prune drops sessions and tracking rows for files that no longer exist on disk.
func (c *Cache) Prune(live map[string]struct{}) (int, error) {
	tracked, err := c.GetTrackedFiles()
	if err != nil {
		return 0, err
	}

	removed := 0
	for path := range tracked {
		if _, ok := live[path]; ok {
			continue
		}
		if _, err := c.db.Exec("DELETE FROM sessions WHERE file_path = ?", path); err != nil {
			return removed, err
		}
		if _, err := c.db.Exec("DELETE FROM file_tracker WHERE file_path = ?", path); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// SessionCount returns the number of cached sessions.
func (c *Cache) SessionCount() (int, error) {
	var count int
	err := c.db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&count)
	return count, err
}

func toMs(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMs(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
