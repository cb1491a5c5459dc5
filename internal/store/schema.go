package store

// schemaVersion is bumped whenever the sessions layout changes; older caches
// are dropped and rebuilt.
const schemaVersion = 2

const schemaSQL = `
CREATE TABLE IF NOT EXISTS sessions (
    file_path            TEXT PRIMARY KEY,
    session_id           TEXT NOT NULL,
    project              TEXT NOT NULL,
    project_path         TEXT,
    is_subagent          INTEGER NOT NULL DEFAULT 0,
    model                TEXT,
    start_ms             INTEGER NOT NULL DEFAULT 0,
    last_activity_ms     INTEGER NOT NULL DEFAULT 0,
    duration_ms          INTEGER NOT NULL DEFAULT 0,
    message_count        INTEGER NOT NULL DEFAULT 0,
    tool_calls           INTEGER NOT NULL DEFAULT 0,
    input_tokens         INTEGER NOT NULL DEFAULT 0,
    output_tokens        INTEGER NOT NULL DEFAULT 0,
    cached_tokens        INTEGER NOT NULL DEFAULT 0,
    parsed_at            TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS file_tracker (
    file_path            TEXT PRIMARY KEY,
    mtime_ns             INTEGER NOT NULL,
    size_bytes           INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_start ON sessions(start_ms);
CREATE INDEX IF NOT EXISTS idx_sessions_project ON sessions(project);
`

const dropSQL = `
DROP TABLE IF EXISTS session_models;
DROP TABLE IF EXISTS sessions;
DROP TABLE IF EXISTS file_tracker;
`
