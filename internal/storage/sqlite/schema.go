// ABOUTME: SQLite database schema for analysis sessions
// ABOUTME: Sessions own their topics, position-ordered rows and question answering turns
package sqlite

// Schema contains all SQL statements for database initialization
const Schema = `
-- One row per analysis run
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    kind TEXT NOT NULL,
    source_file TEXT,
    column_name TEXT,
    keywords TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Taxonomy of a session, catch-all included, in extraction order
CREATE TABLE IF NOT EXISTS session_topics (
    session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    description TEXT,
    sub_topics TEXT,
    PRIMARY KEY (session_id, position)
);

-- Assigned rows in original input order
CREATE TABLE IF NOT EXISTS session_rows (
    session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    record_id TEXT NOT NULL,
    original_text TEXT,
    topic TEXT NOT NULL,
    sub_topic TEXT NOT NULL,
    category TEXT DEFAULT '',
    region TEXT DEFAULT '',
    PRIMARY KEY (session_id, position)
);

-- Question answering history
CREATE TABLE IF NOT EXISTS qa_turns (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    role TEXT NOT NULL,
    content TEXT NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_sessions_created ON sessions(created_at);
CREATE INDEX IF NOT EXISTS idx_rows_topic ON session_rows(session_id, topic, sub_topic);
CREATE INDEX IF NOT EXISTS idx_turns_session ON qa_turns(session_id);
`

// SchemaVersion is the current schema version for migrations
const SchemaVersion = 1
