// Package store provides a SQLite-backed log of answered policy questions.
// The CLI and HTTP layers append an entry after each successful answer; the
// answer service itself never writes here. Entries are used by the history
// command and GET /api/history.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" driver

	"github.com/54b3r/policyai-go/internal/answer"
)

// Disabled is the POLICYAI_HISTORY_DB value that turns history off.
const Disabled = "disabled"

// Entry is one answered question.
type Entry struct {
	ID        int64           `json:"id"`
	Question  string          `json:"question"`
	Mode      string          `json:"mode"`
	Answer    string          `json:"answer"`
	Sources   []answer.Source `json:"sources"`
	Duration  time.Duration   `json:"duration_ns"`
	CreatedAt time.Time       `json:"created_at"`
}

// HistoryStore persists and lists answered questions. Implementations must be
// safe for concurrent use.
type HistoryStore interface {
	// Append persists e. ID and CreatedAt are assigned by the store.
	Append(ctx context.Context, e *Entry) error
	// Recent returns up to n entries, newest first.
	Recent(ctx context.Context, n int) ([]Entry, error)
	// Close releases any resources held by the store.
	Close() error
}

// SQLiteStore is a HistoryStore backed by a local SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// DefaultDBPath returns the default path for the history database.
// It resolves to ~/.policyai/history.db, creating the directory if needed.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("store: could not determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".policyai")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("store: could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "history.db"), nil
}

// ResolveDBPath interprets a POLICYAI_HISTORY_DB value. It returns an empty
// path when history is disabled and the default path when value is empty.
func ResolveDBPath(value string) (string, error) {
	switch {
	case strings.EqualFold(value, Disabled):
		return "", nil
	case value == "":
		return DefaultDBPath()
	default:
		return value, nil
	}
}

// Open opens (or creates) a SQLiteStore at the given path and runs the schema
// migration. Use ":memory:" for an in-memory database in tests.
func Open(path string) (*SQLiteStore, error) {
	// WAL mode improves concurrent read performance and is safe for single-host use.
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// Limit to a single writer connection to avoid SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the schema if it does not already exist.
func (s *SQLiteStore) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS queries (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    question     TEXT    NOT NULL,
    mode         TEXT    NOT NULL,
    answer       TEXT    NOT NULL,
    sources      TEXT    NOT NULL,  -- JSON array of answer.Source
    duration_ms  INTEGER NOT NULL,
    created_at   INTEGER NOT NULL   -- Unix timestamp (milliseconds)
);
CREATE INDEX IF NOT EXISTS idx_queries_created ON queries (created_at);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// Append persists e and sets its ID and CreatedAt.
func (s *SQLiteStore) Append(ctx context.Context, e *Entry) error {
	sources := e.Sources
	if sources == nil {
		sources = []answer.Source{}
	}
	raw, err := json.Marshal(sources)
	if err != nil {
		return fmt.Errorf("store: append: encode sources: %w", err)
	}

	created := s.now()
	const q = `INSERT INTO queries (question, mode, answer, sources, duration_ms, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, q, e.Question, e.Mode, e.Answer, string(raw), e.Duration.Milliseconds(), created.UnixMilli())
	if err != nil {
		return fmt.Errorf("store: append: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("store: append: last insert id: %w", err)
	}
	e.ID = id
	e.CreatedAt = time.UnixMilli(created.UnixMilli())
	return nil
}

// Recent returns up to n entries, newest first. A non-positive n returns no
// entries.
func (s *SQLiteStore) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		return []Entry{}, nil
	}

	const q = `
SELECT id, question, mode, answer, sources, duration_ms, created_at
FROM   queries
ORDER  BY created_at DESC, id DESC
LIMIT  ?`

	rows, err := s.db.QueryContext(ctx, q, n)
	if err != nil {
		return nil, fmt.Errorf("store: recent: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var raw string
		var durMS, ts int64
		if err := rows.Scan(&e.ID, &e.Question, &e.Mode, &e.Answer, &raw, &durMS, &ts); err != nil {
			return nil, fmt.Errorf("store: recent scan: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &e.Sources); err != nil {
			return nil, fmt.Errorf("store: recent: decode sources for entry %d: %w", e.ID, err)
		}
		e.Duration = time.Duration(durMS) * time.Millisecond
		e.CreatedAt = time.UnixMilli(ts)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: recent rows: %w", err)
	}
	return entries, nil
}

// Close releases the database connection pool.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("store: close: %w", err)
	}
	return nil
}
