// Package history persists conversation history for repository Q&A
// sessions in SQLite. Retrieval indices are never persisted; only the
// question/answer exchanges that feed the prompt's conversation context.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested session doesn't exist.
var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	repo_name  TEXT NOT NULL,
	repo_url   TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS exchanges (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id INTEGER NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	question   TEXT NOT NULL,
	answer     TEXT NOT NULL,
	asked_at   TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_exchanges_session ON exchanges(session_id, id);
`

// Session is one Q&A session against one repository.
type Session struct {
	ID        int64
	RepoName  string
	RepoURL   string
	CreatedAt time.Time
}

// Exchange is one question/answer pair within a session.
type Exchange struct {
	ID       int64
	Question string
	Answer   string
	AskedAt  time.Time
}

// Store is a SQLite-backed history store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path. Pass
// ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// SQLite benefits from a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateSession records a new session and returns its id.
func (s *Store) CreateSession(ctx context.Context, repoName, repoURL string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (repo_name, repo_url, created_at) VALUES (?, ?, ?)`,
		repoName, repoURL, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to create session: %w", err)
	}
	return res.LastInsertId()
}

// GetSession returns one session by id.
func (s *Store) GetSession(ctx context.Context, id int64) (*Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, repo_name, repo_url, created_at FROM sessions WHERE id = ?`, id)

	var sess Session
	err := row.Scan(&sess.ID, &sess.RepoName, &sess.RepoURL, &sess.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &sess, nil
}

// AppendExchange records one question/answer pair for a session.
func (s *Store) AppendExchange(ctx context.Context, sessionID int64, question, answer string) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO exchanges (session_id, question, answer, asked_at)
		 SELECT ?, ?, ?, ? WHERE EXISTS (SELECT 1 FROM sessions WHERE id = ?)`,
		sessionID, question, answer, time.Now().UTC(), sessionID)
	if err != nil {
		return fmt.Errorf("failed to append exchange: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("session %d: %w", sessionID, ErrNotFound)
	}
	return nil
}

// RecentExchanges returns the last limit exchanges of a session, oldest
// first, ready for prompt inclusion.
func (s *Store) RecentExchanges(ctx context.Context, sessionID int64, limit int) ([]Exchange, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, question, answer, asked_at FROM (
			SELECT id, question, answer, asked_at FROM exchanges
			WHERE session_id = ? ORDER BY id DESC LIMIT ?
		 ) ORDER BY id ASC`,
		sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query exchanges: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Exchange
	for rows.Next() {
		var e Exchange
		if err := rows.Scan(&e.ID, &e.Question, &e.Answer, &e.AskedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// FormatHistory renders exchanges as the conversation-history block used in
// answer prompts.
func FormatHistory(exchanges []Exchange) string {
	var sb strings.Builder
	for _, e := range exchanges {
		fmt.Fprintf(&sb, "Question: %s\nAnswer: %s\n", e.Question, e.Answer)
	}
	return sb.String()
}
