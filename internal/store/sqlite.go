package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/journey-copilot/journey-copilot/internal/persona"
	"github.com/journey-copilot/journey-copilot/internal/prompt"
	"github.com/journey-copilot/journey-copilot/internal/session"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict means the session was saved by another writer since this
	// copy was read.
	ErrConflict = errors.New("session was changed by another writer")
)

type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    persona TEXT NOT NULL,
    selected TEXT NOT NULL DEFAULT '',
    override TEXT NOT NULL DEFAULT '',
    version INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL DEFAULT (unixepoch()),
    updated_at INTEGER NOT NULL DEFAULT (unixepoch())
);

CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at);

CREATE TABLE IF NOT EXISTS timeline_events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    label TEXT NOT NULL,
    FOREIGN KEY (session_id) REFERENCES sessions(id)
);

CREATE INDEX IF NOT EXISTS idx_timeline_session ON timeline_events(session_id, position);
CREATE UNIQUE INDEX IF NOT EXISTS idx_timeline_dedup ON timeline_events(session_id, label);

CREATE TABLE IF NOT EXISTS responses (
    session_id TEXT NOT NULL,
    category TEXT NOT NULL,
    content TEXT NOT NULL,
    updated_at INTEGER NOT NULL DEFAULT (unixepoch()),
    PRIMARY KEY (session_id, category),
    FOREIGN KEY (session_id) REFERENCES sessions(id)
);

CREATE TABLE IF NOT EXISTS generations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    category TEXT NOT NULL,
    provider TEXT NOT NULL DEFAULT '',
    prompt TEXT NOT NULL,
    response TEXT,
    status TEXT NOT NULL,
    error TEXT,
    created_at INTEGER NOT NULL DEFAULT (unixepoch())
);

CREATE INDEX IF NOT EXISTS idx_generations_session ON generations(session_id);

CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

func Open(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Apply schema
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateSession(ctx context.Context, sess *session.Session) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (id, persona, selected, override, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sess.ID, string(sess.Persona), string(sess.Selected), string(sess.Override),
		sess.CreatedAt.Unix(), sess.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	if err := writeChildren(ctx, tx, sess); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	sess.Version = 0
	return nil
}

// SaveSession replaces the stored state of an existing session. The save
// only applies when the stored version still matches sess.Version;
// otherwise it returns ErrConflict and nothing is written. On success
// sess.Version is advanced.
func (s *SQLiteStore) SaveSession(ctx context.Context, sess *session.Session) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE sessions SET persona = ?, selected = ?, override = ?, updated_at = ?, version = version + 1
		 WHERE id = ? AND version = ?`,
		string(sess.Persona), string(sess.Selected), string(sess.Override), sess.UpdatedAt.Unix(),
		sess.ID, sess.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE id = ?`, sess.ID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check session: %w", err)
		}
		if exists == 0 {
			return ErrNotFound
		}
		return ErrConflict
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM timeline_events WHERE session_id = ?`, sess.ID); err != nil {
		return fmt.Errorf("failed to clear timeline: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM responses WHERE session_id = ?`, sess.ID); err != nil {
		return fmt.Errorf("failed to clear responses: %w", err)
	}

	if err := writeChildren(ctx, tx, sess); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	sess.Version++
	return nil
}

// SessionVersion returns the stored version of a session, or ErrNotFound.
func (s *SQLiteStore) SessionVersion(ctx context.Context, id string) (int64, error) {
	var version int64
	err := s.db.QueryRowContext(ctx, `SELECT version FROM sessions WHERE id = ?`, id).Scan(&version)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get session version: %w", err)
	}
	return version, nil
}

// CountSessions returns the number of stored sessions.
func (s *SQLiteStore) CountSessions(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return n, nil
}

func writeChildren(ctx context.Context, tx *sql.Tx, sess *session.Session) error {
	// INSERT OR IGNORE dedups the timeline via the unique index
	for i, e := range sess.Timeline {
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO timeline_events (session_id, position, label) VALUES (?, ?, ?)`,
			sess.ID, i, string(e),
		)
		if err != nil {
			return fmt.Errorf("failed to record timeline event: %w", err)
		}
	}

	now := time.Now().Unix()
	for c, text := range sess.Responses {
		if text == "" {
			continue
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO responses (session_id, category, content, updated_at) VALUES (?, ?, ?, ?)`,
			sess.ID, string(c), text, now,
		)
		if err != nil {
			return fmt.Errorf("failed to record response: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*session.Session, error) {
	var sess session.Session
	var createdAt, updatedAt int64

	err := s.db.QueryRowContext(ctx,
		`SELECT id, persona, selected, override, version, created_at, updated_at FROM sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &sess.Persona, &sess.Selected, &sess.Override, &sess.Version, &createdAt, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	sess.CreatedAt = time.Unix(createdAt, 0).UTC()
	sess.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	if err := s.loadChildren(ctx, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *SQLiteStore) loadChildren(ctx context.Context, sess *session.Session) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT label FROM timeline_events WHERE session_id = ? ORDER BY position, id`, sess.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get timeline: %w", err)
	}
	defer rows.Close()

	sess.Timeline = persona.Timeline{}
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return fmt.Errorf("failed to scan timeline event: %w", err)
		}
		sess.Timeline = append(sess.Timeline, persona.Event(label))
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read timeline: %w", err)
	}

	respRows, err := s.db.QueryContext(ctx,
		`SELECT category, content FROM responses WHERE session_id = ?`, sess.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get responses: %w", err)
	}
	defer respRows.Close()

	sess.Responses = make(map[prompt.Category]string)
	for respRows.Next() {
		var category, content string
		if err := respRows.Scan(&category, &content); err != nil {
			return fmt.Errorf("failed to scan response: %w", err)
		}
		sess.Responses[prompt.Category(category)] = content
	}
	return respRows.Err()
}

func (s *SQLiteStore) ListSessions(ctx context.Context) ([]*session.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM sessions ORDER BY updated_at DESC, rowid DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()

	sessions := make([]*session.Session, 0, len(ids))
	for _, id := range ids {
		sess, err := s.GetSession(ctx, id)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}

	return sessions, nil
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// First delete related rows
	for _, table := range []string{"timeline_events", "responses", "generations"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE session_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete %s: %w", table, err)
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

func (s *SQLiteStore) RecordGeneration(ctx context.Context, g *session.Generation) error {
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO generations (session_id, category, provider, prompt, response, status, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		g.SessionID, string(g.Category), g.Provider, g.Prompt,
		nullableString(g.Response), string(g.Status), nullableString(g.Error), g.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to record generation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	g.ID = id
	return nil
}

// GetGenerations returns a session's history, oldest first.
func (s *SQLiteStore) GetGenerations(ctx context.Context, sessionID string) ([]*session.Generation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, category, provider, prompt, response, status, error, created_at
		 FROM generations WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get generations: %w", err)
	}
	defer rows.Close()

	var gens []*session.Generation
	for rows.Next() {
		var g session.Generation
		var response, errText sql.NullString
		var createdAt int64
		if err := rows.Scan(&g.ID, &g.SessionID, &g.Category, &g.Provider, &g.Prompt, &response, &g.Status, &errText, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan generation: %w", err)
		}
		g.Response = response.String
		g.Error = errText.String
		g.CreatedAt = time.Unix(createdAt, 0).UTC()
		gens = append(gens, &g)
	}

	return gens, rows.Err()
}

// GetSetting returns the stored value, or ErrNotFound.
func (s *SQLiteStore) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting: %w", err)
	}
	return value, nil
}

func (s *SQLiteStore) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to set setting: %w", err)
	}
	return nil
}

// DB returns the underlying database connection for health checks
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

func nullableString(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}
