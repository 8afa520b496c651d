package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

var ErrSessionNotFound = errors.New("session not found")

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS sessions (
        id TEXT PRIMARY KEY, -- UUID
        active_tool TEXT NOT NULL DEFAULT 'dashboard',
        forms_json TEXT NOT NULL DEFAULT '{}',
        model TEXT NOT NULL DEFAULT '',
        created_at DATETIME NOT NULL,
        updated_at DATETIME NOT NULL
    );

    CREATE TABLE IF NOT EXISTS messages (
        session_id TEXT NOT NULL,
        id TEXT NOT NULL,
        seq INTEGER NOT NULL,
        role TEXT NOT NULL CHECK (role IN ('user', 'model')),
        text TEXT NOT NULL,
        is_tool_call BOOLEAN NOT NULL DEFAULT FALSE,
        tool_name TEXT NOT NULL DEFAULT '',
        function_calls_json TEXT,
        timestamp DATETIME NOT NULL,
        PRIMARY KEY (session_id, id),
        FOREIGN KEY (session_id) REFERENCES sessions (id)
    );

    CREATE INDEX IF NOT EXISTS idx_messages_session_seq ON messages (session_id, seq);
    `
	_, err := s.db.Exec(schema)
	return err
}

// Session methods
func (s *SQLiteStore) CreateSession(ctx context.Context, activeTool string) (*Session, error) {
	now := time.Now().UTC()
	sess := &Session{
		ID:         uuid.NewString(),
		ActiveTool: activeTool,
		Forms:      []byte("{}"),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO sessions (id, active_tool, forms_json, model, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		sess.ID, sess.ActiveTool, string(sess.Forms), sess.Model, sess.CreatedAt, sess.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert session: %w", err)
	}
	return sess, nil
}

// GetSession returns nil, nil when the session does not exist.
func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*Session, error) {
	var sess Session
	var forms string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, active_tool, forms_json, model, created_at, updated_at FROM sessions WHERE id = ?", id,
	).Scan(&sess.ID, &sess.ActiveTool, &forms, &sess.Model, &sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	sess.Forms = []byte(forms)
	return &sess, nil
}

func (s *SQLiteStore) SaveSession(ctx context.Context, sess *Session) error {
	forms := string(sess.Forms)
	if forms == "" {
		forms = "{}"
	}
	sess.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		"UPDATE sessions SET active_tool = ?, forms_json = ?, model = ?, updated_at = ? WHERE id = ?",
		sess.ActiveTool, forms, sess.Model, sess.UpdatedAt, sess.ID)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// TouchSession marks the session as used now so retention sweeps keep it.
func (s *SQLiteStore) TouchSession(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE sessions SET updated_at = ? WHERE id = ?", time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteSessionsBefore removes sessions with no state change and no message since cutoff,
// together with their messages.
func (s *SQLiteStore) DeleteSessionsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin session cleanup: %w", err)
	}
	defer tx.Rollback()

	const stale = `SELECT id FROM sessions s WHERE s.updated_at < ?
        AND NOT EXISTS (SELECT 1 FROM messages m WHERE m.session_id = s.id AND m.timestamp >= ?)`
	cutoff = cutoff.UTC()
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM messages WHERE session_id IN ("+stale+")", cutoff, cutoff); err != nil {
		return 0, fmt.Errorf("failed to delete stale messages: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE id IN ("+stale+")", cutoff, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, tx.Commit()
}

// Message methods

// AppendMessage stores msg after the session's last message. An empty ID gets a UUID.
func (s *SQLiteStore) AppendMessage(ctx context.Context, msg *Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	var calls any
	if len(msg.FunctionCalls) > 0 {
		calls = string(msg.FunctionCalls)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin message insert: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM sessions WHERE id = ?)", msg.SessionID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("failed to verify session: %w", err)
	}
	if !exists {
		return ErrSessionNotFound
	}
	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(seq), 0) + 1 FROM messages WHERE session_id = ?", msg.SessionID,
	).Scan(&msg.Seq); err != nil {
		return fmt.Errorf("failed to read message sequence: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO messages (session_id, id, seq, role, text, is_tool_call, tool_name, function_calls_json, timestamp)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.SessionID, msg.ID, msg.Seq, msg.Role, msg.Text, msg.IsToolCall, msg.ToolName, calls, msg.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to execute message insert: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) GetMessages(ctx context.Context, sessionID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, seq, role, text, is_tool_call, tool_name, function_calls_json, timestamp
         FROM messages WHERE session_id = ? ORDER BY seq ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var msg Message
		var calls sql.NullString
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Seq, &msg.Role, &msg.Text,
			&msg.IsToolCall, &msg.ToolName, &calls, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		if calls.Valid {
			msg.FunctionCalls = []byte(calls.String)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func (s *SQLiteStore) ClearMessages(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM messages WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	return nil
}
