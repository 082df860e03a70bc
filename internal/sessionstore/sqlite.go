package sessionstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/mcxraider/agentic-travel-planner-backend/internal/interview"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id TEXT PRIMARY KEY,
	profile    TEXT NOT NULL,
	round      INTEGER NOT NULL,
	data       TEXT NOT NULL,
	score      INTEGER NOT NULL DEFAULT 0,
	complete   INTEGER NOT NULL DEFAULT 0,
	conflicts  TEXT NOT NULL DEFAULT '[]',
	questions  TEXT NOT NULL DEFAULT '[]',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
`

type sessionRow struct {
	SessionID string `db:"session_id"`
	Profile   string `db:"profile"`
	Round     int    `db:"round"`
	Data      string `db:"data"`
	Score     int    `db:"score"`
	Complete  int    `db:"complete"`
	Conflicts string `db:"conflicts"`
	Questions string `db:"questions"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

// SQLiteStore persists sessions to SQLite so interviews survive process
// restarts. Structured columns (profile, cumulative data, questions) are
// stored as JSON text.
type SQLiteStore struct {
	db *sqlx.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Get(ctx context.Context, id string) (*interview.Session, error) {
	var row sessionRow
	err := s.db.GetContext(ctx, &row, "SELECT * FROM sessions WHERE session_id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	return rowToSession(row)
}

func (s *SQLiteStore) Put(ctx context.Context, sess *interview.Session) error {
	row, err := sessionToRow(sess)
	if err != nil {
		return err
	}
	_, err = s.db.NamedExecContext(ctx, `INSERT OR REPLACE INTO sessions
		(session_id, profile, round, data, score, complete, conflicts, questions, created_at, updated_at)
		VALUES (:session_id, :profile, :round, :data, :score, :complete, :conflicts, :questions, :created_at, :updated_at)`, row)
	if err != nil {
		return fmt.Errorf("save session %s: %w", sess.ID, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE session_id = ?", id); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

func sessionToRow(sess *interview.Session) (sessionRow, error) {
	profile, err := json.Marshal(sess.Profile)
	if err != nil {
		return sessionRow{}, fmt.Errorf("marshal profile: %w", err)
	}
	data, err := json.Marshal(sess.Data)
	if err != nil {
		return sessionRow{}, fmt.Errorf("marshal data: %w", err)
	}
	conflicts, err := json.Marshal(emptyIfNil(sess.Conflicts))
	if err != nil {
		return sessionRow{}, fmt.Errorf("marshal conflicts: %w", err)
	}
	questions, err := json.Marshal(sess.Questions)
	if err != nil {
		return sessionRow{}, fmt.Errorf("marshal questions: %w", err)
	}
	complete := 0
	if sess.Complete {
		complete = 1
	}
	return sessionRow{
		SessionID: sess.ID,
		Profile:   string(profile),
		Round:     sess.Round,
		Data:      string(data),
		Score:     sess.Score,
		Complete:  complete,
		Conflicts: string(conflicts),
		Questions: string(questions),
		CreatedAt: sess.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: sess.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}, nil
}

func rowToSession(row sessionRow) (*interview.Session, error) {
	sess := &interview.Session{
		ID:       row.SessionID,
		Round:    row.Round,
		Score:    row.Score,
		Complete: row.Complete != 0,
	}
	if err := json.Unmarshal([]byte(row.Profile), &sess.Profile); err != nil {
		return nil, fmt.Errorf("decode profile for %s: %w", row.SessionID, err)
	}
	if err := json.Unmarshal([]byte(row.Data), &sess.Data); err != nil {
		return nil, fmt.Errorf("decode data for %s: %w", row.SessionID, err)
	}
	if err := json.Unmarshal([]byte(row.Conflicts), &sess.Conflicts); err != nil {
		return nil, fmt.Errorf("decode conflicts for %s: %w", row.SessionID, err)
	}
	if err := json.Unmarshal([]byte(row.Questions), &sess.Questions); err != nil {
		return nil, fmt.Errorf("decode questions for %s: %w", row.SessionID, err)
	}
	sess.CreatedAt = parseTime(row.CreatedAt)
	sess.UpdatedAt = parseTime(row.UpdatedAt)
	return sess, nil
}

func emptyIfNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
