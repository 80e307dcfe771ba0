package collector

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/agentops-ai/agentops-go/pkg/session"
	"github.com/agentops-ai/agentops-go/pkg/sqliteutil"
)

var migrations = []sqliteutil.Migration{
	{
		Name: "001_create_sessions",
		UpSQL: `CREATE TABLE sessions (
			id TEXT PRIMARY KEY,
			tags TEXT NOT NULL DEFAULT '[]',
			init_timestamp TEXT NOT NULL,
			end_timestamp TEXT,
			end_state TEXT NOT NULL DEFAULT '',
			rating TEXT NOT NULL DEFAULT ''
		)`,
	},
	{
		Name: "002_create_events",
		UpSQL: `CREATE TABLE events (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			data TEXT NOT NULL
		)`,
	},
	{
		Name:  "003_events_session_index",
		UpSQL: `CREATE INDEX idx_events_session ON events (session_id, seq)`,
	},
}

// timestampLayout has a fixed width so stored timestamps sort as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore keeps sessions and events in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens path (or sqliteutil.Memory) and migrates it.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sqliteutil.OpenDB(path)
	if err != nil {
		return nil, err
	}
	if err := sqliteutil.Migrate(ctx, db, migrations); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) UpsertSession(ctx context.Context, snap session.Snapshot) error {
	if snap.SessionID == "" {
		return ErrEmptyID
	}

	tags, err := json.Marshal(snap.Tags)
	if err != nil {
		return fmt.Errorf("marshaling tags: %w", err)
	}
	var ended sql.NullString
	if snap.EndTimestamp != nil {
		ended = sql.NullString{String: snap.EndTimestamp.UTC().Format(timestampLayout), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, tags, init_timestamp, end_timestamp, end_state, rating)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			tags = excluded.tags,
			init_timestamp = excluded.init_timestamp,
			end_timestamp = excluded.end_timestamp,
			end_state = excluded.end_state,
			rating = excluded.rating`,
		snap.SessionID, string(tags), snap.InitTimestamp.UTC().Format(timestampLayout), ended, string(snap.EndState), snap.Rating)
	return err
}

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (session.Snapshot, error) {
	if id == "" {
		return session.Snapshot{}, ErrEmptyID
	}

	row := s.db.QueryRowContext(ctx,
		"SELECT id, tags, init_timestamp, end_timestamp, end_state, rating FROM sessions WHERE id = ?", id)
	snap, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return session.Snapshot{}, ErrNotFound
	}
	return snap, err
}

func (s *SQLiteStore) ListSessions(ctx context.Context) ([]session.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, tags, init_timestamp, end_timestamp, end_state, rating FROM sessions ORDER BY init_timestamp, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []session.Snapshot
	for rows.Next() {
		snap, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) AppendEvents(ctx context.Context, events []Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, e := range events {
		if e.SessionID == "" {
			return ErrEmptyID
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO events (session_id, data) VALUES (?, ?)", e.SessionID, string(e.Data)); err != nil {
			return fmt.Errorf("inserting event: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) ListEvents(ctx context.Context, sessionID string) ([]json.RawMessage, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT data FROM events WHERE session_id = ? ORDER BY seq", sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []json.RawMessage{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		out = append(out, json.RawMessage(data))
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (session.Snapshot, error) {
	var (
		snap     session.Snapshot
		tags     string
		initTS   string
		endTS    sql.NullString
		endState string
	)
	if err := row.Scan(&snap.SessionID, &tags, &initTS, &endTS, &endState, &snap.Rating); err != nil {
		return session.Snapshot{}, err
	}

	if err := json.Unmarshal([]byte(tags), &snap.Tags); err != nil {
		return session.Snapshot{}, fmt.Errorf("decoding tags of session %s: %w", snap.SessionID, err)
	}
	if snap.Tags == nil {
		snap.Tags = []string{}
	}

	var err error
	if snap.InitTimestamp, err = time.Parse(timestampLayout, initTS); err != nil {
		return session.Snapshot{}, err
	}
	if endTS.Valid {
		t, err := time.Parse(timestampLayout, endTS.String)
		if err != nil {
			return session.Snapshot{}, err
		}
		snap.EndTimestamp = &t
	}
	snap.EndState = session.EndState(endState)
	return snap, nil
}
