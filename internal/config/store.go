package config

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/gennetta/gennetta/internal/model"
)

// Store persists wizard sessions in SQLite.
type Store struct {
	db *sqlx.DB
}

// NewStore creates a new config store. Pass empty string for in-memory.
func NewStore(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == "" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		dsn = filepath.Join(dataDir, "gennetta.db") + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open config database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate config database: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// Sessions
// ---------------------------------------------------------------------------

// sessionRow maps 1:1 to the sessions table. The snapshot and selection are
// stored as JSON documents.
type sessionRow struct {
	ID               string    `db:"id"`
	Step             string    `db:"step"`
	Driver           string    `db:"driver"`
	ConnectionString string    `db:"connection_string"`
	SnapshotJSON     string    `db:"snapshot_json"`
	SelectedJSON     string    `db:"selected_json"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

func sessionRowFromModel(sess *model.Session) (sessionRow, error) {
	row := sessionRow{
		ID:               sess.ID,
		Step:             sess.Step,
		Driver:           sess.Driver,
		ConnectionString: sess.ConnectionString,
		CreatedAt:        sess.CreatedAt,
		UpdatedAt:        sess.UpdatedAt,
	}
	if sess.Snapshot != nil {
		snap, err := json.Marshal(sess.Snapshot)
		if err != nil {
			return sessionRow{}, fmt.Errorf("marshal snapshot: %w", err)
		}
		row.SnapshotJSON = string(snap)
	}
	selected := sess.Selected
	if selected == nil {
		selected = []string{}
	}
	sel, err := json.Marshal(selected)
	if err != nil {
		return sessionRow{}, fmt.Errorf("marshal selection: %w", err)
	}
	row.SelectedJSON = string(sel)
	return row, nil
}

func (r sessionRow) toModel() (model.Session, error) {
	sess := model.Session{
		ID:               r.ID,
		Step:             r.Step,
		Driver:           r.Driver,
		ConnectionString: r.ConnectionString,
		Selected:         []string{},
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
	if r.SnapshotJSON != "" {
		sess.Snapshot = &model.SchemaSnapshot{}
		if err := json.Unmarshal([]byte(r.SnapshotJSON), sess.Snapshot); err != nil {
			return model.Session{}, fmt.Errorf("unmarshal snapshot: %w", err)
		}
	}
	if r.SelectedJSON != "" && r.SelectedJSON != "[]" {
		if err := json.Unmarshal([]byte(r.SelectedJSON), &sess.Selected); err != nil {
			return model.Session{}, fmt.Errorf("unmarshal selection: %w", err)
		}
	}
	return sess, nil
}

// CreateSession inserts a new session. CreatedAt and UpdatedAt are set when
// zero.
func (s *Store) CreateSession(ctx context.Context, sess *model.Session) error {
	now := time.Now().UTC()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now
	}
	if sess.UpdatedAt.IsZero() {
		sess.UpdatedAt = sess.CreatedAt
	}

	row, err := sessionRowFromModel(sess)
	if err != nil {
		return err
	}

	const q = `INSERT INTO sessions
		(id, step, driver, connection_string, snapshot_json, selected_json, created_at, updated_at)
		VALUES
		(:id, :step, :driver, :connection_string, :snapshot_json, :selected_json, :created_at, :updated_at)`

	if _, err := s.db.NamedExecContext(ctx, q, row); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetSession returns a session by ID.
func (s *Store) GetSession(ctx context.Context, id string) (*model.Session, error) {
	var row sessionRow
	if err := s.db.GetContext(ctx, &row, "SELECT * FROM sessions WHERE id = ?", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	sess, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// ListSessions returns every session, most recently updated first. Snapshots
// are omitted.
func (s *Store) ListSessions(ctx context.Context) ([]model.Session, error) {
	var rows []sessionRow
	const q = `SELECT id, step, driver, connection_string, '' AS snapshot_json, selected_json, created_at, updated_at
		FROM sessions ORDER BY updated_at DESC, id`
	if err := s.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	sessions := make([]model.Session, 0, len(rows))
	for _, r := range rows {
		sess, err := r.toModel()
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, nil
}

// UpdateSession writes every mutable field of sess.
func (s *Store) UpdateSession(ctx context.Context, sess *model.Session) error {
	if sess.UpdatedAt.IsZero() {
		sess.UpdatedAt = time.Now().UTC()
	}
	row, err := sessionRowFromModel(sess)
	if err != nil {
		return err
	}

	const q = `UPDATE sessions SET
		step = :step, driver = :driver, connection_string = :connection_string,
		snapshot_json = :snapshot_json, selected_json = :selected_json, updated_at = :updated_at
		WHERE id = :id`

	result, err := s.db.NamedExecContext(ctx, q, row)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSession removes a session by ID.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete session rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// PurgeSessions deletes sessions not updated since before and returns how
// many were removed.
func (s *Store) PurgeSessions(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE updated_at < ?", before.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge sessions rows affected: %w", err)
	}
	return n, nil
}
