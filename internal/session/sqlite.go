package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/spigell/cvbuilder/internal/cv"
	"github.com/spigell/cvbuilder/internal/flow"
	"github.com/spigell/cvbuilder/internal/session/migrations"
)

// timeLayout sorts lexicographically in UTC.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore keeps sessions in a SQLite database file.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

var _ flow.Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (and migrates) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= current {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", name, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)",
			version, time.Now().UTC().Format(timeLayout)); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", name, err)
		}
	}

	return nil
}

// Load returns the session of the user or flow.ErrSessionNotFound.
func (s *SQLiteStore) Load(ctx context.Context, userID string) (*flow.Session, error) {
	var (
		state     string
		cursor    int
		record    sql.NullString
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT state, cursor_index, record, updated_at
		FROM sessions WHERE user_id = ?
	`, userID).Scan(&state, &cursor, &record, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, flow.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}

	sess := &flow.Session{UserID: userID, Cursor: cursor}
	if sess.State, err = flow.ParseState(state); err != nil {
		return nil, fmt.Errorf("decoding session state: %w", err)
	}
	if sess.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("decoding session time: %w", err)
	}
	if record.Valid && record.String != "" {
		sess.Record = &cv.Record{}
		if err := json.Unmarshal([]byte(record.String), sess.Record); err != nil {
			return nil, fmt.Errorf("decoding session record: %w", err)
		}
	}

	return sess, nil
}

// Save stores or replaces the session.
func (s *SQLiteStore) Save(ctx context.Context, sess *flow.Session) error {
	if sess == nil || sess.UserID == "" {
		return errors.New("session with a user id is required")
	}

	var record sql.NullString
	if sess.Record != nil {
		data, err := json.Marshal(sess.Record)
		if err != nil {
			return fmt.Errorf("marshalling record: %w", err)
		}
		record = sql.NullString{String: string(data), Valid: true}
	}

	updatedAt := sess.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (user_id, state, cursor_index, record, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			state = excluded.state,
			cursor_index = excluded.cursor_index,
			record = excluded.record,
			updated_at = excluded.updated_at
	`, sess.UserID, sess.State.String(), sess.Cursor, record, updatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// Delete removes the session. Deleting a missing session is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// Purge removes sessions not updated since before and returns how many were removed.
func (s *SQLiteStore) Purge(ctx context.Context, before time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE updated_at < ?", before.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("purging sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting purged sessions: %w", err)
	}
	return int(n), nil
}
