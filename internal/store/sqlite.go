package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/openexams/invigil/internal/model"
)

// SQLite is a sqlite-backed Store. Entities are aggregates mutated as a
// whole, so they are stored as JSON payloads keyed by id, with the few
// columns teacher dashboards filter on pulled out alongside.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (and if needed migrates) the database at dbPath.
func NewSQLite(dbPath string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS document_sets (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL DEFAULT '',
		payload TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS quiz_sessions (
		id TEXT PRIMARY KEY,
		document_set_id TEXT NOT NULL,
		student_id TEXT NOT NULL,
		completed INTEGER NOT NULL DEFAULT 0,
		payload TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS imported_files (
		path TEXT PRIMARY KEY,
		hash TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// GetDocumentSet implements DocumentSetRepo.
func (s *SQLite) GetDocumentSet(ctx context.Context, id string) (*model.SourceDocumentSet, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM document_sets WHERE id = ?`, id,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var set model.SourceDocumentSet
	if err := json.Unmarshal([]byte(payload), &set); err != nil {
		return nil, fmt.Errorf("decode document set %s: %w", id, err)
	}
	return &set, nil
}

// PutDocumentSet implements DocumentSetRepo.
func (s *SQLite) PutDocumentSet(ctx context.Context, set *model.SourceDocumentSet) error {
	payload, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("encode document set %s: %w", set.ID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO document_sets (id, owner_id, payload, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET payload = excluded.payload`,
		set.ID, set.OwnerID, string(payload), set.CreatedAt,
	)
	return err
}

// DeleteDocumentSet implements DocumentSetRepo.
func (s *SQLite) DeleteDocumentSet(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM document_sets WHERE id = ?`, id)
	return err
}

// GetSession implements SessionRepo.
func (s *SQLite) GetSession(ctx context.Context, id string) (*model.QuizSession, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM quiz_sessions WHERE id = ?`, id,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var sess model.QuizSession
	if err := json.Unmarshal([]byte(payload), &sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &sess, nil
}

// PutSession implements SessionRepo.
func (s *SQLite) PutSession(ctx context.Context, sess *model.QuizSession) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sess.ID, err)
	}
	completed := 0
	if sess.Completed {
		completed = 1
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO quiz_sessions (id, document_set_id, student_id, completed, payload, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			completed = excluded.completed,
			payload = excluded.payload,
			updated_at = excluded.updated_at`,
		sess.ID, sess.SourceDocumentSetID, sess.StudentID, completed, string(payload), time.Now(),
	)
	return err
}

// DeleteSession implements SessionRepo.
func (s *SQLite) DeleteSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM quiz_sessions WHERE id = ?`, id)
	return err
}

// ListSessions implements SessionRepo. Most recently updated first.
func (s *SQLite) ListSessions(ctx context.Context) ([]*model.QuizSession, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM quiz_sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var sessions []*model.QuizSession
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var sess model.QuizSession
		if err := json.Unmarshal([]byte(payload), &sess); err != nil {
			return nil, fmt.Errorf("decode session: %w", err)
		}
		sessions = append(sessions, &sess)
	}
	return sessions, rows.Err()
}

// GetImportedFileHash returns the recorded content hash for an ingested
// file path, or "" if the path was never ingested.
func (s *SQLite) GetImportedFileHash(path string) (string, error) {
	var hash string
	err := s.db.QueryRow(`SELECT hash FROM imported_files WHERE path = ?`, path).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return hash, err
}

// SetImportedFileHash records the content hash for an ingested file path.
func (s *SQLite) SetImportedFileHash(path, hash string) error {
	_, err := s.db.Exec(
		`INSERT INTO imported_files (path, hash) VALUES (?, ?)
		 ON CONFLICT(path) DO UPDATE SET hash = excluded.hash`,
		path, hash,
	)
	return err
}
