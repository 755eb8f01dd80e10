package archive

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/5c4lar/Bear/internal/compiledb"
)

// sqliteStore implements Store over modernc.org/sqlite, a pure-Go
// (CGO-free) driver, matching provisr's choice in
// internal/store/sqlite/sqlite.go.
type sqliteStore struct {
	db *sql.DB
}

func newSQLite(path string) (*sqliteStore, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, errors.New("archive: empty sqlite path")
	}
	db, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, err
	}
	db.Exec("PRAGMA busy_timeout=3000;")
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS archived_entries(
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			build_id TEXT NOT NULL,
			file TEXT NOT NULL,
			directory TEXT NOT NULL,
			output TEXT NOT NULL DEFAULT '',
			arguments TEXT NOT NULL,
			archived_at TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_archived_entries_build_id ON archived_entries(build_id);
	`)
	return err
}

func (s *sqliteStore) InsertBuild(ctx context.Context, buildID string, entries compiledb.Entries) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for _, e := range entries {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO archived_entries(build_id, file, directory, output, arguments, archived_at)
			VALUES(?, ?, ?, ?, ?, ?);`,
			buildID, e.File, e.Directory, e.Output, joinArguments(e.Arguments), now); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *sqliteStore) ListBuild(ctx context.Context, buildID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT build_id, file, directory, output, arguments, archived_at
		FROM archived_entries WHERE build_id=? ORDER BY id;`, buildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (s *sqliteStore) Close() error { return s.db.Close() }
