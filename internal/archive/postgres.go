package archive

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/5c4lar/Bear/internal/compiledb"
)

// postgresStore implements Store over database/sql via pgx's stdlib
// adapter, matching provisr's internal/store/postgres/postgres.go.
type postgresStore struct {
	db *sql.DB
}

func newPostgres(dsn string) (*postgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &postgresStore{db: db}, nil
}

func (p *postgresStore) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS archived_entries(
			id BIGSERIAL PRIMARY KEY,
			build_id TEXT NOT NULL,
			file TEXT NOT NULL,
			directory TEXT NOT NULL,
			output TEXT NOT NULL DEFAULT '',
			arguments TEXT NOT NULL,
			archived_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_archived_entries_build_id ON archived_entries(build_id);
	`)
	return err
}

func (p *postgresStore) InsertBuild(ctx context.Context, buildID string, entries compiledb.Entries) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for _, e := range entries {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO archived_entries(build_id, file, directory, output, arguments, archived_at)
			VALUES($1,$2,$3,$4,$5,$6);`,
			buildID, e.File, e.Directory, e.Output, joinArguments(e.Arguments), now); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (p *postgresStore) ListBuild(ctx context.Context, buildID string) ([]Record, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT build_id, file, directory, output, arguments, archived_at
		FROM archived_entries WHERE build_id=$1 ORDER BY id;`, buildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (p *postgresStore) Close() error { return p.db.Close() }
