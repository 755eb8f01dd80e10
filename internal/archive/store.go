// Package archive is the optional historical sink for finalized
// compilation-database entries: every citnames run that has an
// archive configured inserts its output here in addition to writing
// compile_commands.json, so past builds can be queried later. Not
// required by spec.md; a SPEC_FULL addition exercising the pack's SQL
// driver surface.
package archive

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/5c4lar/Bear/internal/compiledb"
)

// Record is one archived entry, tagged with the build it came from.
type Record struct {
	BuildID     string
	File        string
	Directory   string
	Output      string
	Arguments   []string
	ArchivedAt  time.Time
}

// Store is the interface both backends satisfy.
type Store interface {
	EnsureSchema(ctx context.Context) error
	InsertBuild(ctx context.Context, buildID string, entries compiledb.Entries) error
	ListBuild(ctx context.Context, buildID string) ([]Record, error)
	Close() error
}

// NewFromDSN selects a backend based on dsn, mirroring the scheme
// dispatch in loykin-provisr's store factory:
//   - "postgres://" or "postgresql://" -> postgres
//   - "sqlite://" prefix or a bare filesystem path -> sqlite
func NewFromDSN(dsn string) (Store, error) {
	d := strings.TrimSpace(dsn)
	ld := strings.ToLower(d)
	if ld == "" {
		return nil, errors.New("archive: empty DSN")
	}
	if strings.HasPrefix(ld, "postgres://") || strings.HasPrefix(ld, "postgresql://") {
		return newPostgres(d)
	}
	if strings.HasPrefix(ld, "sqlite://") {
		return newSQLite(strings.TrimPrefix(d, "sqlite://"))
	}
	return newSQLite(d)
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	out := make([]Record, 0)
	for rows.Next() {
		var r Record
		var args string
		if err := rows.Scan(&r.BuildID, &r.File, &r.Directory, &r.Output, &args, &r.ArchivedAt); err != nil {
			return nil, err
		}
		if args != "" {
			r.Arguments = strings.Split(args, "\x00")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func joinArguments(args []string) string {
	return strings.Join(args, "\x00")
}
