// Package ledger persists the build's extracted knowledge (accumulated
// files and API contracts) in a local SQLite database so separate CLI
// invocations can inspect a build without replaying it.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/stackweaver/stackweaver/internal/analyze"
)

// schema contains the DDL executed on first open. Using IF NOT EXISTS makes
// it safe to run on every startup.
const schema = `
CREATE TABLE IF NOT EXISTS files (
    path       TEXT PRIMARY KEY,
    type       TEXT NOT NULL,
    exports    TEXT NOT NULL DEFAULT '',
    summary    TEXT NOT NULL DEFAULT '',
    phase      INTEGER NOT NULL DEFAULT 0,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS contracts (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    endpoint      TEXT NOT NULL,
    method        TEXT NOT NULL,
    requires_auth INTEGER NOT NULL DEFAULT 0,
    phase         INTEGER NOT NULL DEFAULT 0,
    created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(endpoint, method)
);
`

// Store is a SQLite-backed ledger of build knowledge.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the ledger database at dbPath, enables WAL mode
// and a busy timeout, and creates the schema if needed.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("ledger: open database: %w", err)
	}

	// SQLite supports a single writer; one pooled connection avoids
	// SQLITE_BUSY contention between connections needing their own PRAGMAs.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: set busy timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// RecordFiles upserts the latest analysis of each file, tagged with the
// phase that produced it.
func (s *Store) RecordFiles(ctx context.Context, phase int, files []analyze.AccumulatedFile) error {
	if len(files) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ledger: begin tx for files: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	const q = `
		INSERT INTO files (path, type, exports, summary, phase, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(path) DO UPDATE SET
			type       = excluded.type,
			exports    = excluded.exports,
			summary    = excluded.summary,
			phase      = excluded.phase,
			updated_at = CURRENT_TIMESTAMP`

	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		return fmt.Errorf("ledger: prepare file upsert: %w", err)
	}
	defer stmt.Close()

	for _, f := range files {
		exports := strings.Join(f.Exports, ",")
		if _, err := stmt.ExecContext(ctx, f.Path, string(f.Type), exports, f.Summary, phase); err != nil {
			return fmt.Errorf("ledger: upsert file %q: %w", f.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ledger: commit files: %w", err)
	}
	return nil
}

// RecordContracts upserts extracted API contracts, tagged with the phase
// that produced them.
func (s *Store) RecordContracts(ctx context.Context, phase int, contracts []analyze.APIContract) error {
	if len(contracts) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ledger: begin tx for contracts: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	const q = `
		INSERT INTO contracts (endpoint, method, requires_auth, phase)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(endpoint, method) DO UPDATE SET
			requires_auth = excluded.requires_auth,
			phase         = excluded.phase`

	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		return fmt.Errorf("ledger: prepare contract upsert: %w", err)
	}
	defer stmt.Close()

	for _, c := range contracts {
		auth := 0
		if c.RequiresAuth {
			auth = 1
		}
		if _, err := stmt.ExecContext(ctx, c.Endpoint, c.Method, auth, phase); err != nil {
			return fmt.Errorf("ledger: upsert contract %s %s: %w", c.Method, c.Endpoint, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ledger: commit contracts: %w", err)
	}
	return nil
}

// FileEntry is one row from the files table.
type FileEntry struct {
	Path    string
	Type    string
	Exports string
	Summary string
	Phase   int
}

// Files returns all recorded files ordered by path.
func (s *Store) Files(ctx context.Context) ([]FileEntry, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT path, type, exports, summary, phase FROM files ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("ledger: query files: %w", err)
	}
	defer rows.Close()

	var out []FileEntry
	for rows.Next() {
		var e FileEntry
		if err := rows.Scan(&e.Path, &e.Type, &e.Exports, &e.Summary, &e.Phase); err != nil {
			return nil, fmt.Errorf("ledger: scan file row: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ContractEntry is one row from the contracts table.
type ContractEntry struct {
	Endpoint     string
	Method       string
	RequiresAuth bool
	Phase        int
}

// Contracts returns all recorded contracts ordered by endpoint then method.
func (s *Store) Contracts(ctx context.Context) ([]ContractEntry, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT endpoint, method, requires_auth, phase FROM contracts ORDER BY endpoint, method")
	if err != nil {
		return nil, fmt.Errorf("ledger: query contracts: %w", err)
	}
	defer rows.Close()

	var out []ContractEntry
	for rows.Next() {
		var e ContractEntry
		var auth int
		if err := rows.Scan(&e.Endpoint, &e.Method, &auth, &e.Phase); err != nil {
			return nil, fmt.Errorf("ledger: scan contract row: %w", err)
		}
		e.RequiresAuth = auth != 0
		out = append(out, e)
	}
	return out, rows.Err()
}

// FileByPath returns one recorded file entry.
func (s *Store) FileByPath(ctx context.Context, path string) (FileEntry, error) {
	var e FileEntry
	err := s.db.QueryRowContext(ctx,
		"SELECT path, type, exports, summary, phase FROM files WHERE path = ?", path).
		Scan(&e.Path, &e.Type, &e.Exports, &e.Summary, &e.Phase)
	if errors.Is(err, sql.ErrNoRows) {
		return FileEntry{}, fmt.Errorf("ledger: file %q not recorded", path)
	}
	if err != nil {
		return FileEntry{}, fmt.Errorf("ledger: get file %q: %w", path, err)
	}
	return e, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
