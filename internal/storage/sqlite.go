// Package storage persists generation outcomes in SQLite.
//
// The history it keeps is what the access layer counts against a user's
// free allowance, and what the API returns as a user's recent generations.
// A generation for a quota-limited user is reserved as a pending row before
// any provider is called and completed once its fallback chain returns.
package storage

import (
	"cmp"
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver.
)

// Store provides typed queries over the generations table.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store backed by the given database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// OpenDatabase opens (or creates) the SQLite database at dbPath with WAL
// journaling, a 5-second busy timeout and foreign keys on. ":memory:" opens
// a private in-memory database.
//
// The pool holds a single connection. SQLite has one writer, and quota
// reservations rely on every statement seeing the previous one's rows.
func OpenDatabase(ctx context.Context, dbPath string) (*sql.DB, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory %q: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("opening database %q: %w", dbPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database %q: %w", dbPath, err)
	}

	slog.Info("opened generation store", "path", dbPath)
	return db, nil
}

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migration is one embedded NNN_description.sql file.
type migration struct {
	version int
	name    string
	sql     string
}

// loadMigrations returns the embedded migrations ordered by version.
// Files without a numeric prefix are ignored.
func loadMigrations(fsys fs.FS) ([]migration, error) {
	names, err := fs.Glob(fsys, "migrations/*.sql")
	if err != nil {
		return nil, fmt.Errorf("listing migrations: %w", err)
	}

	var out []migration
	for _, name := range names {
		base := path.Base(name)
		prefix, _, ok := strings.Cut(base, "_")
		if !ok {
			continue
		}
		version, err := strconv.Atoi(prefix)
		if err != nil || version <= 0 {
			continue
		}
		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("reading migration %q: %w", base, err)
		}
		out = append(out, migration{version: version, name: base, sql: string(body)})
	}

	slices.SortFunc(out, func(a, b migration) int { return cmp.Compare(a.version, b.version) })
	for i := 1; i < len(out); i++ {
		if out[i].version == out[i-1].version {
			return nil, fmt.Errorf("duplicate migration version %d: %q and %q", out[i].version, out[i-1].name, out[i].name)
		}
	}
	return out, nil
}

// RunMigrations brings the schema up to date. Each pending migration runs in
// its own transaction together with its schema_migrations row, so a failed
// file leaves no partial schema behind.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`); err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	migrations, err := loadMigrations(migrationsFS)
	if err != nil {
		return err
	}

	current, err := schemaVersion(ctx, db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := applyMigration(ctx, db, m); err != nil {
			return fmt.Errorf("applying migration %s: %w", m.name, err)
		}
		slog.Info("applied migration", "version", m.version, "file", m.name)
	}
	return nil
}

// schemaVersion returns the highest applied migration version, or 0 for a
// fresh database.
func schemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var v sql.NullInt64
	if err := db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_migrations`).Scan(&v); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return int(v.Int64), nil
}

func applyMigration(ctx context.Context, db *sql.DB, m migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, m.sql); err != nil {
		return fmt.Errorf("executing migration SQL: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, m.version); err != nil {
		return fmt.Errorf("recording migration version: %w", err)
	}
	return tx.Commit()
}

// parseTime parses a SQLite datetime string, returning the zero time when
// no known layout matches.
func parseTime(s string) time.Time {
	for _, layout := range []string{
		time.DateTime,
		time.RFC3339,
		"2006-01-02T15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
