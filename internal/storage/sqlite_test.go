package storage

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
)

// newTestDB creates an in-memory SQLite database with migrations applied.
// The database is automatically closed when the test completes.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()
	db, err := OpenDatabase(ctx, ":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := RunMigrations(ctx, db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}
	return db
}

// newTestStore creates an in-memory Store with migrations applied.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(newTestDB(t))
}

func TestOpenDatabase_CreatesDirectoryAndFile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "deep", "gbseo.db")

	db, err := OpenDatabase(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("OpenDatabase(%q) error: %v", dbPath, err)
	}
	defer db.Close()

	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("database file not created at %q: %v", dbPath, err)
	}
}

func TestOpenDatabase_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if db, err := OpenDatabase(ctx, ":memory:"); err == nil {
		db.Close()
		t.Fatal("OpenDatabase with canceled context should fail")
	}
}

func TestRunMigrations_AppliesSchema(t *testing.T) {
	db := newTestDB(t)

	for _, obj := range []struct{ kind, name string }{
		{"table", "generations"},
		{"table", "schema_migrations"},
		{"index", "idx_generations_user"},
		{"index", "idx_generations_user_success"},
		{"index", "idx_generations_user_pending"},
	} {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type = ? AND name = ?", obj.kind, obj.name,
		).Scan(&name)
		if err != nil {
			t.Errorf("%s %q not found: %v", obj.kind, obj.name, err)
		}
	}

	// The reservation migration adds the pending column.
	if _, err := db.Exec("SELECT pending FROM generations LIMIT 1"); err != nil {
		t.Errorf("generations.pending missing: %v", err)
	}

	version, err := schemaVersion(context.Background(), db)
	if err != nil {
		t.Fatalf("schemaVersion() error: %v", err)
	}
	if version != 2 {
		t.Errorf("schema version = %d, want 2", version)
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	db := newTestDB(t)

	if err := RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("second RunMigrations error: %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("counting migrations: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 migration records, got %d", count)
	}
}

func TestLoadMigrations(t *testing.T) {
	tests := []struct {
		name      string
		files     fstest.MapFS
		wantNames []string
		wantErr   bool
	}{
		{
			name: "sorted by version",
			files: fstest.MapFS{
				"migrations/010_later.sql":  {Data: []byte("SELECT 10;")},
				"migrations/002_second.sql": {Data: []byte("SELECT 2;")},
				"migrations/001_first.sql":  {Data: []byte("SELECT 1;")},
			},
			wantNames: []string{"001_first.sql", "002_second.sql", "010_later.sql"},
		},
		{
			name: "unnumbered files ignored",
			files: fstest.MapFS{
				"migrations/001_first.sql": {Data: []byte("SELECT 1;")},
				"migrations/notes.sql":     {Data: []byte("-- scratch")},
				"migrations/draft_x.sql":   {Data: []byte("-- scratch")},
				"migrations/000_zero.sql":  {Data: []byte("-- zero")},
			},
			wantNames: []string{"001_first.sql"},
		},
		{
			name: "duplicate version",
			files: fstest.MapFS{
				"migrations/001_a.sql": {Data: []byte("SELECT 1;")},
				"migrations/1_b.sql":   {Data: []byte("SELECT 1;")},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := loadMigrations(tt.files)
			if tt.wantErr {
				if err == nil {
					t.Fatal("loadMigrations() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("loadMigrations() error: %v", err)
			}
			if len(got) != len(tt.wantNames) {
				t.Fatalf("got %d migrations, want %d", len(got), len(tt.wantNames))
			}
			for i, want := range tt.wantNames {
				if got[i].name != want {
					t.Errorf("got[%d].name = %q, want %q", i, got[i].name, want)
				}
			}
		})
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string // expected in time.DateTime format, or "zero"
	}{
		{name: "sqlite format", input: "2025-01-15 10:30:00", want: "2025-01-15 10:30:00"},
		{name: "RFC3339", input: "2025-01-15T10:30:00Z", want: "2025-01-15 10:30:00"},
		{name: "invalid", input: "not-a-date", want: "zero"},
		{name: "empty", input: "", want: "zero"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseTime(tt.input)
			if tt.want == "zero" {
				if !got.IsZero() {
					t.Errorf("parseTime(%q) = %v, want zero time", tt.input, got)
				}
				return
			}
			if gotStr := got.Format("2006-01-02 15:04:05"); gotStr != tt.want {
				t.Errorf("parseTime(%q) = %q, want %q", tt.input, gotStr, tt.want)
			}
		})
	}
}
