package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	for _, table := range []string{"resolutions", "candidates"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestPragmas(t *testing.T) {
	s := createTestStore(t)

	// SQLite reports enum pragmas numerically.
	want := map[string]string{
		"journal_mode": "wal",
		"synchronous":  "1",
		"busy_timeout": "5000",
		"foreign_keys": "1",
	}
	for _, p := range pragmas {
		t.Run(p.name, func(t *testing.T) {
			got, err := s.pragma(p.name)
			if err != nil {
				t.Fatal(err)
			}
			if got != want[p.name] {
				t.Errorf("%s = %q, want %q", p.name, got, want[p.name])
			}
		})
	}
}

func TestSchema_ResolutionsTable(t *testing.T) {
	s := createTestStore(t)

	columns := getTableColumns(t, s.db, "resolutions")
	expected := []string{
		"id", "session", "seq", "call", "function", "winner", "signature",
		"return_type", "implicit_casts", "empty_variadic", "defaults_mask",
		"args", "error_code", "error", "catalog_generation", "record",
	}
	for _, col := range expected {
		if !contains(columns, col) {
			t.Errorf("resolutions table missing column %q", col)
		}
	}
}

func TestSchema_CandidatesTable(t *testing.T) {
	s := createTestStore(t)

	columns := getTableColumns(t, s.db, "candidates")
	for _, col := range []string{"resolution_id", "ordinal", "function", "signature", "matched", "implicit_casts"} {
		if !contains(columns, col) {
			t.Errorf("candidates table missing column %q", col)
		}
	}
}

func TestMigrations_SetUserVersion(t *testing.T) {
	s := createTestStore(t)

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("user_version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, currentSchemaVersion)
	}

	var name string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='index' AND name='idx_resolutions_function_seq'",
	).Scan(&name)
	if err != nil {
		t.Errorf("v1 index missing: %v", err)
	}
}

func TestLastSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seq, err := s.LastSeq(ctx)
	if err != nil {
		t.Fatalf("LastSeq() on empty store failed: %v", err)
	}
	if seq != 0 {
		t.Errorf("LastSeq() = %d, want 0", seq)
	}

	if _, err := s.Record(ctx, "s1", 4, createTestRecord("len('a')")); err != nil {
		t.Fatalf("Record() failed: %v", err)
	}
	if _, err := s.Record(ctx, "s1", 9, createTestRecord("len('b')")); err != nil {
		t.Fatalf("Record() failed: %v", err)
	}

	seq, err = s.LastSeq(ctx)
	if err != nil {
		t.Fatalf("LastSeq() failed: %v", err)
	}
	if seq != 9 {
		t.Errorf("LastSeq() = %d, want 9", seq)
	}
}
