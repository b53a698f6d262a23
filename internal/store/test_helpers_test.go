package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/roach88/qlbind/internal/compiler"
)

// createTestStore opens a fresh store in a temp dir, closed on cleanup.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRecord builds a successful resolution with two candidates.
func createTestRecord(call string) compiler.ResolutionRecord {
	return compiler.ResolutionRecord{
		Call:     call,
		Function: "len",
		Candidates: []compiler.CandidateOutcome{
			{Function: "std::len@@std|str", Signature: "std::len(s: std::str) -> std::int64", Matched: true},
			{Function: "std::len@@std|bytes", Signature: "std::len(b: std::bytes) -> std::int64"},
		},
		Winner:            "std::len@@std|str",
		Signature:         "std::len(s: std::str) -> std::int64",
		ReturnType:        "std::int64",
		DefaultsMask:      []byte{0x00},
		Args:              []string{`b'\x00'`, `"abc"`},
		CatalogGeneration: 7,
	}
}

// createFailedRecord builds a failed resolution.
func createFailedRecord(call string) compiler.ResolutionRecord {
	return compiler.ResolutionRecord{
		Call:     call,
		Function: "abs",
		Candidates: []compiler.CandidateOutcome{
			{Function: "std::abs@@std|int64", Signature: "std::abs(x: std::int64) -> std::int64"},
		},
		ErrorCode:         compiler.ErrCodeNoMatchingVariant,
		Error:             "could not find a function variant abs",
		CatalogGeneration: 7,
	}
}

func getTableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()
	rows, err := db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		t.Fatalf("table_info(%s) failed: %v", table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			t.Fatalf("scan table_info: %v", err)
		}
		cols = append(cols, name)
	}
	return cols
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
