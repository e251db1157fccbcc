package duckdbtesting

import (
	"database/sql"
	"testing"
	"time"

	"reqtester/internal/duckdb"
	"reqtester/internal/testutil"
)

const (
	defaultTimeout = 5 * time.Second
)

// Open opens a DuckDB database with the schema applied and closes it when
// the test ends.
func Open(t testing.TB, path string) *sql.DB {
	t.Helper()
	ctx := testutil.Context(t, defaultTimeout)
	db, err := duckdb.Open(ctx, path)
	if err != nil {
		t.Fatalf("open duckdb: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}
