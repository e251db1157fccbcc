package duckdb_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"reqtester/internal/duckdb/testing"
	"reqtester/internal/testutil"
)

const (
	testTimeout = 5 * time.Second
)

// openTestDB opens an in-memory DuckDB instance with the schema applied.
func openTestDB(t *testing.T) (*sql.DB, context.Context) {
	t.Helper()
	ctx := testutil.Context(t, testTimeout)
	db := duckdbtesting.Open(t, ":memory:")
	return db, ctx
}

// queryInt returns a single integer value from the database.
func queryInt(t *testing.T, ctx context.Context, db *sql.DB, query string, args ...any) int {
	t.Helper()
	var out int
	if err := db.QueryRowContext(ctx, query, args...).Scan(&out); err != nil {
		t.Fatalf("query int failed: %v", err)
	}
	return out
}

// queryString returns a single string value from the database.
func queryString(t *testing.T, ctx context.Context, db *sql.DB, query string, args ...any) sql.NullString {
	t.Helper()
	var out sql.NullString
	if err := db.QueryRowContext(ctx, query, args...).Scan(&out); err != nil {
		t.Fatalf("query string failed: %v", err)
	}
	return out
}
