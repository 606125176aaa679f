// Package storagetest opens throwaway databases for store tests.
package storagetest

import (
	"context"
	"database/sql"
	"testing"

	"parker/internal/adapters/storage"
)

// Open returns an in-memory database with the full schema, closed when the test ends.
func Open(t testing.TB) *sql.DB {
	t.Helper()
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.InitDB(context.Background(), db); err != nil {
		t.Fatalf("init test db: %v", err)
	}
	return db
}
