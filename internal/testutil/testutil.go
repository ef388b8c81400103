package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/japaniel/cards/pkg/db"
)

// TestStore opens a migrated in-memory SQLite database and wraps it in a
// db.Store that logs to t. The connection is closed when the test ends.
func TestStore(t testing.TB) (*sql.DB, *db.Store) {
	t.Helper()
	return openStore(t, ":memory:")
}

// TestFileStore is TestStore backed by a file in t.TempDir, for tests that
// need more than one connection.
func TestFileStore(t testing.TB) (*sql.DB, *db.Store) {
	t.Helper()
	return openStore(t, filepath.Join(t.TempDir(), "cards-test.db"))
}

func openStore(t testing.TB, dsn string) (*sql.DB, *db.Store) {
	t.Helper()
	ctx := context.Background()
	conn, dialect, err := db.Open(ctx, db.DriverSQLite3, dsn)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := db.InitDB(ctx, conn, dialect); err != nil {
		t.Fatal(err)
	}
	return conn, db.NewStore(conn, dialect, NewTestLogger(t))
}

// CountRows returns the number of rows in table.
func CountRows(t testing.TB, conn *sql.DB, table string) int {
	t.Helper()
	var n int
	if err := conn.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatal(err)
	}
	return n
}
