package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) (*sql.DB, *Queries) {
	t.Helper()
	ctx := context.Background()
	conn, dialect, err := Open(ctx, DriverSQLite3, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, InitDB(ctx, conn, dialect))
	return conn, New(conn, dialect)
}

// setupFileStore opens a migrated SQLite file so that concurrent callers get
// connections of their own.
func setupFileStore(t *testing.T) (*sql.DB, *Store) {
	t.Helper()
	ctx := context.Background()
	conn, dialect, err := Open(ctx, DriverSQLite3, filepath.Join(t.TempDir(), "cards.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, InitDB(ctx, conn, dialect))
	return conn, NewStore(conn, dialect, nil)
}

func ptr(s string) *string { return &s }

func examWord() NewWord {
	return NewWord{Text: "экзамен", Language: "RU", Sex: ptr("M")}
}

func germanWord() NewWord {
	return NewWord{Text: "Prüfung", Language: "DE", Sex: ptr("F")}
}

func englishWord() NewWord {
	return NewWord{Text: "exam", Language: "EN"}
}

func countRows(t *testing.T, conn *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, conn.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}
