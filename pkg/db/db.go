// Package db stores words and the translation edges between them.
//
// Queries runs every statement on an executor supplied by the caller and
// owns no connection state. Store wraps an open *sql.DB and runs the
// multi-statement operations inside one transaction.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrations embed.FS

// Dialect selects the SQL flavour statements and migrations are written in.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Supported database/sql driver names.
const (
	DriverSQLite3 = "sqlite3" // github.com/mattn/go-sqlite3
	DriverSQLite  = "sqlite"  // modernc.org/sqlite
	DriverPgx     = "pgx"     // github.com/jackc/pgx/v5/stdlib
)

// Drivers lists the driver names Open accepts.
var Drivers = []string{DriverSQLite3, DriverSQLite, DriverPgx}

// DriverDialect maps a driver name to its dialect.
func DriverDialect(driver string) (Dialect, error) {
	switch driver {
	case DriverSQLite3, DriverSQLite:
		return DialectSQLite, nil
	case DriverPgx:
		return DialectPostgres, nil
	}
	return "", fmt.Errorf("unsupported driver %q", driver)
}

// Open opens and pings a database. SQLite connections get foreign keys and a
// busy timeout; file databases also take the write lock when a transaction
// begins, so concurrent writers wait instead of failing on upgrade.
// In-memory SQLite is pinned to a single connection so every caller sees the
// same database.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, Dialect, error) {
	dialect, err := DriverDialect(driver)
	if err != nil {
		return nil, "", err
	}

	conn, err := sql.Open(driver, sqliteDSN(driver, dsn))
	if err != nil {
		return nil, "", fmt.Errorf("open %s database: %w", driver, err)
	}
	if dialect == DialectSQLite && isMemoryDSN(dsn) {
		conn.SetMaxOpenConns(1)
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, "", fmt.Errorf("ping %s database: %w", driver, err)
	}
	return conn, dialect, nil
}

func sqliteDSN(driver, dsn string) string {
	var params []string
	switch driver {
	case DriverSQLite3:
		params = []string{"_foreign_keys=on", "_busy_timeout=5000"}
		if !isMemoryDSN(dsn) {
			params = append(params, "_journal_mode=WAL", "_txlock=immediate")
		}
	case DriverSQLite:
		params = []string{"_pragma=foreign_keys(1)", "_pragma=busy_timeout(5000)"}
		if !isMemoryDSN(dsn) {
			params = append(params, "_pragma=journal_mode(WAL)", "_txlock=immediate")
		}
	default:
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// InitDB applies every pending migration for the dialect.
func InitDB(ctx context.Context, conn *sql.DB, dialect Dialect) error {
	provider, err := newMigrationProvider(conn, dialect)
	if err != nil {
		return err
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// MigrationVersion returns the version of the last applied migration.
func MigrationVersion(ctx context.Context, conn *sql.DB, dialect Dialect) (int64, error) {
	provider, err := newMigrationProvider(conn, dialect)
	if err != nil {
		return 0, err
	}
	return provider.GetDBVersion(ctx)
}

func newMigrationProvider(conn *sql.DB, dialect Dialect) (*goose.Provider, error) {
	var gooseDialect goose.Dialect
	switch dialect {
	case DialectSQLite:
		gooseDialect = goose.DialectSQLite3
	case DialectPostgres:
		gooseDialect = goose.DialectPostgres
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}

	fsys, err := fs.Sub(migrations, "migrations/"+string(dialect))
	if err != nil {
		return nil, fmt.Errorf("load %s migrations: %w", dialect, err)
	}
	provider, err := goose.NewProvider(gooseDialect, conn, fsys)
	if err != nil {
		return nil, fmt.Errorf("create migration provider: %w", err)
	}
	return provider, nil
}
