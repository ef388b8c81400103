package db

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
)

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx
type DBExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Queries runs the word and translation statements on a caller-supplied
// executor. It never opens, closes or begins anything on its own.
type Queries struct {
	db      DBExecutor
	dialect Dialect
}

// New binds the statements to db, written for the given dialect.
func New(db DBExecutor, dialect Dialect) *Queries {
	return &Queries{db: db, dialect: dialect}
}

// WithTx returns a copy of q that runs on tx.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx, dialect: q.dialect}
}

// Dialect reports the SQL dialect the statements are written for.
func (q *Queries) Dialect() Dialect { return q.dialect }

func (q *Queries) exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return q.db.ExecContext(ctx, q.rebind(query), args...)
}

func (q *Queries) query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return q.db.QueryContext(ctx, q.rebind(query), args...)
}

func (q *Queries) queryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return q.db.QueryRowContext(ctx, q.rebind(query), args...)
}

// rebind rewrites ? placeholders into $1, $2, ... for Postgres.
// Statements in this package never contain a literal '?'.
func (q *Queries) rebind(query string) string {
	if q.dialect != DialectPostgres || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// nullableString maps a nil pointer to SQL NULL.
func nullableString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
