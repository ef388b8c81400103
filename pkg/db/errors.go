package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	mattn "github.com/mattn/go-sqlite3"
	modernc "modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"
)

var (
	// ErrConstraintViolation matches every *ConstraintError via errors.Is.
	ErrConstraintViolation = errors.New("constraint violation")
	// ErrInvalidWord is returned when a NewWord fails validation.
	ErrInvalidWord = errors.New("invalid word")
	// ErrUnsavedWord is returned when a word without a stable id is linked.
	ErrUnsavedWord = errors.New("word has no id")
)

// ConstraintKind names the constraint family a statement violated.
type ConstraintKind string

const (
	ConstraintUnique     ConstraintKind = "unique"
	ConstraintForeignKey ConstraintKind = "foreign_key"
	ConstraintNotNull    ConstraintKind = "not_null"
	ConstraintCheck      ConstraintKind = "check"
	ConstraintOther      ConstraintKind = "other"
)

// ConstraintError reports a statement rejected by a uniqueness, foreign key
// or other integrity constraint.
type ConstraintError struct {
	Kind       ConstraintKind
	Constraint string // empty when the driver does not report it
	Err        error
}

func (e *ConstraintError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("%s constraint %q violated: %v", e.Kind, e.Constraint, e.Err)
	}
	return fmt.Sprintf("%s constraint violated: %v", e.Kind, e.Err)
}

func (e *ConstraintError) Unwrap() error { return e.Err }

// Is reports ErrConstraintViolation as a match.
func (e *ConstraintError) Is(target error) bool { return target == ErrConstraintViolation }

// IsUniqueViolation reports whether err is a unique constraint failure.
func IsUniqueViolation(err error) bool {
	var ce *ConstraintError
	return errors.As(err, &ce) && ce.Kind == ConstraintUnique
}

// classifyError turns driver constraint failures into *ConstraintError and
// passes every other error through untouched.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	var ce *ConstraintError
	if errors.As(err, &ce) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if kind, ok := pgConstraintKind(pgErr.Code); ok {
			return &ConstraintError{Kind: kind, Constraint: pgErr.ConstraintName, Err: err}
		}
		return err
	}

	var mattnErr mattn.Error
	if errors.As(err, &mattnErr) {
		if mattnErr.Code != mattn.ErrConstraint {
			return err
		}
		return &ConstraintError{Kind: mattnConstraintKind(mattnErr.ExtendedCode), Err: err}
	}

	var moderncErr *modernc.Error
	if errors.As(err, &moderncErr) {
		code := moderncErr.Code()
		if code&0xff != sqlitelib.SQLITE_CONSTRAINT {
			return err
		}
		return &ConstraintError{Kind: moderncConstraintKind(code), Err: err}
	}

	// Wrapped errors that lost their type still carry the SQLSTATE text.
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "sqlstate 23505") || strings.Contains(msg, "unique constraint failed") {
		return &ConstraintError{Kind: ConstraintUnique, Err: err}
	}
	return err
}

func pgConstraintKind(code string) (ConstraintKind, bool) {
	switch code {
	case "23505":
		return ConstraintUnique, true
	case "23503":
		return ConstraintForeignKey, true
	case "23502":
		return ConstraintNotNull, true
	case "23514":
		return ConstraintCheck, true
	}
	if strings.HasPrefix(code, "23") {
		return ConstraintOther, true
	}
	return "", false
}

func mattnConstraintKind(code mattn.ErrNoExtended) ConstraintKind {
	switch code {
	case mattn.ErrConstraintUnique, mattn.ErrConstraintPrimaryKey:
		return ConstraintUnique
	case mattn.ErrConstraintForeignKey:
		return ConstraintForeignKey
	case mattn.ErrConstraintNotNull:
		return ConstraintNotNull
	case mattn.ErrConstraintCheck:
		return ConstraintCheck
	}
	return ConstraintOther
}

func moderncConstraintKind(code int) ConstraintKind {
	switch code {
	case sqlitelib.SQLITE_CONSTRAINT_UNIQUE, sqlitelib.SQLITE_CONSTRAINT_PRIMARYKEY:
		return ConstraintUnique
	case sqlitelib.SQLITE_CONSTRAINT_FOREIGNKEY:
		return ConstraintForeignKey
	case sqlitelib.SQLITE_CONSTRAINT_NOTNULL:
		return ConstraintNotNull
	case sqlitelib.SQLITE_CONSTRAINT_CHECK:
		return ConstraintCheck
	}
	return ConstraintOther
}
