package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	mattn "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
)

func TestClassifyError(t *testing.T) {
	plain := errors.New("driver: bad connection")

	tests := []struct {
		name     string
		err      error
		wantKind ConstraintKind // empty: not a constraint error
	}{
		{"nil", nil, ""},
		{"plain", plain, ""},
		{"pg unique", &pgconn.PgError{Code: "23505"}, ConstraintUnique},
		{"pg foreign key", &pgconn.PgError{Code: "23503"}, ConstraintForeignKey},
		{"pg not null", &pgconn.PgError{Code: "23502"}, ConstraintNotNull},
		{"pg check", &pgconn.PgError{Code: "23514"}, ConstraintCheck},
		{"pg exclusion", &pgconn.PgError{Code: "23P01"}, ConstraintOther},
		{"pg syntax", &pgconn.PgError{Code: "42601"}, ""},
		{"pg wrapped", fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23505"}), ConstraintUnique},
		{"sqlite unique", mattn.Error{Code: mattn.ErrConstraint, ExtendedCode: mattn.ErrConstraintUnique}, ConstraintUnique},
		{"sqlite primary key", mattn.Error{Code: mattn.ErrConstraint, ExtendedCode: mattn.ErrConstraintPrimaryKey}, ConstraintUnique},
		{"sqlite foreign key", mattn.Error{Code: mattn.ErrConstraint, ExtendedCode: mattn.ErrConstraintForeignKey}, ConstraintForeignKey},
		{"sqlite trigger", mattn.Error{Code: mattn.ErrConstraint, ExtendedCode: mattn.ErrConstraintTrigger}, ConstraintOther},
		{"sqlite busy", mattn.Error{Code: mattn.ErrBusy}, ""},
		{"sqlstate text", errors.New("ERROR: duplicate key (SQLSTATE 23505)"), ConstraintUnique},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError(tt.err)
			if tt.wantKind == "" {
				assert.Equal(t, tt.err, got)
				assert.False(t, errors.Is(got, ErrConstraintViolation))
				return
			}
			var ce *ConstraintError
			if assert.ErrorAs(t, got, &ce) {
				assert.Equal(t, tt.wantKind, ce.Kind)
			}
			assert.ErrorIs(t, got, ErrConstraintViolation)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestClassifyErrorIsIdempotent(t *testing.T) {
	first := classifyError(&pgconn.PgError{Code: "23505", ConstraintName: "words_text_language_key"})
	assert.Same(t, first, classifyError(first))
	assert.Contains(t, first.Error(), `"words_text_language_key"`)
}
