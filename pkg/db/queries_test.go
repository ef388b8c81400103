package db

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var wordCols = []string{"id", "language", "sex", "text"}

func newMockQueries(t *testing.T, dialect Dialect) (*Queries, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		conn.Close()
	})
	return New(conn, dialect), mock
}

func TestRebind(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		query   string
		want    string
	}{
		{"sqlite untouched", DialectSQLite, "SELECT ? , ?", "SELECT ? , ?"},
		{"postgres numbered", DialectPostgres, "VALUES (?, ?, ?), (?, ?, ?)", "VALUES ($1, $2, $3), ($4, $5, $6)"},
		{"postgres no args", DialectPostgres, "SELECT 1", "SELECT 1"},
		{"postgres unicode", DialectPostgres, "SELECT 'é' WHERE a = ?", "SELECT 'é' WHERE a = $1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := New(nil, tt.dialect)
			assert.Equal(t, tt.want, q.rebind(tt.query))
		})
	}
}

func TestFindByTextDistinguishesAbsentFromFailure(t *testing.T) {
	ctx := context.Background()
	query := regexp.QuoteMeta(`SELECT id, language, sex, text FROM words WHERE text = $1 ORDER BY id LIMIT 1`)

	t.Run("no rows", func(t *testing.T) {
		q, mock := newMockQueries(t, DialectPostgres)
		mock.ExpectQuery(query).WithArgs("exam").WillReturnRows(sqlmock.NewRows(wordCols))

		_, found, err := q.FindByText(ctx, "exam")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("backend failure", func(t *testing.T) {
		q, mock := newMockQueries(t, DialectPostgres)
		backendErr := errors.New("connection refused")
		mock.ExpectQuery(query).WithArgs("exam").WillReturnError(backendErr)

		_, found, err := q.FindByText(ctx, "exam")
		require.Error(t, err)
		assert.False(t, found)
		assert.ErrorIs(t, err, backendErr)
		assert.NotErrorIs(t, err, ErrConstraintViolation)
	})

	t.Run("found", func(t *testing.T) {
		q, mock := newMockQueries(t, DialectPostgres)
		mock.ExpectQuery(query).WithArgs("exam").
			WillReturnRows(sqlmock.NewRows(wordCols).AddRow(int64(3), "EN", nil, "exam"))

		w, found, err := q.FindByText(ctx, "exam")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, Word{ID: 3, Language: "EN", Text: "exam"}, w)
	})
}

func TestFindByWordPropagatesBackendErrors(t *testing.T) {
	ctx := context.Background()
	query := `SELECT word_id, id, language, sex, text\s+FROM translation_words\s+WHERE word_id = \$1`
	cols := []string{"word_id", "id", "language", "sex", "text"}

	t.Run("query error", func(t *testing.T) {
		q, mock := newMockQueries(t, DialectPostgres)
		mock.ExpectQuery(query).WithArgs(int64(1)).WillReturnError(errors.New("statement timeout"))

		_, err := q.FindByWord(ctx, Word{ID: 1})
		assert.Error(t, err)
	})

	t.Run("row error", func(t *testing.T) {
		q, mock := newMockQueries(t, DialectPostgres)
		rows := sqlmock.NewRows(cols).
			AddRow(int64(1), int64(2), "EN", nil, "exam").
			AddRow(int64(1), int64(3), "DE", "F", "Prüfung").
			RowError(1, errors.New("connection reset"))
		mock.ExpectQuery(query).WithArgs(int64(1)).WillReturnRows(rows)

		_, err := q.FindByWord(ctx, Word{ID: 1})
		assert.Error(t, err)
	})

	t.Run("empty", func(t *testing.T) {
		q, mock := newMockQueries(t, DialectPostgres)
		mock.ExpectQuery(query).WithArgs(int64(1)).WillReturnRows(sqlmock.NewRows(cols))

		got, err := q.FindByWord(ctx, Word{ID: 1})
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestSaveAllReportsPostgresUniqueViolation(t *testing.T) {
	ctx := context.Background()
	q, mock := newMockQueries(t, DialectPostgres)

	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "words_text_language_key"}
	mock.ExpectQuery(regexp.QuoteMeta(
		`INSERT INTO words (text, language, sex) VALUES ($1, $2, $3), ($4, $5, $6) RETURNING id, language, sex, text`)).
		WithArgs("exam", "EN", nil, "exam", "EN", nil).
		WillReturnError(pgErr)

	_, err := q.SaveAll(ctx, []NewWord{englishWord(), englishWord()})
	require.ErrorIs(t, err, ErrConstraintViolation)

	var ce *ConstraintError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ConstraintUnique, ce.Kind)
	assert.Equal(t, "words_text_language_key", ce.Constraint)

	var got *pgconn.PgError
	assert.ErrorAs(t, err, &got)
}

func TestSaveUsesUpsertStatement(t *testing.T) {
	ctx := context.Background()
	q, mock := newMockQueries(t, DialectPostgres)

	mock.ExpectQuery(`INSERT INTO words \(text, language, sex\)\s+VALUES \(\$1, \$2, \$3\)\s+ON CONFLICT \(text, language\)\s+DO UPDATE SET sex = COALESCE\(excluded.sex, words.sex\)`).
		WithArgs("Prüfung", "DE", "F").
		WillReturnRows(sqlmock.NewRows(wordCols).AddRow(int64(9), "DE", "F", "Prüfung"))

	w, err := q.Save(ctx, germanWord())
	require.NoError(t, err)
	assert.Equal(t, int64(9), w.ID)
	assert.Equal(t, "F", *w.Sex)
}

func TestTranslateStopsAtFailedEdge(t *testing.T) {
	ctx := context.Background()
	q, mock := newMockQueries(t, DialectPostgres)
	edgeCols := []string{"id", "word_from", "word_to"}
	query := `INSERT INTO translations \(word_from, word_to\)`

	mock.ExpectQuery(query).WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows(edgeCols).AddRow(int64(10), int64(1), int64(2)))
	mock.ExpectQuery(query).WithArgs(int64(2), int64(1)).
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "translations_word_to_fkey"})

	edges, err := q.Translate(ctx, Word{ID: 1}, Word{ID: 2})
	require.ErrorIs(t, err, ErrConstraintViolation)
	assert.Equal(t, []Translation{{ID: 10, WordFrom: 1, WordTo: 2}}, edges)

	var ce *ConstraintError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ConstraintForeignKey, ce.Kind)
}

func TestStoreTranslateRollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()
	store := NewStore(conn, DialectPostgres, nil)
	edgeCols := []string{"id", "word_from", "word_to"}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO translations`).WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows(edgeCols).AddRow(int64(10), int64(1), int64(2)))
	mock.ExpectQuery(`INSERT INTO translations`).WithArgs(int64(2), int64(1)).
		WillReturnError(errors.New("server closed the connection"))
	mock.ExpectRollback()

	_, err = store.Translate(ctx, Word{ID: 1}, Word{ID: 2})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
