package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
)

const wordColumns = `id, language, sex, text`

// Save inserts the word or, when (text, language) already exists, updates the
// stored row in the same statement and returns it with its original id.
// A nil Sex keeps the stored value, a non-nil one replaces it.
func (q *Queries) Save(ctx context.Context, w NewWord) (Word, error) {
	if err := w.Validate(); err != nil {
		return Word{}, fmt.Errorf("%w: %v", ErrInvalidWord, err)
	}
	w = w.normalized()

	row := q.queryRow(ctx, `INSERT INTO words (text, language, sex)
		VALUES (?, ?, ?)
		ON CONFLICT (text, language)
		DO UPDATE SET sex = COALESCE(excluded.sex, words.sex)
		RETURNING `+wordColumns,
		w.Text, w.Language, nullableString(w.Sex))

	saved, err := scanWord(row)
	if err != nil {
		return Word{}, fmt.Errorf("upsert word %q (%s): %w", w.Text, w.Language, classifyError(err))
	}
	return saved, nil
}

// SaveAll inserts every word in one statement. It does not resolve
// conflicts: a duplicate (text, language), inside the batch or against
// stored rows, fails the whole statement with a *ConstraintError.
func (q *Queries) SaveAll(ctx context.Context, words []NewWord) ([]Word, error) {
	if len(words) == 0 {
		return []Word{}, nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO words (text, language, sex) VALUES `)
	args := make([]interface{}, 0, 3*len(words))
	for i, w := range words {
		if err := w.Validate(); err != nil {
			return nil, fmt.Errorf("%w: word %d: %v", ErrInvalidWord, i, err)
		}
		w = w.normalized()
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?)")
		args = append(args, w.Text, w.Language, nullableString(w.Sex))
	}
	sb.WriteString(` RETURNING ` + wordColumns)

	rows, err := q.query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("insert %d words: %w", len(words), classifyError(err))
	}
	out, err := collectWords(rows)
	if err != nil {
		return nil, fmt.Errorf("insert %d words: %w", len(words), classifyError(err))
	}
	return out, nil
}

// saveInLockOrder upserts every word, issuing the statements in ascending
// (text, language) order, and returns the saved words in the order given.
// Every word is validated before the first statement runs.
func (q *Queries) saveInLockOrder(ctx context.Context, words []NewWord) ([]Word, error) {
	keys := make([]NewWord, len(words))
	for i, w := range words {
		if err := w.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidWord, err)
		}
		keys[i] = w.normalized()
	}
	order := make([]int, len(words))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ka, kb := keys[order[a]], keys[order[b]]
		if ka.Text != kb.Text {
			return ka.Text < kb.Text
		}
		return ka.Language < kb.Language
	})

	out := make([]Word, len(words))
	for _, i := range order {
		w, err := q.Save(ctx, words[i])
		if err != nil {
			return nil, err
		}
		out[i] = w
	}
	return out, nil
}

// FindByText returns the first word (lowest id) with the given text in any
// language. The bool is false when there is none.
func (q *Queries) FindByText(ctx context.Context, text string) (Word, bool, error) {
	row := q.queryRow(ctx, `SELECT `+wordColumns+` FROM words WHERE text = ? ORDER BY id LIMIT 1`, text)
	w, err := scanWord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Word{}, false, nil
	}
	if err != nil {
		return Word{}, false, fmt.Errorf("find word by text %q: %w", text, err)
	}
	return w, true, nil
}

// FindAllByText returns every word spelled text, whatever its language.
func (q *Queries) FindAllByText(ctx context.Context, text string) ([]Word, error) {
	rows, err := q.query(ctx, `SELECT `+wordColumns+` FROM words WHERE text = ? ORDER BY id`, text)
	if err != nil {
		return nil, fmt.Errorf("find words by text %q: %w", text, err)
	}
	out, err := collectWords(rows)
	if err != nil {
		return nil, fmt.Errorf("find words by text %q: %w", text, err)
	}
	return out, nil
}

// FindByID returns the word with the given id. The bool is false when there
// is none.
func (q *Queries) FindByID(ctx context.Context, id int64) (Word, bool, error) {
	row := q.queryRow(ctx, `SELECT `+wordColumns+` FROM words WHERE id = ?`, id)
	w, err := scanWord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Word{}, false, nil
	}
	if err != nil {
		return Word{}, false, fmt.Errorf("find word %d: %w", id, err)
	}
	return w, true, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanWord(row rowScanner) (Word, error) {
	var w Word
	var sex sql.NullString
	if err := row.Scan(&w.ID, &w.Language, &sex, &w.Text); err != nil {
		return Word{}, err
	}
	w.Sex = stringPtr(sex)
	return w, nil
}

func collectWords(rows *sql.Rows) ([]Word, error) {
	defer rows.Close()
	out := []Word{}
	for rows.Next() {
		w, err := scanWord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
