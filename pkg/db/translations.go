package db

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
)

// Translate stores from->to and to->from. Each edge is upserted on
// (word_from, word_to), so repeating the call never adds rows.
//
// The two statements run on the executor q was built with. On a bare *sql.DB
// they are independent and an interruption between them leaves only the first
// direction; use Store.Translate or a Queries bound to a transaction when both
// must land together.
func (q *Queries) Translate(ctx context.Context, from, to Word) ([]Translation, error) {
	if err := requireSaved(from, to); err != nil {
		return nil, err
	}
	return q.saveTranslations(ctx, NewTranslationPair(from, to))
}

// TranslateAll links from with every word in tos, producing 2*len(tos) edges.
func (q *Queries) TranslateAll(ctx context.Context, from Word, tos []Word) ([]Translation, error) {
	if err := requireSaved(append([]Word{from}, tos...)...); err != nil {
		return nil, err
	}
	return q.saveTranslations(ctx, NewTranslationFanOut(from, tos))
}

// FindByWord returns the words reached by one edge leaving word, in edge
// order. It does not follow edges any further and does not look at edges
// pointing at word.
func (q *Queries) FindByWord(ctx context.Context, word Word) ([]TranslatedWord, error) {
	rows, err := q.query(ctx, `SELECT word_id, id, language, sex, text
		FROM translation_words
		WHERE word_id = ?
		ORDER BY translation_id`, word.ID)
	if err != nil {
		return nil, fmt.Errorf("find translations of word %d: %w", word.ID, err)
	}
	defer rows.Close()

	out := []TranslatedWord{}
	for rows.Next() {
		var tw TranslatedWord
		var sex sql.NullString
		if err := rows.Scan(&tw.OriginWordID, &tw.ID, &tw.Language, &sex, &tw.Text); err != nil {
			return nil, fmt.Errorf("scan translation of word %d: %w", word.ID, err)
		}
		tw.Sex = stringPtr(sex)
		out = append(out, tw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find translations of word %d: %w", word.ID, err)
	}
	return out, nil
}

func (q *Queries) saveTranslations(ctx context.Context, edges []NewTranslation) ([]Translation, error) {
	out := make([]Translation, 0, len(edges))
	for _, e := range edges {
		t, err := q.saveTranslation(ctx, e)
		if err != nil {
			return out, err
		}
		out = append(out, t)
	}
	return out, nil
}

// linkInLockOrder is TranslateAll with the upserts issued in ascending
// (word_from, word_to) order. Results come back in TranslateAll's order.
// Concurrent transactions that link through it lock edge rows in one global
// order and cannot deadlock on each other's edges.
func (q *Queries) linkInLockOrder(ctx context.Context, from Word, tos []Word) ([]Translation, error) {
	if err := requireSaved(append([]Word{from}, tos...)...); err != nil {
		return nil, err
	}
	edges := NewTranslationFanOut(from, tos)
	order := make([]int, len(edges))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ea, eb := edges[order[a]], edges[order[b]]
		if ea.WordFrom != eb.WordFrom {
			return ea.WordFrom < eb.WordFrom
		}
		return ea.WordTo < eb.WordTo
	})

	out := make([]Translation, len(edges))
	for _, i := range order {
		t, err := q.saveTranslation(ctx, edges[i])
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

func (q *Queries) saveTranslation(ctx context.Context, e NewTranslation) (Translation, error) {
	var t Translation
	err := q.queryRow(ctx, `INSERT INTO translations (word_from, word_to)
		VALUES (?, ?)
		ON CONFLICT (word_from, word_to)
		DO UPDATE SET word_to = excluded.word_to
		RETURNING id, word_from, word_to`,
		e.WordFrom, e.WordTo).Scan(&t.ID, &t.WordFrom, &t.WordTo)
	if err != nil {
		return Translation{}, fmt.Errorf("upsert translation %d->%d: %w", e.WordFrom, e.WordTo, classifyError(err))
	}
	return t, nil
}

func requireSaved(words ...Word) error {
	for _, w := range words {
		if w.ID <= 0 {
			return fmt.Errorf("%w: %q (%s)", ErrUnsavedWord, w.Text, w.Language)
		}
	}
	return nil
}
