package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// Store runs the word and translation operations against an open *sql.DB.
// Operations that issue more than one statement run in a single transaction.
// Store never closes the connection it was given.
type Store struct {
	conn    *sql.DB
	queries *Queries
	logger  *slog.Logger
}

// NewStore wraps conn. If logger is nil, a discard logger is used.
func NewStore(conn *sql.DB, dialect Dialect, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		conn:    conn,
		queries: New(conn, dialect),
		logger:  logger,
	}
}

// Queries returns the non-transactional statements bound to the connection.
func (s *Store) Queries() *Queries { return s.queries }

// InTx runs fn inside a transaction and commits when fn returns nil.
func (s *Store) InTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() // no-op after commit

	if err := fn(s.queries.WithTx(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Save upserts one word. See Queries.Save.
func (s *Store) Save(ctx context.Context, w NewWord) (Word, error) {
	return s.queries.Save(ctx, w)
}

// MaxInsertRows is the most words one INSERT statement carries. Three bind
// variables per word keep a statement under SQLite's historical limit of 999.
const MaxInsertRows = 300

// SaveAll inserts a batch without conflict resolution. See Queries.SaveAll.
// Batches larger than MaxInsertRows are split into several statements run in
// one transaction, so the batch is still all or nothing.
func (s *Store) SaveAll(ctx context.Context, words []NewWord) ([]Word, error) {
	if len(words) <= MaxInsertRows {
		saved, err := s.queries.SaveAll(ctx, words)
		if err != nil {
			return nil, err
		}
		s.logger.Debug("inserted words", slog.Int("count", len(saved)))
		return saved, nil
	}

	for i, w := range words {
		if err := w.Validate(); err != nil {
			return nil, fmt.Errorf("%w: word %d: %v", ErrInvalidWord, i, err)
		}
	}
	saved := make([]Word, 0, len(words))
	err := s.InTx(ctx, func(q *Queries) error {
		for start := 0; start < len(words); start += MaxInsertRows {
			end := min(start+MaxInsertRows, len(words))
			chunk, err := q.SaveAll(ctx, words[start:end])
			if err != nil {
				return fmt.Errorf("words %d to %d: %w", start, end-1, err)
			}
			saved = append(saved, chunk...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("inserted words",
		slog.Int("count", len(saved)),
		slog.Int("statements", (len(words)+MaxInsertRows-1)/MaxInsertRows))
	return saved, nil
}

// FindByText returns the first word spelled text.
func (s *Store) FindByText(ctx context.Context, text string) (Word, bool, error) {
	return s.queries.FindByText(ctx, text)
}

// FindAllByText returns every word spelled text.
func (s *Store) FindAllByText(ctx context.Context, text string) ([]Word, error) {
	return s.queries.FindAllByText(ctx, text)
}

// FindByID returns the word with the given id.
func (s *Store) FindByID(ctx context.Context, id int64) (Word, bool, error) {
	return s.queries.FindByID(ctx, id)
}

// FindByWord returns the direct translations of word.
func (s *Store) FindByWord(ctx context.Context, word Word) ([]TranslatedWord, error) {
	return s.queries.FindByWord(ctx, word)
}

// Translate links from and to in both directions, all or nothing. The edges
// are returned as Queries.Translate returns them.
func (s *Store) Translate(ctx context.Context, from, to Word) ([]Translation, error) {
	var out []Translation
	err := s.InTx(ctx, func(q *Queries) error {
		var err error
		out, err = q.linkInLockOrder(ctx, from, []Word{to})
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// TranslateAll links from with every word in tos, all or nothing.
func (s *Store) TranslateAll(ctx context.Context, from Word, tos []Word) ([]Translation, error) {
	var out []Translation
	err := s.InTx(ctx, func(q *Queries) error {
		var err error
		out, err = q.linkInLockOrder(ctx, from, tos)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("linked translations",
		slog.Int64("word_id", from.ID),
		slog.Int("targets", len(tos)),
		slog.Int("edges", len(out)))
	return out, nil
}

// LinkResult is what AddTranslations stored.
type LinkResult struct {
	From         Word          `json:"from"`
	To           []Word        `json:"to"`
	Translations []Translation `json:"translations"`
}

// AddTranslations upserts from and every word in tos, then links them, in one
// transaction. Words are written in (text, language) order and edges in
// (word_from, word_to) order whatever order the caller lists them in, so
// concurrent calls sharing words take their row locks in the same order.
func (s *Store) AddTranslations(ctx context.Context, from NewWord, tos []NewWord) (LinkResult, error) {
	var res LinkResult
	err := s.InTx(ctx, func(q *Queries) error {
		saved, err := q.saveInLockOrder(ctx, append([]NewWord{from}, tos...))
		if err != nil {
			return err
		}
		origin, targets := saved[0], saved[1:]
		edges, err := q.linkInLockOrder(ctx, origin, targets)
		if err != nil {
			return err
		}
		res = LinkResult{From: origin, To: targets, Translations: edges}
		return nil
	})
	if err != nil {
		return LinkResult{}, err
	}
	s.logger.Debug("added translations",
		slog.String("text", res.From.Text),
		slog.String("language", res.From.Language),
		slog.Int("targets", len(res.To)))
	return res, nil
}
