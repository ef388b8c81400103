// Package ingest loads words and translations in bulk: glossary entries
// through a worker pool, harvested article vocabulary through a
// transactional batch writer.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/japaniel/cards/pkg/db"
	"github.com/japaniel/cards/pkg/harvest"
)

// DefaultHarvestLanguage tags harvested words when no language is given.
const DefaultHarvestLanguage = "JA"

// WorkerPoolInterface abstracts the worker pool so tests can inject failing implementations.
type WorkerPoolInterface interface {
	Start(ctx context.Context)
	Submit(Job) error
	// SubmitCtx attempts to enqueue a job but returns promptly if ctx is canceled.
	SubmitCtx(ctx context.Context, job Job) error
	Close()
}

// Ingester writes bulk input through a db.Store.
type Ingester struct {
	Store     *db.Store
	Workers   int
	BatchSize int
	// FlushInterval bounds how long harvested words wait in the batch writer.
	FlushInterval time.Duration
	// Logger is used for informational messages. nil means no logging.
	Logger *slog.Logger
	// OnProgress is called with the number of processed items and the total.
	// Import calls it from worker goroutines, possibly concurrently.
	OnProgress func(current, total int)

	// PoolFactory allows tests to inject custom worker pool implementations.
	PoolFactory func(workers, queue int) WorkerPoolInterface
}

// NewIngester creates a new Ingester.
func NewIngester(store *db.Store) *Ingester {
	return &Ingester{
		Store:         store,
		Workers:       4,
		BatchSize:     50,
		FlushInterval: 100 * time.Millisecond,
	}
}

// Stats summarizes an Import.
type Stats struct {
	Entries      int `json:"entries"`
	Words        int `json:"words"`
	Translations int `json:"translations"`
}

func (ig *Ingester) logger() *slog.Logger {
	if ig.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return ig.Logger
}

// workers is Workers, at least 1.
func (ig *Ingester) workers() int {
	if ig.Workers <= 0 {
		return 1
	}
	return ig.Workers
}

func (ig *Ingester) newPool() WorkerPoolInterface {
	workers := ig.workers()
	if ig.PoolFactory != nil {
		return ig.PoolFactory(workers, workers*2)
	}
	return NewWorkerPool(workers, workers*2)
}

// Import stores every entry with db.Store.AddTranslations, one transaction
// per entry, spread over the worker pool. Entries are validated before
// anything is written. The first failing entry cancels the remaining work
// and its error is returned; entries already committed stay committed.
// Re-importing the same entries changes nothing.
func (ig *Ingester) Import(ctx context.Context, entries []Entry) (Stats, error) {
	for i, e := range entries {
		if err := e.Validate(); err != nil {
			return Stats{}, fmt.Errorf("entry %d: %w: %v", i, db.ErrInvalidWord, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}
	start := time.Now()

	workCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	wp := ig.newPool()
	wp.Start(workCtx)

	var (
		mu       sync.Mutex
		stats    Stats
		firstErr error
		done     int64
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
		cancel()
	}

	var submitErr error
	for i, e := range entries {
		job := func(ctx context.Context) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			res, err := ig.Store.AddTranslations(ctx, e.Word, e.Translations)
			if err != nil {
				err = fmt.Errorf("entry %d (%s): %w", i, e.Word.Text, err)
				fail(err)
				return err
			}
			mu.Lock()
			stats.Entries++
			stats.Words += 1 + len(res.To)
			stats.Translations += len(res.Translations)
			mu.Unlock()

			n := atomic.AddInt64(&done, 1)
			if ig.OnProgress != nil {
				ig.OnProgress(int(n), len(entries))
			}
			return nil
		}
		if err := wp.SubmitCtx(workCtx, job); err != nil {
			submitErr = err
			break
		}
	}
	wp.Close()

	mu.Lock()
	defer mu.Unlock()
	switch {
	case firstErr != nil:
		return stats, firstErr
	case ctx.Err() != nil:
		return stats, ctx.Err()
	case submitErr != nil:
		return stats, fmt.Errorf("submit entry: %w", submitErr)
	}

	ig.logger().Info("imported glossary",
		slog.Int("entries", stats.Entries),
		slog.Int("words", stats.Words),
		slog.Int("translations", stats.Translations),
		slog.Duration("took", time.Since(start)))
	return stats, nil
}

var asciiOnly = regexp.MustCompile(`^[a-zA-Z0-9\s[:punct:]]+$`)

// skippedPOS are IPA parts of speech that never become words.
var skippedPOS = map[string]bool{
	"記号":   true,
	"補助記号": true,
	"助詞":   true,
	"助動詞":  true,
}

// KeepToken reports whether a token is vocabulary worth storing: symbols,
// particles, auxiliaries, numerals and plain ASCII are not.
func KeepToken(t harvest.Token) bool {
	if skippedPOS[t.PrimaryPOS] {
		return false
	}
	if len(t.PartsOfSpeech) > 1 && t.PartsOfSpeech[1] == "数" {
		return false
	}
	return !asciiOnly.MatchString(t.Surface)
}

// SentenceWords returns the headwords of the kept tokens in order of first
// appearance, without duplicates.
func SentenceWords(s harvest.Sentence) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range s.Tokens {
		if !KeepToken(t) {
			continue
		}
		w := t.Headword()
		if seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

// Harvest stores the headwords of sentences as words tagged with language.
// Sentences are filtered on the worker pool and the surviving words are
// upserted through the batch writer, BatchSize sentences per transaction.
// It returns the number of distinct words stored.
func (ig *Ingester) Harvest(ctx context.Context, language string, sentences []harvest.Sentence) (int, error) {
	if language == "" {
		language = DefaultHarvestLanguage
	}
	if err := validation.Validate(language, validation.Required, validation.Length(1, 16)); err != nil {
		return 0, fmt.Errorf("%w: language %v", db.ErrInvalidWord, err)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	start := time.Now()

	workCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	bw := NewBatchWriter(ig.Store, ig.BatchSize, ig.FlushInterval)
	bw.OnError = func(error) { cancel() }

	wp := ig.newPool()
	wp.Start(workCtx)

	resultCh := make(chan []string, ig.workers()*2+1)
	var stored int64

	consumerDone := make(chan error, 1)
	go func() {
		seen := make(map[string]bool)
		processed := 0
		var submitErr error
		for words := range resultCh {
			processed++
			var fresh []db.NewWord
			for _, w := range words {
				if seen[w] {
					continue
				}
				seen[w] = true
				fresh = append(fresh, db.NewWord{Text: w, Language: language})
			}
			if len(fresh) > 0 && submitErr == nil {
				submitErr = bw.Submit(func(ctx context.Context, q *db.Queries) error {
					for _, nw := range fresh {
						if _, err := q.Save(ctx, nw); err != nil {
							return fmt.Errorf("save harvested word %q: %w", nw.Text, err)
						}
					}
					atomic.AddInt64(&stored, int64(len(fresh)))
					return nil
				})
			}
			if ig.OnProgress != nil {
				ig.OnProgress(processed, len(sentences))
			}
		}
		consumerDone <- submitErr
	}()

	var submitErr error
	for _, s := range sentences {
		job := func(ctx context.Context) error {
			words := SentenceWords(s)
			select {
			case resultCh <- words:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := wp.SubmitCtx(workCtx, job); err != nil {
			submitErr = err
			break
		}
	}

	// Every job has returned once Close does, so nothing sends on resultCh
	// after it is closed.
	wp.Close()
	close(resultCh)
	consumerErr := <-consumerDone
	writeErr := bw.Close()

	n := int(atomic.LoadInt64(&stored))
	switch {
	case writeErr != nil:
		return n, writeErr
	case consumerErr != nil:
		return n, consumerErr
	case ctx.Err() != nil:
		return n, ctx.Err()
	case submitErr != nil && !errors.Is(submitErr, context.Canceled):
		return n, fmt.Errorf("submit sentence: %w", submitErr)
	}

	ig.logger().Info("harvested words",
		slog.String("language", language),
		slog.Int("sentences", len(sentences)),
		slog.Int("words", n),
		slog.Duration("took", time.Since(start)))
	return n, nil
}
