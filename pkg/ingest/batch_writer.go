package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/japaniel/cards/pkg/db"
)

// ErrBatchWriterClosed is returned by Submit and Close once Close has run.
var ErrBatchWriterClosed = errors.New("batch writer closed")

// WriteFunc performs database writes with statements bound to the batch's
// transaction.
type WriteFunc func(ctx context.Context, q *db.Queries) error

// TxRunner runs fn inside one transaction. *db.Store implements it.
type TxRunner interface {
	InTx(ctx context.Context, fn func(q *db.Queries) error) error
}

// BatchWriter buffers write operations and flushes them in batches inside a
// transaction. A failing WriteFunc rolls back its whole batch.
type BatchWriter struct {
	mu          sync.Mutex
	buf         []WriteFunc
	cap         int
	flushTicker *time.Ticker
	closed      bool
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc

	commitCh chan []WriteFunc
	runner   TxRunner
	OnError  func(error)

	// firstErr is the first asynchronous error, returned by Close.
	errMu    sync.Mutex
	firstErr error
}

// NewBatchWriter creates a new BatchWriter.
// runner: runs each batch in a transaction; nil runs WriteFuncs with a nil
// *db.Queries, which is only useful in tests.
// bufferSize: flush when buffer reaches this size.
// flushInterval: flush after this duration (0 to disable).
func NewBatchWriter(runner TxRunner, bufferSize int, flushInterval time.Duration) *BatchWriter {
	if bufferSize <= 0 {
		bufferSize = 10
	}
	ctx, cancel := context.WithCancel(context.Background())
	bw := &BatchWriter{
		buf:      make([]WriteFunc, 0, bufferSize),
		cap:      bufferSize,
		ctx:      ctx,
		cancel:   cancel,
		commitCh: make(chan []WriteFunc, 2),
		runner:   runner,
	}

	bw.wg.Add(1)
	go bw.committer()

	if flushInterval > 0 {
		bw.flushTicker = time.NewTicker(flushInterval)
		bw.wg.Add(1)
		go bw.loop()
	}
	return bw
}

// Submit enqueues a write function.
func (bw *BatchWriter) Submit(w WriteFunc) error {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	if bw.closed {
		return ErrBatchWriterClosed
	}
	bw.buf = append(bw.buf, w)
	if len(bw.buf) >= bw.cap {
		bw.flushLocked()
	}
	return nil
}

// flushLocked assumes bw.mu is held. A busy committer blocks the caller,
// which is how Submit applies backpressure.
func (bw *BatchWriter) flushLocked() {
	if len(bw.buf) == 0 {
		return
	}
	batch := bw.buf
	bw.buf = make([]WriteFunc, 0, bw.cap)

	select {
	case bw.commitCh <- batch:
	case <-bw.ctx.Done():
		bw.recordErr(fmt.Errorf("batch writer: dropping batch of %d items due to context cancellation", len(batch)))
	}
}

func (bw *BatchWriter) recordErr(err error) {
	bw.errMu.Lock()
	if bw.firstErr == nil {
		bw.firstErr = err
	}
	bw.errMu.Unlock()
	if bw.OnError != nil {
		bw.OnError(err)
	}
}

func (bw *BatchWriter) committer() {
	defer bw.wg.Done()
	for batch := range bw.commitCh {
		if err := bw.executeBatch(batch); err != nil {
			bw.recordErr(err)
		}
	}
}

func (bw *BatchWriter) executeBatch(batch []WriteFunc) error {
	// Flushing must outlive bw.ctx, which is canceled during Close.
	ctx := context.Background()

	if bw.runner == nil {
		for _, w := range batch {
			if err := w(ctx, nil); err != nil {
				return err
			}
		}
		return nil
	}

	err := bw.runner.InTx(ctx, func(q *db.Queries) error {
		for _, w := range batch {
			if err := w(ctx, q); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("batch of %d writes: %w", len(batch), err)
	}
	return nil
}

func (bw *BatchWriter) loop() {
	defer bw.wg.Done()
	for {
		select {
		case <-bw.ctx.Done():
			return
		case <-bw.flushTicker.C:
			bw.mu.Lock()
			bw.flushLocked()
			bw.mu.Unlock()
		}
	}
}

// Close stops accepting submissions, commits what is buffered and waits for
// pending batches. It returns the first error any batch produced.
func (bw *BatchWriter) Close() error {
	bw.mu.Lock()
	if bw.closed {
		bw.mu.Unlock()
		return ErrBatchWriterClosed
	}
	bw.closed = true
	if bw.flushTicker != nil {
		bw.flushTicker.Stop()
	}
	bw.flushLocked()
	bw.mu.Unlock()

	bw.cancel()
	close(bw.commitCh)
	bw.wg.Wait()

	bw.errMu.Lock()
	defer bw.errMu.Unlock()
	return bw.firstErr
}
