package ingest

import (
	"context"
	"errors"
	"sync"
)

// ErrPoolClosed is returned when a job is submitted after Close.
var ErrPoolClosed = errors.New("worker pool closed")

// Job is a unit of work submitted to the WorkerPool.
type Job func(ctx context.Context) error

// WorkerPool runs jobs using a fixed number of goroutines. Job errors are
// not collected; jobs report failures through their own closures.
type WorkerPool struct {
	jobs    chan Job
	done    chan struct{}
	wg      sync.WaitGroup
	workers int

	// mu is held for reading by senders and for writing by Close, so the
	// jobs channel is never closed under a blocked send.
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

// NewWorkerPool creates a new worker pool with the specified number of workers
// and job queue capacity.
func NewWorkerPool(workers, queue int) *WorkerPool {
	if workers <= 0 {
		workers = 1
	}
	if queue <= 0 {
		queue = workers * 2
	}
	return &WorkerPool{
		jobs:    make(chan Job, queue),
		done:    make(chan struct{}),
		workers: workers,
	}
}

// Start begins the worker goroutines and listens for jobs until ctx is done or Close is called.
func (p *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case job, ok := <-p.jobs:
					if !ok {
						return
					}
					_ = job(ctx)
				}
			}
		}()
	}
}

// Submit enqueues a job, blocking while the queue is full.
// It returns ErrPoolClosed if the pool is or becomes closed.
func (p *WorkerPool) Submit(job Job) error {
	return p.SubmitCtx(context.Background(), job)
}

// SubmitCtx is Submit that gives up with ctx.Err() when ctx is done first.
func (p *WorkerPool) SubmitCtx(ctx context.Context, job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.jobs <- job:
		return nil
	case <-p.done:
		return ErrPoolClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting new jobs and waits for workers to drain the queue.
func (p *WorkerPool) Close() {
	p.closeOnce.Do(func() { close(p.done) })

	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()
	p.wg.Wait()
}
