package utils

import (
	"context"
	"sync"
)

// WorkerPool bounds the number of concurrently running jobs.
type WorkerPool struct {
	semaphore chan struct{}
	wg        sync.WaitGroup
}

// NewWorkerPool creates a WorkerPool with the given concurrency, clamped
// to at least 1.
func NewWorkerPool(maxWorkers int) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &WorkerPool{semaphore: make(chan struct{}, maxWorkers)}
}

// Submit enqueues a job for execution in the pool. If the context is
// cancelled before a worker slot frees up, the job is discarded.
func (wp *WorkerPool) Submit(ctx context.Context, job func()) {
	wp.wg.Add(1)

	select {
	case wp.semaphore <- struct{}{}:
	case <-ctx.Done():
		wp.wg.Done()
		return
	}

	go func() {
		defer wp.wg.Done()
		defer func() { <-wp.semaphore }()
		job()
	}()
}

// Wait blocks until all submitted jobs have completed.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}
