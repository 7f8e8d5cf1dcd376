package workerpool

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type Job func(ctx context.Context)

type WorkerPool struct {
	queue chan Job
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewWorkerPool(ctx context.Context, workerCount int, queueSize int) *WorkerPool {
	pool := &WorkerPool{
		queue: make(chan Job, queueSize),
	}

	for i := 0; i < workerCount; i++ {
		go pool.worker(ctx)
	}

	return pool
}

func (p *WorkerPool) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			slog.Debug("worker received shutdown signal")
			return
		case job, ok := <-p.queue:
			if !ok {
				// queue closed
				return
			}
			job(ctx)
			p.wg.Done()
		}
	}
}

// Submit queues the job. It reports false when the queue is full or the
// pool is shutting down; the job is dropped in that case.
func (p *WorkerPool) Submit(job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		slog.Warn("worker pool closed, job dropped")
		return false
	}

	p.wg.Add(1)
	select {
	case p.queue <- job:
		return true
	default:
		p.wg.Done()
		slog.Warn("worker pool queue full, job dropped")
		return false
	}
}

// Shutdown stops accepting jobs and waits for the queued ones until ctx is done.
func (p *WorkerPool) Shutdown(ctx context.Context) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	done := make(chan struct{})

	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		slog.Warn("worker pool shutdown timed out")
	case <-done:
		slog.Info("worker pool shutdown complete")
	}
}

func WithRetry(retries int, delay time.Duration, job func(ctx context.Context) error) Job {
	return func(ctx context.Context) {
		for i := 0; i < retries; i++ {
			if ctx.Err() != nil {
				slog.Warn("job canceled before execution")
				return
			}

			err := job(ctx)
			if err == nil {
				return // success
			}
			slog.Error("job failed", slog.Int("attempt", i+1), slog.Int("retries", retries), slog.String("error", err.Error()))

			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
		}
		slog.Error("job failed after max retries")
	}
}
