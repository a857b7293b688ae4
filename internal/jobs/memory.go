package jobs

import (
	"context"
	"errors"
)

// ErrQueueFull is returned by MemoryQueue.Enqueue when the buffer has no
// room left for another job.
var ErrQueueFull = errors.New("job queue full")

// MemoryQueue is a Queue backed by a buffered channel. It serves
// single-process deployments with no Redis configured, and unit tests.
type MemoryQueue struct {
	ch chan GenerationJob
}

// compile-time check: MemoryQueue must satisfy Queue.
var _ Queue = (*MemoryQueue)(nil)

// NewMemoryQueue constructs a MemoryQueue holding up to size pending jobs.
// Enqueue fails once the buffer is full rather than blocking the
// request path.
func NewMemoryQueue(size int) *MemoryQueue {
	return &MemoryQueue{ch: make(chan GenerationJob, size)}
}

// Enqueue adds a job without blocking. A full buffer is an error, not
// a wait: the creating request must return promptly either way.
func (q *MemoryQueue) Enqueue(ctx context.Context, job GenerationJob) error {
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

// Dequeue blocks until a job arrives or ctx is cancelled.
func (q *MemoryQueue) Dequeue(ctx context.Context) (GenerationJob, error) {
	select {
	case job := <-q.ch:
		return job, nil
	case <-ctx.Done():
		return GenerationJob{}, ctx.Err()
	}
}
