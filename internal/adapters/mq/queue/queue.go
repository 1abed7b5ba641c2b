// Package queue provides the in-process recompute job queue. Jobs are
// deduplicated per candidate: while a recompute for a candidate is queued or
// running, further requests for the same candidate collapse into it.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/radar/pkg/metrics"
)

// Job is one recompute request for a candidate.
type Job struct {
	RunID         string
	CandidateSlug string
	AsOf          time.Time
}

// Queue is the consumer-side contract used by the worker pool.
type Queue interface {
	// Enqueue adds a job. It returns false when the queue is full or a job
	// for the same candidate is already inflight.
	Enqueue(ctx context.Context, job Job) bool
	// Dequeue blocks until a job is available or the context is done.
	Dequeue(ctx context.Context) (Job, bool)
	// Done marks the candidate's inflight job as finished, allowing the
	// next enqueue for it.
	Done(slug string)
	// Close stops the queue; Dequeue drains remaining jobs then reports
	// closed.
	Close()
	// Len returns the number of queued jobs.
	Len() int
}

// InMemoryQueue is a bounded channel-backed Queue.
type InMemoryQueue struct {
	jobs     chan Job
	mu       sync.Mutex
	inflight map[string]struct{}
	closed   bool
}

// Option configures an InMemoryQueue.
type Option func(*options)

type options struct {
	capacity int
}

// WithCapacity sets the queue's buffer size.
func WithCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// NewInMemoryQueue constructs a queue with the given options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	o := &options{capacity: 10_000}
	for _, opt := range opts {
		opt(o)
	}
	metrics.UpdateQueueCapacity(o.capacity)
	return &InMemoryQueue{
		jobs:     make(chan Job, o.capacity),
		inflight: make(map[string]struct{}),
	}
}

// Enqueue implements Queue. The lock is held across the send: Close sets
// closed and closes the channel under the same lock, so a send can never hit
// a closed channel. The send is non-blocking, so holding the lock is cheap.
func (q *InMemoryQueue) Enqueue(ctx context.Context, job Job) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	if _, busy := q.inflight[job.CandidateSlug]; busy {
		return false
	}

	select {
	case q.jobs <- job:
		q.inflight[job.CandidateSlug] = struct{}{}
		metrics.UpdateQueueSize(len(q.jobs))
		return true
	default:
		metrics.RecordQueueEnqueueError()
		return false
	}
}

// Dequeue implements Queue.
func (q *InMemoryQueue) Dequeue(ctx context.Context) (Job, bool) {
	select {
	case job, ok := <-q.jobs:
		if ok {
			metrics.UpdateQueueSize(len(q.jobs))
		}
		return job, ok
	case <-ctx.Done():
		return Job{}, false
	}
}

// Done implements Queue.
func (q *InMemoryQueue) Done(slug string) {
	q.mu.Lock()
	delete(q.inflight, slug)
	q.mu.Unlock()
}

// Close implements Queue.
func (q *InMemoryQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.jobs)
}

// Len implements Queue.
func (q *InMemoryQueue) Len() int {
	return len(q.jobs)
}

var _ Queue = (*InMemoryQueue)(nil)
