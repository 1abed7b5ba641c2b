// Package worker runs the recompute worker pool. Workers pull jobs from the
// queue and hand them to the scoring service; a failed recompute is logged
// and counted but never retried automatically, since the next ingested event
// re-enqueues the candidate anyway.
package worker

import (
	"context"
	"sync"

	"github.com/okian/radar/internal/adapters/mq/queue"
	"github.com/okian/radar/pkg/logger"
	"github.com/okian/radar/pkg/metrics"
)

// Recomputer recomputes a candidate's scores for one run.
type Recomputer interface {
	RecomputeCandidate(ctx context.Context, job queue.Job) error
}

// Pool drains the queue with a fixed number of workers.
type Pool struct {
	queue   queue.Queue
	rec     Recomputer
	log     logger.Logger
	count   int
	wg      sync.WaitGroup
	cancel  context.CancelFunc
	started bool
	mu      sync.Mutex
}

// Option configures a Pool.
type Option func(*Pool)

// WithWorkerCount sets the number of workers.
func WithWorkerCount(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.count = n
		}
	}
}

// WithLogger sets the pool's logger.
func WithLogger(log logger.Logger) Option {
	return func(p *Pool) {
		p.log = log
	}
}

// NewPool constructs a worker pool over the queue.
func NewPool(q queue.Queue, rec Recomputer, opts ...Option) *Pool {
	p := &Pool{
		queue: q,
		rec:   rec,
		count: 4,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logger.Get().Named("worker")
	}
	return p
}

// Start launches the workers. Calling Start twice is a no-op.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true

	ctx, p.cancel = context.WithCancel(ctx)
	metrics.UpdateWorkerActiveCount(p.count)
	for i := 0; i < p.count; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
}

// Stop cancels the workers and waits for them to drain.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.cancel()
	p.mu.Unlock()

	p.wg.Wait()
	metrics.UpdateWorkerActiveCount(0)
}

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		job, ok := p.queue.Dequeue(ctx)
		if !ok {
			return
		}
		metrics.RecordRecomputeJob()
		if err := p.rec.RecomputeCandidate(ctx, job); err != nil {
			metrics.RecordRecomputeFailure()
			p.log.Error(ctx, "recompute failed",
				logger.String("candidate", job.CandidateSlug),
				logger.String("run_id", job.RunID),
				logger.Int("worker", id),
				logger.Error(err),
			)
		}
		p.queue.Done(job.CandidateSlug)
	}
}
