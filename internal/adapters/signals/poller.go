package signals

import (
	"context"
	"time"

	"github.com/okian/radar/pkg/logger"
	"github.com/okian/radar/pkg/metrics"
)

// Poller fans a fetch out across every configured adapter and merges the
// results. One slow or broken upstream degrades the poll instead of failing
// it; the degraded flag lets the caller mark derived scores accordingly.
type Poller struct {
	adapters []Adapter
	log      logger.Logger
}

// Option configures a Poller.
type Option func(*Poller)

// WithAdapters sets the upstream adapters to poll.
func WithAdapters(adapters ...Adapter) Option {
	return func(p *Poller) {
		p.adapters = append(p.adapters, adapters...)
	}
}

// WithLogger sets the poller's logger.
func WithLogger(log logger.Logger) Option {
	return func(p *Poller) {
		p.log = log
	}
}

// NewPoller constructs a Poller.
func NewPoller(opts ...Option) *Poller {
	p := &Poller{}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logger.Get().Named("poller")
	}
	return p
}

// Poll fetches signals for a candidate from all adapters. It returns the
// merged signals, a degraded flag set when at least one adapter failed, and
// an error only when every adapter failed.
func (p *Poller) Poll(ctx context.Context, slug string, since time.Time) ([]Signal, bool, error) {
	if len(p.adapters) == 0 {
		return nil, false, nil
	}

	type result struct {
		name    string
		signals []Signal
		err     error
	}

	results := make(chan result, len(p.adapters))
	for _, a := range p.adapters {
		go func(a Adapter) {
			sigs, err := a.FetchSignalsForCandidate(ctx, slug, since)
			results <- result{name: a.Name(), signals: sigs, err: err}
		}(a)
	}

	var merged []Signal
	failures := 0
	for range p.adapters {
		r := <-results
		if r.err != nil {
			failures++
			metrics.RecordAdapterFailure(r.name)
			p.log.Warn(ctx, "upstream poll failed",
				logger.String("adapter", r.name),
				logger.String("candidate", slug),
				logger.Error(r.err),
			)
			continue
		}
		merged = append(merged, r.signals...)
	}

	if failures == len(p.adapters) {
		return nil, true, ErrAllUpstreamsFailed
	}
	return merged, failures > 0, nil
}
