// Package app wires the domain engines, repositories, queue, and upstream
// adapters into the talent-radar service.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/radar/internal/adapters/mq/queue"
	"github.com/okian/radar/internal/adapters/mq/worker"
	"github.com/okian/radar/internal/adapters/repository"
	"github.com/okian/radar/internal/adapters/signals"
	"github.com/okian/radar/internal/config"
	"github.com/okian/radar/internal/domain/collections"
	"github.com/okian/radar/internal/domain/dedupe"
	"github.com/okian/radar/internal/domain/insight"
	"github.com/okian/radar/internal/domain/model"
	"github.com/okian/radar/internal/domain/momentum"
	"github.com/okian/radar/internal/domain/scoring"
	"github.com/okian/radar/pkg/logger"
)

// recentHistoryWindow is how many prior composites feed the breakout
// estimate.
const recentHistoryWindow = 8

// Service coordinates ingestion, scoring, collections, and insights.
type Service struct {
	cfg      *config.Config
	store    repository.Store
	rank     *repository.RankIndex
	deduper  dedupe.Deduper
	momentum *momentum.Engine
	scoring  *scoring.Engine
	insights *insight.Generator
	analyzer *collections.Analyzer
	poller   *signals.Poller
	queue    queue.Queue
	pool     *worker.Pool
	log      logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the persistence backend. Required.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithPoller sets the upstream signal poller. Optional; without it
// RefreshCandidate only replays stored events.
func WithPoller(p *signals.Poller) Option {
	return func(s *Service) {
		s.poller = p
	}
}

// WithQueue replaces the default in-memory recompute queue.
func WithQueue(q queue.Queue) Option {
	return func(s *Service) {
		s.queue = q
	}
}

// WithDeduper replaces the default ingest deduplication cache.
func WithDeduper(d dedupe.Deduper) Option {
	return func(s *Service) {
		s.deduper = d
	}
}

// WithLogger sets the service logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		s.log = log
	}
}

// New builds a Service from configuration. The engines are constructed here
// so every scoring knob flows from one config snapshot.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = config.New()
	}

	s := &Service{
		cfg: cfg,
		momentum: momentum.New(
			momentum.WithDecayConstants(cfg.DecayConstants, cfg.DefaultDecayConstant),
			momentum.WithLookbackDays(cfg.LookbackDays),
		),
		scoring: scoring.New(
			scoring.WithSignalWeightsFromConfig(cfg.SignalWeights, cfg.DefaultSignalWeight),
			scoring.WithMinSignalTypes(cfg.MinSignalTypes),
			scoring.WithBreakoutEstimator(scoring.NewLogisticEstimator(cfg.BreakoutGain)),
		),
		insights: insight.New(
			insight.WithMinMagnitude(cfg.InsightMinMagnitude),
			insight.WithSurgeThreshold(cfg.InsightSurgeThreshold),
		),
		analyzer: collections.New(
			collections.WithMinCompatibility(cfg.CollabMinCompatibility),
		),
		rank: repository.NewRankIndex(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.store == nil {
		return nil, ErrNoStore
	}
	if s.log == nil {
		s.log = logger.Get().Named("service")
	}
	if s.deduper == nil {
		s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(cfg.DedupeSize))
	}
	if s.queue == nil {
		s.queue = queue.NewInMemoryQueue(queue.WithCapacity(cfg.QueueSize))
	}
	s.pool = worker.NewPool(s.queue, s,
		worker.WithWorkerCount(cfg.WorkerCount),
		worker.WithLogger(s.log.Named("pool")),
	)

	return s, nil
}

// Start warms the rank index from persisted scores and launches the worker
// pool. A restart must not lose the ranking; scores are replayed from the
// store, not recomputed.
func (s *Service) Start(ctx context.Context) error {
	cands, err := s.store.ListCandidates(ctx)
	if err != nil {
		return fmt.Errorf("warming rank index: %w", err)
	}
	for i := range cands {
		latest, err := s.store.LatestComposite(ctx, cands[i].Slug)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("warming rank index: %w", err)
		}
		s.rank.Upsert(ctx, latest.CandidateSlug, latest.Composite, latest.BreakoutProbability, latest.LowConfidence)
	}

	s.pool.Start(ctx)
	s.log.Info(ctx, "service started",
		logger.Int("ranked_candidates", s.rank.Count(ctx)),
		logger.Int("workers", s.cfg.WorkerCount),
	)
	return nil
}

// Stop drains the worker pool and closes the store.
func (s *Service) Stop(ctx context.Context) error {
	s.queue.Close()
	s.pool.Stop()
	return s.store.Close()
}

// CreateCandidate registers a new tracked candidate.
func (s *Service) CreateCandidate(ctx context.Context, c model.Candidate) (model.Candidate, error) {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	if err := s.store.CreateCandidate(ctx, c); err != nil {
		return model.Candidate{}, err
	}
	s.log.Info(ctx, "candidate created", logger.String("slug", c.Slug))
	return c, nil
}

// GetCandidate returns a tracked candidate.
func (s *Service) GetCandidate(ctx context.Context, slug string) (model.Candidate, error) {
	return s.store.GetCandidate(ctx, slug)
}

// AddTags appends tags to a candidate. Tags only grow; removing one would
// silently rewrite past fit and gap analyses.
func (s *Service) AddTags(ctx context.Context, slug string, tags []string) error {
	return s.store.AddTags(ctx, slug, tags)
}

// ListCandidates returns every tracked candidate.
func (s *Service) ListCandidates(ctx context.Context) ([]model.Candidate, error) {
	return s.store.ListCandidates(ctx)
}
