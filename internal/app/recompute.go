package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/radar/internal/adapters/mq/queue"
	"github.com/okian/radar/internal/domain/model"
	"github.com/okian/radar/pkg/logger"
	"github.com/okian/radar/pkg/metrics"
)

// RecomputeCandidate implements worker.Recomputer.
func (s *Service) RecomputeCandidate(ctx context.Context, job queue.Job) error {
	return s.recompute(ctx, job.CandidateSlug, job.AsOf, job.RunID, false)
}

// recompute runs the full scoring pipeline for one candidate: load events in
// the window, compute per-type momentum, compose, persist atomically, update
// the rank index. degraded marks the run low-confidence when upstream
// context was partially unavailable.
func (s *Service) recompute(ctx context.Context, slug string, asOf time.Time, runID string, degraded bool) error {
	started := time.Now()
	if runID == "" {
		runID = uuid.NewString()
	}

	if _, err := s.store.GetCandidate(ctx, slug); err != nil {
		return err
	}

	windowStart := asOf.AddDate(0, 0, -s.momentum.LookbackDays())
	events, err := s.store.EventsForCandidate(ctx, slug, windowStart, asOf)
	if err != nil {
		metrics.RecordScoringFailure()
		return fmt.Errorf("loading events: %w", err)
	}

	momenta := s.momentum.ComputeAll(ctx, slug, events, asOf)

	history, err := s.store.RecentComposites(ctx, slug, recentHistoryWindow)
	if err != nil {
		metrics.RecordScoringFailure()
		return fmt.Errorf("loading score history: %w", err)
	}

	composite := s.scoring.Compose(ctx, momenta, history, asOf)
	composite.CandidateSlug = slug
	composite.RunID = runID
	if degraded {
		composite.LowConfidence = true
	}

	saved, err := s.store.SaveRun(ctx, momenta, composite)
	if err != nil {
		metrics.RecordScoringFailure()
		return fmt.Errorf("saving run: %w", err)
	}

	s.rank.Upsert(ctx, slug, saved.Composite, saved.BreakoutProbability, saved.LowConfidence)
	metrics.RecordScoringDuration(float64(time.Since(started).Milliseconds()))

	s.log.Debug(ctx, "candidate recomputed",
		logger.String("candidate", slug),
		logger.String("run_id", runID),
		logger.Float64("composite", saved.Composite),
		logger.Bool("low_confidence", saved.LowConfidence),
	)
	return nil
}

// RefreshCandidate polls the upstream trackers for fresh signals, ingests
// them, and recomputes synchronously. When some upstreams fail, the refresh
// proceeds on partial context and the run is marked low-confidence.
func (s *Service) RefreshCandidate(ctx context.Context, slug string) (model.CompositeScore, error) {
	if _, err := s.store.GetCandidate(ctx, slug); err != nil {
		return model.CompositeScore{}, err
	}

	now := time.Now()
	degraded := false
	if s.poller != nil {
		since := now.AddDate(0, 0, -s.momentum.LookbackDays())
		sigs, deg, err := s.poller.Poll(ctx, slug, since)
		if err != nil {
			// Every upstream down: recompute from stored events only.
			s.log.Warn(ctx, "refresh proceeding without upstream context",
				logger.String("candidate", slug), logger.Error(err))
		}
		degraded = deg || err != nil

		items := make([]IngestItem, 0, len(sigs))
		for _, sig := range sigs {
			items = append(items, IngestItem{
				CandidateSlug: slug,
				Type:          string(sig.Type),
				Value:         sig.Value,
				Source:        sig.Source,
				OccurredAt:    sig.OccurredAt,
			})
		}
		if len(items) > 0 {
			if _, err := s.IngestBatch(ctx, items); err != nil {
				return model.CompositeScore{}, err
			}
		}
	}

	if err := s.recompute(ctx, slug, now, uuid.NewString(), degraded); err != nil {
		return model.CompositeScore{}, err
	}
	return s.store.LatestComposite(ctx, slug)
}

// RecomputeByTag recomputes every candidate carrying the tag, bounded by the
// configured parallelism. The first failure cancels the remaining work.
func (s *Service) RecomputeByTag(ctx context.Context, tag string) (int, error) {
	cands, err := s.store.ListCandidatesByTag(ctx, tag)
	if err != nil {
		return 0, err
	}

	asOf := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.RecomputeParallelism)
	for i := range cands {
		slug := cands[i].Slug
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return s.recompute(gctx, slug, asOf, uuid.NewString(), false)
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(cands), nil
}
