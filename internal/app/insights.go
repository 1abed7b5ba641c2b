package app

import (
	"context"
	"errors"

	"github.com/okian/radar/internal/adapters/repository"
	"github.com/okian/radar/internal/domain/model"
	"github.com/okian/radar/pkg/logger"
)

// GenerateInsights walks an owner's collections and emits one insight per
// member whose latest score moved meaningfully since the previous one.
// Candidates appearing in multiple collections are examined once.
func (s *Service) GenerateInsights(ctx context.Context, ownerID string) ([]model.Insight, error) {
	colls, err := s.store.ListCollections(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var generated []model.Insight
	for i := range colls {
		_, members, err := s.store.GetCollection(ctx, colls[i].ID)
		if err != nil {
			return nil, err
		}
		for j := range members {
			slug := members[j].CandidateSlug
			if _, done := seen[slug]; done {
				continue
			}
			seen[slug] = struct{}{}

			recent, err := s.store.RecentComposites(ctx, slug, 2)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return nil, err
			}
			if len(recent) < 2 {
				continue
			}

			ins, ok := s.insights.FromSnapshots(ctx, recent[0], recent[1])
			if !ok {
				continue
			}
			ins.OwnerID = ownerID

			// Regeneration is idempotent: the insight's created_at is the
			// latest run's computed_at, so an equal or newer stored insight
			// means this run is already covered.
			last, err := s.store.LatestInsight(ctx, ownerID, slug)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return nil, err
			}
			if err == nil && !last.CreatedAt.Before(ins.CreatedAt) {
				continue
			}

			saved, err := s.store.SaveInsight(ctx, ins)
			if err != nil {
				return nil, err
			}
			generated = append(generated, saved)
		}
	}

	s.log.Info(ctx, "insights generated",
		logger.String("owner", ownerID),
		logger.Int("count", len(generated)),
	)
	return generated, nil
}

// ListInsights returns an owner's stored insights, newest first.
func (s *Service) ListInsights(ctx context.Context, ownerID string, limit int) ([]model.Insight, error) {
	return s.store.ListInsights(ctx, ownerID, limit)
}
