package app

import (
	"context"

	"github.com/okian/radar/internal/adapters/repository"
	"github.com/okian/radar/internal/domain/model"
)

// ScoreView is the latest composite score for a candidate plus its current
// rank position.
type ScoreView struct {
	Score model.CompositeScore   `json:"score"`
	Rank  repository.RankedEntry `json:"rank"`
}

// LatestScore returns the candidate's newest composite score with its rank.
func (s *Service) LatestScore(ctx context.Context, slug string) (ScoreView, error) {
	score, err := s.store.LatestComposite(ctx, slug)
	if err != nil {
		return ScoreView{}, err
	}
	entry, err := s.rank.Rank(ctx, slug)
	if err != nil {
		return ScoreView{}, err
	}
	return ScoreView{Score: score, Rank: entry}, nil
}

// ScoreHistory returns the candidate's composite scores over the last
// `days` days, oldest first.
func (s *Service) ScoreHistory(ctx context.Context, slug string, days int) ([]model.CompositeScore, error) {
	if _, err := s.store.GetCandidate(ctx, slug); err != nil {
		return nil, err
	}
	return s.store.CompositeHistory(ctx, slug, days)
}

// TopCandidates returns the highest-scoring candidates. The limit is capped
// by configuration so one request cannot dump the whole catalog.
func (s *Service) TopCandidates(ctx context.Context, limit int) ([]repository.RankedEntry, error) {
	if limit < 1 {
		return nil, repository.ErrInvalidLimit
	}
	if limit > s.cfg.MaxTopLimit {
		limit = s.cfg.MaxTopLimit
	}
	return s.rank.TopN(ctx, limit)
}
