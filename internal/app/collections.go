package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/radar/internal/adapters/repository"
	"github.com/okian/radar/internal/domain/collections"
	"github.com/okian/radar/internal/domain/model"
)

// CreateCollection creates a shortlist, roster, or watchlist for an owner.
func (s *Service) CreateCollection(ctx context.Context, ownerID, name string, kind model.CollectionKind) (model.Collection, error) {
	if !kind.Valid() {
		return model.Collection{}, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	return s.store.CreateCollection(ctx, model.Collection{
		OwnerID: ownerID,
		Kind:    kind,
		Name:    name,
	})
}

// GetCollection returns a collection and its ordered members.
func (s *Service) GetCollection(ctx context.Context, id int64) (model.Collection, []model.CollectionMember, error) {
	return s.store.GetCollection(ctx, id)
}

// ListCollections returns an owner's collections.
func (s *Service) ListCollections(ctx context.Context, ownerID string) ([]model.Collection, error) {
	return s.store.ListCollections(ctx, ownerID)
}

// AddMember appends a candidate to a collection.
func (s *Service) AddMember(ctx context.Context, collectionID int64, slug, notes string) (model.CollectionMember, error) {
	return s.store.AddMember(ctx, collectionID, slug, notes)
}

// RemoveMember removes a candidate from a collection.
func (s *Service) RemoveMember(ctx context.Context, collectionID int64, slug string) error {
	return s.store.RemoveMember(ctx, collectionID, slug)
}

// SwapMembers exchanges the positions of two collection members.
func (s *Service) SwapMembers(ctx context.Context, collectionID int64, slugA, slugB string) error {
	return s.store.SwapPositions(ctx, collectionID, slugA, slugB)
}

// AssessRosterFit scores how well a candidate would complement a roster.
func (s *Service) AssessRosterFit(ctx context.Context, collectionID int64, slug string) (collections.FitResult, error) {
	roster, err := s.rosterProfiles(ctx, collectionID)
	if err != nil {
		return collections.FitResult{}, err
	}
	candidate, err := s.profile(ctx, slug)
	if err != nil {
		return collections.FitResult{}, err
	}
	return s.analyzer.AssessFit(candidate, roster), nil
}

// RosterGaps reports tags underrepresented in the roster relative to the
// whole tracked catalog.
func (s *Service) RosterGaps(ctx context.Context, collectionID int64) ([]collections.Gap, error) {
	roster, err := s.rosterProfiles(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	reference, err := s.catalogProfiles(ctx)
	if err != nil {
		return nil, err
	}
	return s.analyzer.RosterGaps(roster, reference), nil
}

// CollabsWithinRoster suggests collaboration pairs among roster members.
func (s *Service) CollabsWithinRoster(ctx context.Context, collectionID int64, limit int) ([]collections.CollabPair, error) {
	roster, err := s.rosterProfiles(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	return s.analyzer.SuggestCollabsWithinRoster(roster, limit), nil
}

// ExternalCollabs suggests collaborators for one candidate from the whole
// tracked catalog.
func (s *Service) ExternalCollabs(ctx context.Context, slug string, limit int) ([]collections.CollabPair, error) {
	candidate, err := s.profile(ctx, slug)
	if err != nil {
		return nil, err
	}
	pool, err := s.catalogProfiles(ctx)
	if err != nil {
		return nil, err
	}
	return s.analyzer.SuggestExternalCollabs(candidate, pool, limit), nil
}

// rosterProfiles loads a roster collection's member profiles. Analysis is
// restricted to rosters; fit against a watchlist is not meaningful.
func (s *Service) rosterProfiles(ctx context.Context, collectionID int64) ([]collections.Profile, error) {
	coll, members, err := s.store.GetCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if coll.Kind != model.KindRoster {
		return nil, fmt.Errorf("%w: collection %d is a %s", ErrNotRoster, collectionID, coll.Kind)
	}

	profiles := make([]collections.Profile, 0, len(members))
	for i := range members {
		p, err := s.profile(ctx, members[i].CandidateSlug)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// catalogProfiles loads a profile for every tracked candidate.
func (s *Service) catalogProfiles(ctx context.Context) ([]collections.Profile, error) {
	cands, err := s.store.ListCandidates(ctx)
	if err != nil {
		return nil, err
	}
	profiles := make([]collections.Profile, 0, len(cands))
	for i := range cands {
		p, err := s.profile(ctx, cands[i].Slug)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// profile assembles one candidate's analysis profile. A candidate without
// scores yet analyzes with a zero score and flat trend rather than erroring
// out of a whole roster.
func (s *Service) profile(ctx context.Context, slug string) (collections.Profile, error) {
	cand, err := s.store.GetCandidate(ctx, slug)
	if err != nil {
		return collections.Profile{}, err
	}

	recent, err := s.store.RecentComposites(ctx, slug, 2)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return collections.Profile{}, err
	}

	p := collections.Profile{Candidate: cand}
	switch len(recent) {
	case 0:
	case 1:
		p.Score = recent[0]
	default:
		p.Score = recent[len(recent)-1]
		p.Trend = recent[len(recent)-1].Composite - recent[len(recent)-2].Composite
	}
	return p, nil
}
