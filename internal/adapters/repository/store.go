// Package repository defines the persistence interfaces for candidates,
// events, scores, collections, and insights, plus the SQLite implementation
// and the in-memory rank index.
package repository

import (
	"context"
	"time"

	"github.com/okian/radar/internal/domain/model"
)

// CandidateStore manages candidate identity. Identity is immutable; only
// tags may be added after creation.
type CandidateStore interface {
	CreateCandidate(ctx context.Context, c model.Candidate) error
	GetCandidate(ctx context.Context, slug string) (model.Candidate, error)
	AddTags(ctx context.Context, slug string, tags []string) error
	ListCandidates(ctx context.Context) ([]model.Candidate, error)
	ListCandidatesByTag(ctx context.Context, tag string) ([]model.Candidate, error)
	CountCandidates(ctx context.Context) (int, error)
}

// EventStore is append-only: rows are never updated or deleted, so a
// historical score can always be recomputed from the events that existed
// at the time.
type EventStore interface {
	// AppendEvent inserts an event. A natural-key conflict is a successful
	// no-op (inserted=false), making ingestion safely retryable.
	AppendEvent(ctx context.Context, e model.Event) (inserted bool, err error)

	// EventsForCandidate returns a candidate's events with
	// occurred_at in (since, until], ordered by occurred_at.
	EventsForCandidate(ctx context.Context, slug string, since, until time.Time) ([]model.Event, error)

	CountEvents(ctx context.Context) (int64, error)
}

// ScoreStore persists momentum and composite scores as append-only time
// series.
type ScoreStore interface {
	// SaveRun persists one computation run atomically: all momentum rows
	// plus the composite referencing them, or nothing.
	SaveRun(ctx context.Context, momenta []model.MomentumScore, composite model.CompositeScore) (model.CompositeScore, error)

	// LatestComposite returns the newest composite score for a candidate.
	// Returns ErrNotFound if the candidate has no scores yet.
	LatestComposite(ctx context.Context, slug string) (model.CompositeScore, error)

	// CompositeHistory returns composites computed within the last `days`
	// days, oldest first.
	CompositeHistory(ctx context.Context, slug string, days int) ([]model.CompositeScore, error)

	// RecentComposites returns up to n newest composites, oldest first.
	RecentComposites(ctx context.Context, slug string, n int) ([]model.CompositeScore, error)
}

// CollectionStore manages shortlists, rosters, and watchlists. Collections
// own the membership edge; a candidate may appear in many collections.
type CollectionStore interface {
	CreateCollection(ctx context.Context, c model.Collection) (model.Collection, error)
	GetCollection(ctx context.Context, id int64) (model.Collection, []model.CollectionMember, error)
	ListCollections(ctx context.Context, ownerID string) ([]model.Collection, error)
	AddMember(ctx context.Context, collectionID int64, slug, notes string) (model.CollectionMember, error)
	RemoveMember(ctx context.Context, collectionID int64, slug string) error

	// SwapPositions exchanges the positions of two members. Reordering is a
	// position swap, not a full list rewrite.
	SwapPositions(ctx context.Context, collectionID int64, slugA, slugB string) error
}

// InsightStore persists generated insights.
type InsightStore interface {
	SaveInsight(ctx context.Context, ins model.Insight) (model.Insight, error)
	ListInsights(ctx context.Context, ownerID string, limit int) ([]model.Insight, error)

	// LatestInsight returns the newest insight for an owner and candidate.
	// Returns ErrNotFound when none has been generated yet.
	LatestInsight(ctx context.Context, ownerID, slug string) (model.Insight, error)
}

// Store bundles every repository concern behind one handle.
type Store interface {
	CandidateStore
	EventStore
	ScoreStore
	CollectionStore
	InsightStore

	Close() error
}
