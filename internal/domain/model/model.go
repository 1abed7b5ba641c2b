// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"time"
)

// SignalType categorizes a raw event.
type SignalType string

// Known signal types.
const (
	SignalMention      SignalType = "mention"
	SignalCoverage     SignalType = "coverage"
	SignalStreamDelta  SignalType = "stream_delta"
	SignalSocialGrowth SignalType = "social_growth"
	SignalPlaylistAdd  SignalType = "playlist_add"
)

// AllSignalTypes returns every known signal type in a stable order.
// Momentum runs emit one row per type, including types with no events.
func AllSignalTypes() []SignalType {
	return []SignalType{
		SignalMention,
		SignalCoverage,
		SignalStreamDelta,
		SignalSocialGrowth,
		SignalPlaylistAdd,
	}
}

// Valid reports whether the signal type is one of the known types.
func (s SignalType) Valid() bool {
	switch s {
	case SignalMention, SignalCoverage, SignalStreamDelta, SignalSocialGrowth, SignalPlaylistAdd:
		return true
	}
	return false
}

// Candidate is an artist or entity tracked by the radar.
// Identity is immutable; only Tags may grow after creation.
type Candidate struct {
	Slug      string    // stable unique key
	Name      string    // display name
	Tags      []string  // scene/genre tags
	CreatedAt time.Time
}

// Event is a single raw signal observation for a candidate.
// Events are append-only; they are never updated or deleted.
type Event struct {
	ID            int64
	CandidateSlug string
	Type          SignalType
	Value         float64 // non-negative magnitude
	Source        string
	OccurredAt    time.Time
	IngestedAt    time.Time
}

// NaturalKey identifies an event for deduplication purposes.
// Re-ingesting an event with the same key is a no-op.
func (e Event) NaturalKey() string {
	return fmt.Sprintf("%s|%s|%s|%d", e.CandidateSlug, e.Type, e.Source, e.OccurredAt.UTC().UnixNano())
}

// MomentumScore is the time-decayed aggregate of one signal type for a
// candidate at a computation run. Derived entirely from events.
type MomentumScore struct {
	ID            int64
	CandidateSlug string
	SignalType    SignalType
	WindowDays    int
	DecayedValue  float64
	EventCount    int // in-window events of this type, distinguishes zero signal from no signal
	ComputedAt    time.Time
}

// CompositeScore is one row of the per-candidate score time series.
// Each computation run appends a row; history is never overwritten.
type CompositeScore struct {
	ID                      int64
	CandidateSlug           string
	RunID                   string
	Composite               float64
	BreakoutProbability     float64 // in [0,1]
	LowConfidence           bool
	ComputedAt              time.Time
	ContributingMomentumIDs []int64
}

// CollectionKind distinguishes the three collection flavors.
type CollectionKind string

// Collection kinds.
const (
	KindShortlist CollectionKind = "shortlist"
	KindRoster    CollectionKind = "roster"
	KindWatchlist CollectionKind = "watchlist"
)

// Valid reports whether the kind is one of the known collection kinds.
func (k CollectionKind) Valid() bool {
	switch k {
	case KindShortlist, KindRoster, KindWatchlist:
		return true
	}
	return false
}

// Collection is a named, owner-scoped set of candidate references.
// The collection owns the membership edge, not the candidate.
type Collection struct {
	ID        int64
	OwnerID   string
	Kind      CollectionKind
	Name      string
	CreatedAt time.Time
}

// CollectionMember is one candidate's membership in a collection.
type CollectionMember struct {
	CollectionID  int64
	CandidateSlug string
	Position      int
	Notes         string
	AddedAt       time.Time
}

// InsightKind classifies a score-delta insight.
type InsightKind string

// Insight kinds.
const (
	InsightSurge   InsightKind = "surge"
	InsightDecline InsightKind = "decline"
	InsightSteady  InsightKind = "steady"
)

// Insight is a human-readable observation derived from two composite
// score snapshots of the same candidate.
type Insight struct {
	ID            int64
	OwnerID       string
	CandidateSlug string
	Kind          InsightKind
	Magnitude     float64 // relative score change, signed
	Narrative     string
	CreatedAt     time.Time
}
