// Package insight synthesizes human-readable observations from composite
// score deltas.
package insight

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/radar/internal/domain/model"
	"github.com/okian/radar/pkg/metrics"
)

// Default generator configuration constants.
const (
	defaultMinMagnitude   = 0.05
	defaultSurgeThreshold = 0.25
	percent               = 100
)

// Generator turns pairs of composite score snapshots into insights.
// Insights below the minimum magnitude are suppressed; not every score
// wiggle is worth surfacing.
type Generator struct {
	minMagnitude   float64
	surgeThreshold float64
}

// Option applies a configuration option to the Generator.
type Option func(*Generator)

// WithMinMagnitude sets the suppression floor for relative score change.
func WithMinMagnitude(m float64) Option {
	return func(g *Generator) {
		if m >= 0 {
			g.minMagnitude = m
		}
	}
}

// WithSurgeThreshold sets the relative change above which an insight is a
// surge (or below the negation, a decline) rather than steady movement.
func WithSurgeThreshold(t float64) Option {
	return func(g *Generator) {
		if t > 0 {
			g.surgeThreshold = t
		}
	}
}

// New creates an insight generator with configuration options.
func New(opts ...Option) *Generator {
	g := &Generator{
		minMagnitude:   defaultMinMagnitude,
		surgeThreshold: defaultSurgeThreshold,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// FromSnapshots compares two composite scores of the same candidate, the
// earlier one first. The returned bool is false when the change is below
// the suppression floor and no insight should be surfaced.
func (g *Generator) FromSnapshots(ctx context.Context, prev, curr model.CompositeScore) (model.Insight, bool) {
	magnitude := relativeChange(prev.Composite, curr.Composite)
	if math.Abs(magnitude) < g.minMagnitude {
		metrics.RecordInsightSuppressed()
		return model.Insight{}, false
	}

	kind := model.InsightSteady
	switch {
	case magnitude >= g.surgeThreshold:
		kind = model.InsightSurge
	case magnitude <= -g.surgeThreshold:
		kind = model.InsightDecline
	}

	ins := model.Insight{
		CandidateSlug: curr.CandidateSlug,
		Kind:          kind,
		Magnitude:     magnitude,
		Narrative:     narrative(curr.CandidateSlug, kind, magnitude, prev, curr),
		CreatedAt:     curr.ComputedAt,
	}
	metrics.RecordInsightGenerated()
	return ins, true
}

// relativeChange is (curr-prev)/|prev|. A zero baseline falls back to the
// absolute delta so new candidates still produce comparable magnitudes.
func relativeChange(prev, curr float64) float64 {
	if prev == 0 {
		return curr
	}
	return (curr - prev) / math.Abs(prev)
}

func narrative(slug string, kind model.InsightKind, magnitude float64, prev, curr model.CompositeScore) string {
	pct := magnitude * percent
	span := curr.ComputedAt.Sub(prev.ComputedAt).Round(0)
	switch kind {
	case model.InsightSurge:
		return fmt.Sprintf("%s jumped %.0f%% in momentum over %s", slug, pct, span)
	case model.InsightDecline:
		return fmt.Sprintf("%s dropped %.0f%% in momentum over %s", slug, -pct, span)
	default:
		return fmt.Sprintf("%s moved %.0f%% in momentum over %s", slug, pct, span)
	}
}
