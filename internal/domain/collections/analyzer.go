// Package collections ranks candidates against curated rosters: fit
// assessment, gap analysis, and collaboration pairing.
package collections

import (
	"sort"

	"github.com/okian/radar/internal/domain/model"
)

// Default analyzer configuration constants.
const (
	defaultMinCompatibility = 0.35
	neutralFit              = 0.5
	tagComponentWeight      = 0.5
	scoreComponentWeight    = 0.5
)

// Profile bundles what the analyzer needs to know about one candidate.
type Profile struct {
	Candidate model.Candidate
	Score     model.CompositeScore
	// Trend is the signed delta between the candidate's two most recent
	// composite scores; zero when history is too short.
	Trend float64
}

// Analyzer scores candidates against rosters. Stateless; safe for
// concurrent use.
type Analyzer struct {
	minCompatibility float64
}

// Option applies a configuration option to the Analyzer.
type Option func(*Analyzer)

// WithMinCompatibility sets the floor below which collaboration pairs are
// dropped.
func WithMinCompatibility(min float64) Option {
	return func(a *Analyzer) {
		if min >= 0 && min <= 1 {
			a.minCompatibility = min
		}
	}
}

// New creates an analyzer with configuration options.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		minCompatibility: defaultMinCompatibility,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// tagSet builds a set from a candidate's tags.
func tagSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	return set
}

// tagShares computes the share of roster members carrying each tag.
func tagShares(members []Profile) map[string]float64 {
	if len(members) == 0 {
		return map[string]float64{}
	}
	counts := make(map[string]float64)
	for i := range members {
		for _, t := range members[i].Candidate.Tags {
			counts[t]++
		}
	}
	shares := make(map[string]float64, len(counts))
	for t, c := range counts {
		shares[t] = c / float64(len(members))
	}
	return shares
}

// sortedKeys returns map keys in lexical order for deterministic output.
func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
