package collections

import (
	"math"
	"sort"
)

// CollabPair is a suggested collaboration between two candidates, ranked by
// compatibility in [0,1].
type CollabPair struct {
	A                 string   `json:"a"`
	B                 string   `json:"b"`
	Compatibility     float64  `json:"compatibility"`
	SharedTags        []string `json:"shared_tags"`
	ComplementaryTags []string `json:"complementary_tags"`
}

// SuggestCollabsWithinRoster pairs roster members by complementary tags and
// compatible momentum trajectories, ranked descending, capped at limit.
func (a *Analyzer) SuggestCollabsWithinRoster(roster []Profile, limit int) []CollabPair {
	pairs := make([]CollabPair, 0)
	for i := range roster {
		for j := i + 1; j < len(roster); j++ {
			if pair, ok := a.pair(roster[i], roster[j]); ok {
				pairs = append(pairs, pair)
			}
		}
	}
	return rankAndCap(pairs, limit)
}

// SuggestExternalCollabs pairs one candidate against a pool of outsiders,
// ranked descending, capped at limit.
func (a *Analyzer) SuggestExternalCollabs(candidate Profile, pool []Profile, limit int) []CollabPair {
	pairs := make([]CollabPair, 0)
	for i := range pool {
		if pool[i].Candidate.Slug == candidate.Candidate.Slug {
			continue
		}
		if pair, ok := a.pair(candidate, pool[i]); ok {
			pairs = append(pairs, pair)
		}
	}
	return rankAndCap(pairs, limit)
}

// pair scores one candidate pairing. Identical tag sets score zero
// complementarity; the point of a collab is reaching an adjacent audience,
// not doubling down on the same one.
func (a *Analyzer) pair(x, y Profile) (CollabPair, bool) {
	xs, ys := tagSet(x.Candidate.Tags), tagSet(y.Candidate.Tags)
	shared := make(map[string]struct{})
	complementary := make(map[string]struct{})
	union := 0
	for t := range xs {
		if _, ok := ys[t]; ok {
			shared[t] = struct{}{}
		} else {
			complementary[t] = struct{}{}
		}
		union++
	}
	for t := range ys {
		if _, ok := xs[t]; !ok {
			complementary[t] = struct{}{}
			union++
		}
	}

	complementarity := 0.0
	if union > 0 {
		jaccard := float64(len(shared)) / float64(union)
		complementarity = 1 - jaccard
	}

	compat := complementarity * trajectoryCompatibility(x.Trend, y.Trend)
	if compat < a.minCompatibility {
		return CollabPair{}, false
	}

	first, second := x.Candidate.Slug, y.Candidate.Slug
	if second < first {
		first, second = second, first
	}
	return CollabPair{
		A:                 first,
		B:                 second,
		Compatibility:     compat,
		SharedTags:        sortedKeys(shared),
		ComplementaryTags: sortedKeys(complementary),
	}, true
}

// trajectoryCompatibility favors pairs whose momentum is moving the same
// direction; a surging artist paired with a fading one helps neither.
func trajectoryCompatibility(a, b float64) float64 {
	if a == 0 && b == 0 {
		return 1
	}
	if (a >= 0) != (b >= 0) {
		return 0.25
	}
	scale := math.Abs(a) + math.Abs(b)
	return 1 - math.Abs(a-b)/(scale+1)
}

func rankAndCap(pairs []CollabPair, limit int) []CollabPair {
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Compatibility != pairs[j].Compatibility {
			return pairs[i].Compatibility > pairs[j].Compatibility
		}
		if pairs[i].A != pairs[j].A {
			return pairs[i].A < pairs[j].A
		}
		return pairs[i].B < pairs[j].B
	})
	if limit > 0 && len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs
}
