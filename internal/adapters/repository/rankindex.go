package repository

import (
	"context"
	"math"
	"sync"

	"github.com/okian/radar/pkg/metrics"
)

// Treap-based, in-memory rank index over each candidate's latest composite
// score. The SQLite tables remain the source of truth; the index exists so
// top-N and rank reads never scan the score history.
//
// Ordering: score DESC, then slug ASC (deterministic).

// scoreScale controls fixed-point scaling from float64. Fixed-point keys
// keep ordering stable across recomputations of the same inputs.
const scoreScale = 1_000_000_000_000 // 12 decimal places

type scoreFP int64

func toFixedPoint(x float64) scoreFP {
	if math.IsNaN(x) {
		return 0
	}
	scaled := x * scoreScale
	if scaled > float64(math.MaxInt64) {
		return scoreFP(math.MaxInt64)
	}
	if scaled < float64(math.MinInt64) {
		return scoreFP(math.MinInt64)
	}
	return scoreFP(math.Round(scaled))
}

func toFloat(x scoreFP) float64 {
	return float64(x) / scoreScale
}

// RankedEntry is one row of the candidate ranking.
type RankedEntry struct {
	Rank                int     `json:"rank"`
	Slug                string  `json:"slug"`
	Score               float64 `json:"score"`
	BreakoutProbability float64 `json:"breakout_probability"`
	LowConfidence       bool    `json:"low_confidence"`
}

// record stores the fixed-point score plus score metadata for a candidate.
type record struct {
	score    scoreFP
	breakout float64
	lowConf  bool
}

// treap node
type node struct {
	slug  string
	score scoreFP
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aScore, aSlug) ranks earlier than (bScore, bSlug).
func less(aScore scoreFP, aSlug string, bScore scoreFP, bSlug string) bool {
	if aScore != bScore {
		return aScore > bScore // higher score ranks earlier
	}
	return aSlug < bSlug // tie-breaker by slug asc
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

// scoreToPriority keeps higher scores near the treap root.
func scoreToPriority(score scoreFP) uint64 {
	const offset = uint64(1) << 63 // shift negatives into uint range
	return uint64(score) + offset
}

func insert(n *node, slug string, score scoreFP) *node {
	if n == nil {
		return &node{slug: slug, score: score, prio: scoreToPriority(score), size: 1}
	}
	if less(score, slug, n.score, n.slug) {
		n.left = insert(n.left, slug, score)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, slug, score)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, slug string, score scoreFP) *node {
	if n == nil {
		return nil
	}
	if score == n.score && slug == n.slug {
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, slug, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, slug, score)
		}
	} else if less(score, slug, n.score, n.slug) {
		n.left = deleteNode(n.left, slug, score)
	} else {
		n.right = deleteNode(n.right, slug, score)
	}
	fix(n)
	return n
}

// rankOf counts the nodes ordering before (score, slug) using subtree sizes,
// yielding a 1-based rank in O(log n) expected time.
func rankOf(n *node, slug string, score scoreFP) int {
	rank := 1
	for n != nil {
		if score == n.score && slug == n.slug {
			return rank + nsize(n.left)
		}
		if less(score, slug, n.score, n.slug) {
			n = n.left
		} else {
			rank += nsize(n.left) + 1
			n = n.right
		}
	}
	return 0
}

// collectTopN appends up to limit slugs in rank order via in-order walk.
func collectTopN(n *node, limit int, out *[]string) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, n.slug)
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, out)
	}
}

// RankIndex maintains the candidate ranking by latest composite score.
type RankIndex struct {
	mu     sync.RWMutex
	root   *node
	bySlug map[string]record
}

// NewRankIndex constructs an empty rank index.
func NewRankIndex() *RankIndex {
	return &RankIndex{
		bySlug: make(map[string]record),
	}
}

// Upsert replaces a candidate's ranked score with the latest one. Unlike a
// best-score leaderboard, a newer score always wins even when lower; the
// ranking reflects current momentum, not historical peaks.
func (x *RankIndex) Upsert(ctx context.Context, slug string, score, breakout float64, lowConfidence bool) {
	ns := toFixedPoint(score)

	x.mu.Lock()
	if old, ok := x.bySlug[slug]; ok {
		x.root = deleteNode(x.root, slug, old.score)
	}
	x.bySlug[slug] = record{score: ns, breakout: breakout, lowConf: lowConfidence}
	x.root = insert(x.root, slug, ns)
	count := len(x.bySlug)
	x.mu.Unlock()

	metrics.UpdateCandidatesTracked(count)
}

// Rank returns the current rank and score for a candidate.
// Returns ErrNotFound if the candidate has no ranked score.
func (x *RankIndex) Rank(ctx context.Context, slug string) (RankedEntry, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	rec, ok := x.bySlug[slug]
	if !ok {
		return RankedEntry{}, ErrNotFound
	}
	return RankedEntry{
		Rank:                rankOf(x.root, slug, rec.score),
		Slug:                slug,
		Score:               toFloat(rec.score),
		BreakoutProbability: rec.breakout,
		LowConfidence:       rec.lowConf,
	}, nil
}

// TopN returns the top-N entries ordered by score desc, slug asc.
func (x *RankIndex) TopN(ctx context.Context, n int) ([]RankedEntry, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	slugs := make([]string, 0, n)
	collectTopN(x.root, n, &slugs)

	entries := make([]RankedEntry, 0, len(slugs))
	for i, slug := range slugs {
		rec := x.bySlug[slug]
		entries = append(entries, RankedEntry{
			Rank:                i + 1,
			Slug:                slug,
			Score:               toFloat(rec.score),
			BreakoutProbability: rec.breakout,
			LowConfidence:       rec.lowConf,
		})
	}
	return entries, nil
}

// Count returns the number of ranked candidates.
func (x *RankIndex) Count(ctx context.Context) int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.bySlug)
}
