package collections

import (
	"math"
)

// FitResult reports how well a candidate complements a roster, with the
// specific dimensions of alignment and misalignment.
type FitResult struct {
	Fit           float64  `json:"fit"` // in [0,1]
	AlignedTags   []string `json:"aligned_tags"`
	NovelTags     []string `json:"novel_tags"` // tags the roster lacks; the candidate fills these
	OverlapCount  int      `json:"overlap_count"`
	ScoreDistance float64  `json:"score_distance"` // z-distance from the roster score mean
	Note          string   `json:"note,omitempty"`
}

// AssessFit compares a candidate against a roster's aggregate tag and score
// profile. An empty roster returns the defined neutral result, never an
// error or NaN.
func (a *Analyzer) AssessFit(candidate Profile, roster []Profile) FitResult {
	if len(roster) == 0 {
		return FitResult{
			Fit:         neutralFit,
			AlignedTags: []string{},
			NovelTags:   []string{},
			Note:        "empty roster",
		}
	}

	rosterTags := tagShares(roster)
	aligned := make(map[string]struct{})
	novel := make(map[string]struct{})
	for _, t := range candidate.Candidate.Tags {
		if _, ok := rosterTags[t]; ok {
			aligned[t] = struct{}{}
		} else {
			novel[t] = struct{}{}
		}
	}

	// Tag component rewards filling gaps while keeping some common ground.
	// All novel tags with zero overlap reads as a stylistic outlier; all
	// overlap reads as redundant with existing signings.
	tagComponent := neutralFit
	if total := len(aligned) + len(novel); total > 0 {
		novelShare := float64(len(novel)) / float64(total)
		tagComponent = 1 - math.Abs(novelShare-0.5)*2*0.5 // peak 1.0 at half novel, floor 0.5
	}

	mean, std := scoreStats(roster)
	dist := 0.0
	if std > 0 {
		dist = math.Abs(candidate.Score.Composite-mean) / std
	}
	// Gaussian falloff: candidates far outside the roster's score band fit
	// worse even when tags align.
	scoreComponent := math.Exp(-dist * dist / 2)

	fit := tagComponentWeight*tagComponent + scoreComponentWeight*scoreComponent
	return FitResult{
		Fit:           clamp01(fit),
		AlignedTags:   sortedKeys(aligned),
		NovelTags:     sortedKeys(novel),
		OverlapCount:  len(aligned),
		ScoreDistance: dist,
	}
}

func scoreStats(members []Profile) (mean, std float64) {
	n := float64(len(members))
	if n == 0 {
		return 0, 0
	}
	for i := range members {
		mean += members[i].Score.Composite
	}
	mean /= n
	var variance float64
	for i := range members {
		d := members[i].Score.Composite - mean
		variance += d * d
	}
	variance /= n
	return mean, math.Sqrt(variance)
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
