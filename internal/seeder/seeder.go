// Package seeder generates synthetic candidates and signal events for local
// development and load testing.
package seeder

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/okian/radar/internal/app"
	"github.com/okian/radar/internal/domain/model"
)

var (
	scenes  = []string{"hyperpop", "drill", "shoegaze", "afrobeats", "ambient", "garage", "jazz-fusion", "synthwave"}
	cities  = []string{"berlin", "lagos", "seoul", "atlanta", "manchester", "sao-paulo"}
	sources = []string{"mig", "scenes", "fusion", "cmg"}
)

// Seeder produces deterministic synthetic data from a seed.
type Seeder struct {
	rng *rand.Rand
}

// New creates a seeder. The same seed reproduces the same data.
func New(seed int64) *Seeder {
	return &Seeder{rng: rand.New(rand.NewSource(seed))}
}

// Candidates generates n synthetic candidates with scene and city tags.
func (s *Seeder) Candidates(n int) []model.Candidate {
	cands := make([]model.Candidate, 0, n)
	for i := 0; i < n; i++ {
		scene := scenes[s.rng.Intn(len(scenes))]
		city := cities[s.rng.Intn(len(cities))]
		slug := fmt.Sprintf("%s-act-%04d", scene, i)
		cands = append(cands, model.Candidate{
			Slug: slug,
			Name: fmt.Sprintf("%s Act %d", scene, i),
			Tags: []string{scene, city},
		})
	}
	return cands
}

// Events generates eventsPer synthetic events for each candidate, spread
// over the past spanDays days with values shaped per signal type.
func (s *Seeder) Events(cands []model.Candidate, eventsPer, spanDays int) []app.IngestItem {
	now := time.Now()
	types := model.AllSignalTypes()

	items := make([]app.IngestItem, 0, len(cands)*eventsPer)
	for i := range cands {
		for j := 0; j < eventsPer; j++ {
			typ := types[s.rng.Intn(len(types))]
			age := time.Duration(s.rng.Intn(spanDays*24)) * time.Hour
			items = append(items, app.IngestItem{
				CandidateSlug: cands[i].Slug,
				Type:          string(typ),
				Value:         s.value(typ),
				Source:        sources[s.rng.Intn(len(sources))],
				OccurredAt:    now.Add(-age),
			})
		}
	}
	return items
}

// value shapes magnitudes per signal type: stream deltas run large, mentions
// small.
func (s *Seeder) value(typ model.SignalType) float64 {
	switch typ {
	case model.SignalStreamDelta:
		return float64(s.rng.Intn(5000) + 100)
	case model.SignalSocialGrowth:
		return float64(s.rng.Intn(500) + 10)
	case model.SignalPlaylistAdd:
		return float64(s.rng.Intn(20) + 1)
	default:
		return float64(s.rng.Intn(10) + 1)
	}
}
