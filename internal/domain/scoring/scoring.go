// Package scoring combines per-signal-type momentum into a single composite
// score with a breakout-probability estimate.
package scoring

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/okian/radar/internal/domain/model"
	"github.com/okian/radar/pkg/metrics"
)

// Default scoring configuration constants.
const (
	defaultSignalWeight   = 1.0
	defaultMinSignalTypes = 2
	defaultBreakoutGain   = 1.0
	neutralProbability    = 0.5
	minHistoryForBreakout = 3
)

// BreakoutEstimator maps a composite-score history (oldest first, current
// value last) to a probability in [0,1] that the candidate's trajectory is
// accelerating. The exact transform is a placeholder pending calibration
// against historical outcome labels; implementations must be deterministic.
type BreakoutEstimator interface {
	Estimate(history []float64) float64
}

// LogisticEstimator estimates breakout probability as a logistic transform
// of the score's acceleration over the last two deltas.
type LogisticEstimator struct {
	gain float64
}

// NewLogisticEstimator creates an estimator with the given gain.
func NewLogisticEstimator(gain float64) *LogisticEstimator {
	if gain <= 0 {
		gain = defaultBreakoutGain
	}
	return &LogisticEstimator{gain: gain}
}

// Estimate implements BreakoutEstimator. Fewer than three points cannot
// carry a second derivative and yield the neutral 0.5.
func (l *LogisticEstimator) Estimate(history []float64) float64 {
	n := len(history)
	if n < minHistoryForBreakout {
		return neutralProbability
	}
	delta1 := history[n-1] - history[n-2]
	delta0 := history[n-2] - history[n-3]
	accel := delta1 - delta0
	return 1.0 / (1.0 + math.Exp(-l.gain*accel))
}

// Engine combines momentum scores into composite scores.
type Engine struct {
	weights        map[model.SignalType]float64
	defaultWeight  float64
	minSignalTypes int
	estimator      BreakoutEstimator
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithSignalWeightsFromConfig sets signal weights from a configuration map.
// Weights are normalized against their sum at composition time, so they need
// not sum to 1.
func WithSignalWeightsFromConfig(weights map[string]float64, defaultWeight float64) Option {
	return func(e *Engine) {
		e.weights = make(map[model.SignalType]float64)
		for typ, w := range weights {
			if w >= 0 {
				e.weights[model.SignalType(typ)] = w
			}
		}
		if defaultWeight > 0 {
			e.defaultWeight = defaultWeight
		}
	}
}

// WithMinSignalTypes sets the low-confidence threshold: composite scores
// backed by fewer populated signal types are flagged, never suppressed.
func WithMinSignalTypes(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.minSignalTypes = n
		}
	}
}

// WithBreakoutEstimator replaces the default logistic estimator.
func WithBreakoutEstimator(est BreakoutEstimator) Option {
	return func(e *Engine) {
		if est != nil {
			e.estimator = est
		}
	}
}

// New creates a scoring engine with configuration options.
func New(opts ...Option) *Engine {
	e := &Engine{
		weights:        make(map[model.SignalType]float64),
		defaultWeight:  defaultSignalWeight,
		minSignalTypes: defaultMinSignalTypes,
		estimator:      NewLogisticEstimator(defaultBreakoutGain),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Weight returns the configured weight for a signal type.
func (e *Engine) Weight(typ model.SignalType) float64 {
	if w, ok := e.weights[typ]; ok {
		return w
	}
	return e.defaultWeight
}

// Compose computes the composite score from one run's momentum scores plus
// the candidate's recent composite history (oldest first, for the breakout
// estimate). The result is a pure function of its inputs: momentum scores
// are summed in signal-type order so identical inputs reproduce identical
// composites bit-for-bit.
func (e *Engine) Compose(ctx context.Context, momenta []model.MomentumScore, history []model.CompositeScore, asOf time.Time) model.CompositeScore {
	ordered := make([]model.MomentumScore, len(momenta))
	copy(ordered, momenta)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].SignalType < ordered[j].SignalType
	})

	var weighted, weightSum float64
	populated := 0
	contributing := make([]int64, 0, len(ordered))
	slug := ""
	for i := range ordered {
		m := &ordered[i]
		slug = m.CandidateSlug
		w := e.Weight(m.SignalType)
		weighted += w * m.DecayedValue
		weightSum += w
		// A type is populated when it had in-window events, even if every
		// observed value was zero: zero signal is still signal.
		if m.EventCount > 0 {
			populated++
		}
		if m.ID != 0 {
			contributing = append(contributing, m.ID)
		}
	}

	composite := 0.0
	if weightSum > 0 {
		composite = weighted / weightSum
	}

	values := make([]float64, 0, len(history)+1)
	for i := range history {
		values = append(values, history[i].Composite)
	}
	values = append(values, composite)

	score := model.CompositeScore{
		CandidateSlug:           slug,
		Composite:               composite,
		BreakoutProbability:     e.estimator.Estimate(values),
		LowConfidence:           populated < e.minSignalTypes,
		ComputedAt:              asOf,
		ContributingMomentumIDs: contributing,
	}

	metrics.RecordScoringRun()
	if score.LowConfidence {
		metrics.RecordLowConfidenceScore()
	}
	return score
}
