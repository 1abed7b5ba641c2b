// Package momentum computes exponentially time-decayed per-signal-type
// momentum from raw events.
//
// Raw sums favor long-lived candidates with accumulated history; decay makes
// the score reflect current trajectory instead.
package momentum

import (
	"context"
	"math"
	"time"

	"github.com/okian/radar/internal/domain/model"
	"github.com/okian/radar/pkg/metrics"
)

// Default engine configuration constants.
const (
	defaultLookbackDays  = 90
	defaultDecayConstant = 0.05 // per day
	hoursPerDay          = 24
)

// Engine computes momentum scores. Construct with New; the decay table and
// window are fixed for the engine's lifetime so identical inputs always
// yield identical outputs.
type Engine struct {
	decay        map[model.SignalType]float64
	defaultDecay float64
	lookbackDays int
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithDecayConstants sets per-signal-type decay rates (per day) from a
// configuration map. Negative rates are ignored.
func WithDecayConstants(constants map[string]float64, defaultConstant float64) Option {
	return func(e *Engine) {
		e.decay = make(map[model.SignalType]float64)
		for typ, lambda := range constants {
			if lambda >= 0 {
				e.decay[model.SignalType(typ)] = lambda
			}
		}
		if defaultConstant >= 0 {
			e.defaultDecay = defaultConstant
		}
	}
}

// WithLookbackDays sets the momentum window in days.
func WithLookbackDays(days int) Option {
	return func(e *Engine) {
		if days > 0 {
			e.lookbackDays = days
		}
	}
}

// New creates a momentum engine with configuration options.
func New(opts ...Option) *Engine {
	e := &Engine{
		decay:        make(map[model.SignalType]float64),
		defaultDecay: defaultDecayConstant,
		lookbackDays: defaultLookbackDays,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// DecayConstant returns the per-day decay rate for a signal type.
func (e *Engine) DecayConstant(typ model.SignalType) float64 {
	if lambda, ok := e.decay[typ]; ok {
		return lambda
	}
	return e.defaultDecay
}

// LookbackDays returns the configured window size.
func (e *Engine) LookbackDays() int {
	return e.lookbackDays
}

// Compute produces the momentum score for one signal type as of a given
// time. Events after asOf never contribute (no lookahead), so recomputing
// "as of" a past time replays history exactly. Zero matching events yield a
// decayed value of 0, not an absent row: absence of signal is a real,
// comparable value.
func (e *Engine) Compute(ctx context.Context, candidateSlug string, typ model.SignalType, events []model.Event, asOf time.Time) model.MomentumScore {
	lambda := e.DecayConstant(typ)
	windowStart := asOf.AddDate(0, 0, -e.lookbackDays)

	var decayed float64
	count := 0
	for i := range events {
		ev := &events[i]
		if ev.Type != typ {
			continue
		}
		if ev.OccurredAt.After(asOf) || ev.OccurredAt.Before(windowStart) {
			continue
		}
		ageDays := asOf.Sub(ev.OccurredAt).Hours() / hoursPerDay
		decayed += ev.Value * math.Exp(-lambda*ageDays)
		count++
	}

	metrics.RecordMomentumRun()
	return model.MomentumScore{
		CandidateSlug: candidateSlug,
		SignalType:    typ,
		WindowDays:    e.lookbackDays,
		DecayedValue:  decayed,
		EventCount:    count,
		ComputedAt:    asOf,
	}
}

// ComputeAll produces one momentum score per known signal type, in the
// stable order of model.AllSignalTypes.
func (e *Engine) ComputeAll(ctx context.Context, candidateSlug string, events []model.Event, asOf time.Time) []model.MomentumScore {
	types := model.AllSignalTypes()
	out := make([]model.MomentumScore, 0, len(types))
	for _, typ := range types {
		out = append(out, e.Compute(ctx, candidateSlug, typ, events, asOf))
	}
	return out
}
