package signals

import (
	"context"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/okian/radar/pkg/logger"
	"github.com/okian/radar/pkg/metrics"
)

// breakerAdapter wraps an Adapter with a circuit breaker so a flapping
// upstream is shed quickly instead of stalling every recompute on timeouts.
type breakerAdapter struct {
	inner Adapter
	cb    *gobreaker.CircuitBreaker[[]Signal]
}

// BreakerSettings tunes the trip condition shared by all wrapped adapters.
type BreakerSettings struct {
	// MinRequests is the minimum observed calls before the breaker may trip.
	MinRequests uint32
	// FailureRatio trips the breaker once exceeded over a counting window.
	FailureRatio float64
}

// WithBreaker wraps the adapter with a circuit breaker using the given
// settings. State transitions are exported as metrics and logged.
func WithBreaker(inner Adapter, settings BreakerSettings) Adapter {
	st := gobreaker.Settings{
		Name:     inner.Name(),
		Interval: 60 * time.Second,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < settings.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= settings.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.UpdateBreakerState(name, stateGauge(to))
			logger.Get().Warn(context.Background(), "adapter breaker state changed",
				logger.String("adapter", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		},
	}
	return &breakerAdapter{
		inner: inner,
		cb:    gobreaker.NewCircuitBreaker[[]Signal](st),
	}
}

func (b *breakerAdapter) Name() string {
	return b.inner.Name()
}

func (b *breakerAdapter) FetchSignalsForCandidate(ctx context.Context, slug string, since time.Time) ([]Signal, error) {
	return b.cb.Execute(func() ([]Signal, error) {
		return b.inner.FetchSignalsForCandidate(ctx, slug, since)
	})
}

func stateGauge(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}
