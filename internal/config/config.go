// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - Score weights and decay constants live here, in one explicit structure,
//     and are handed to the engines at construction. Nothing reads ambient
//     environment state at call depth.
//   - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9090".
	Addr string `koanf:"addr"`

	// DBPath locates the SQLite database file.
	DBPath string `koanf:"db_path"`

	// LookbackDays bounds the momentum window.
	LookbackDays int `koanf:"lookback_days"`

	// ClockSkewSeconds tolerates future occurred_at timestamps up to this bound.
	ClockSkewSeconds int `koanf:"clock_skew_seconds"`

	// SignalWeights maps signal types to their composite-score weights.
	// Weights are normalized by the scoring engine; they need not sum to 1.
	SignalWeights map[string]float64 `koanf:"signal_weights"`

	// DefaultSignalWeight is used for signal types absent from SignalWeights.
	DefaultSignalWeight float64 `koanf:"default_signal_weight"`

	// DecayConstants maps signal types to per-day exponential decay rates.
	// Faster decay suits social signals; slower suits streaming trends.
	DecayConstants map[string]float64 `koanf:"decay_constants"`

	// DefaultDecayConstant is used for signal types absent from DecayConstants.
	DefaultDecayConstant float64 `koanf:"default_decay_constant"`

	// MinSignalTypes is the low-confidence threshold: a composite score
	// built from fewer populated signal types is flagged, never suppressed.
	MinSignalTypes int `koanf:"min_signal_types"`

	// BreakoutGain is the logistic gain applied to score acceleration when
	// estimating breakout probability.
	BreakoutGain float64 `koanf:"breakout_gain"`

	// InsightMinMagnitude suppresses insights below this relative change.
	InsightMinMagnitude float64 `koanf:"insight_min_magnitude"`

	// InsightSurgeThreshold separates surge/decline from steady.
	InsightSurgeThreshold float64 `koanf:"insight_surge_threshold"`

	// WorkerCount sets the number of recompute workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the in-memory recompute job queue.
	QueueSize int `koanf:"queue_size"`

	// DedupeSize sets the size of the ingest deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// RecomputeParallelism caps concurrent per-candidate pipeline runs
	// during batch recomputation. Sized to connection limits, not CPUs.
	RecomputeParallelism int `koanf:"recompute_parallelism"`

	// MaxTopLimit caps GET /top?limit.
	MaxTopLimit int `koanf:"max_top_limit"`

	// CollabMinCompatibility filters collaboration suggestions.
	CollabMinCompatibility float64 `koanf:"collab_min_compatibility"`

	// Adapters configures the four context adapters. An empty URL disables
	// that adapter.
	Adapters AdaptersConfig `koanf:"adapters"`
}

// AdaptersConfig holds endpoints and breaker thresholds for the context
// adapters (MIG, Scenes, Fusion, CMG).
type AdaptersConfig struct {
	MIGURL    string `koanf:"mig_url"`
	ScenesURL string `koanf:"scenes_url"`
	FusionURL string `koanf:"fusion_url"`
	CMGURL    string `koanf:"cmg_url"`

	// TimeoutSeconds bounds each adapter call.
	TimeoutSeconds int `koanf:"timeout_seconds"`

	// BreakerMinRequests and BreakerFailureRatio tune when the circuit opens.
	BreakerMinRequests  uint32  `koanf:"breaker_min_requests"`
	BreakerFailureRatio float64 `koanf:"breaker_failure_ratio"`
}

// New creates a Config with defaults. Callers overlay file and env values
// via Load.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		Addr:             ":9090",
		DBPath:           "data/radar.db",
		LookbackDays:     90,
		ClockSkewSeconds: 300,
		SignalWeights: map[string]float64{
			"mention":       1.0,
			"coverage":      2.0,
			"stream_delta":  1.5,
			"social_growth": 1.0,
			"playlist_add":  1.5,
		},
		DefaultSignalWeight: 1.0,
		DecayConstants: map[string]float64{
			"mention":       0.105,
			"coverage":      0.050,
			"stream_delta":  0.020,
			"social_growth": 0.080,
			"playlist_add":  0.030,
		},
		DefaultDecayConstant:   0.050,
		MinSignalTypes:         2,
		BreakoutGain:           1.0,
		InsightMinMagnitude:    0.05,
		InsightSurgeThreshold:  0.25,
		WorkerCount:            runtime.NumCPU() * 2,
		QueueSize:              10_000,
		DedupeSize:             500_000,
		RecomputeParallelism:   8,
		MaxTopLimit:            100,
		CollabMinCompatibility: 0.35,
		Adapters: AdaptersConfig{
			TimeoutSeconds:      10,
			BreakerMinRequests:  10,
			BreakerFailureRatio: 0.6,
		},
	}
}
