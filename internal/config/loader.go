package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if RADAR_CONFIG is set
//  3. env (prefix RADAR_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("RADAR_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: RADAR_ADDR, RADAR_LOOKBACK_DAYS, ...
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("RADAR_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "radar_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate rejects configurations the engines cannot run with.
func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DBPath == "":
		return fmt.Errorf("%w: db_path must not be empty", ErrInvalidConfig)
	case c.LookbackDays < 1:
		return fmt.Errorf("%w: lookback_days must be positive", ErrInvalidConfig)
	case c.ClockSkewSeconds < 0:
		return fmt.Errorf("%w: clock_skew_seconds must not be negative", ErrInvalidConfig)
	case c.MinSignalTypes < 1:
		return fmt.Errorf("%w: min_signal_types must be positive", ErrInvalidConfig)
	case c.InsightMinMagnitude < 0:
		return fmt.Errorf("%w: insight_min_magnitude must not be negative", ErrInvalidConfig)
	case c.InsightSurgeThreshold < c.InsightMinMagnitude:
		return fmt.Errorf("%w: insight_surge_threshold must be at least insight_min_magnitude", ErrInvalidConfig)
	case c.RecomputeParallelism < 1:
		return fmt.Errorf("%w: recompute_parallelism must be positive", ErrInvalidConfig)
	}
	for typ, lambda := range c.DecayConstants {
		if lambda < 0 {
			return fmt.Errorf("%w: decay constant for %s must not be negative", ErrInvalidConfig, typ)
		}
	}
	for typ, weight := range c.SignalWeights {
		if weight < 0 {
			return fmt.Errorf("%w: signal weight for %s must not be negative", ErrInvalidConfig, typ)
		}
	}
	return nil
}
