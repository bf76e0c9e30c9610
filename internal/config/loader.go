package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if SUJIL_CONFIG is set
//  3. env (prefix SUJIL_)
func Load() (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("SUJIL_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: SUJIL_CACHE_PATH, SUJIL_TP_WEIGHT, ...
	// Map env keys like SUJIL_FETCH_TIMEOUT_SEC -> fetch_timeout_sec.
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("SUJIL_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "sujil_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate rejects configurations the pipeline cannot run with.
func (c *Config) validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("%w: api_base_url must not be empty", ErrInvalidConfig)
	}
	if c.CachePath == "" {
		return fmt.Errorf("%w: cache_path must not be empty", ErrInvalidConfig)
	}
	if c.FetchTimeoutSec <= 0 {
		return fmt.Errorf("%w: fetch_timeout_sec must be positive", ErrInvalidConfig)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("%w: page_size must be positive", ErrInvalidConfig)
	}
	if c.TpWeight < 0 || c.TnWeight < 0 {
		return fmt.Errorf("%w: indicator weights must not be negative", ErrInvalidConfig)
	}
	if len(c.BucketThresholds) != 3 {
		return fmt.Errorf("%w: bucket_thresholds needs exactly 3 values", ErrInvalidConfig)
	}
	if !(c.BucketThresholds[0] >= 0 &&
		c.BucketThresholds[0] < c.BucketThresholds[1] &&
		c.BucketThresholds[1] < c.BucketThresholds[2]) {
		return fmt.Errorf("%w: bucket_thresholds must be non-negative and ascending", ErrInvalidConfig)
	}
	if c.RunIntervalMin < 0 {
		return fmt.Errorf("%w: run_interval_min must not be negative", ErrInvalidConfig)
	}
	return nil
}
