// Package config defines pipeline configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load() layers defaults, an optional YAML file and environment variables.
// - External errors must be wrapped via this package's error helpers.
package config

import "time"

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// MetricsAddr configures the status/metrics HTTP listen address, e.g. ":9090".
	MetricsAddr string `koanf:"metrics_addr"`

	// APIBaseURL is the water-quality service root.
	APIBaseURL string `koanf:"api_base_url"`

	// APIServiceKey authenticates against data.go.kr.
	APIServiceKey string `koanf:"api_service_key"`

	// StationList restricts fetches to the given station codes (ptNoList).
	// Empty means all stations.
	StationList []string `koanf:"station_list"`

	// PageSize sets how many rows a fetch requests (numOfRows).
	PageSize int `koanf:"page_size"`

	// FetchTimeoutSec bounds a single remote fetch.
	FetchTimeoutSec int `koanf:"fetch_timeout_sec"`

	// CachePath is the canonical CSV cache file.
	CachePath string `koanf:"cache_path"`

	// SnapshotDir holds pre-overwrite cache snapshots. Empty selects a
	// "backup" directory beside the cache file.
	SnapshotDir string `koanf:"snapshot_dir"`

	// TpWeight and TnWeight weight the two indicators in the score.
	TpWeight float64 `koanf:"tp_weight"`
	TnWeight float64 `koanf:"tn_weight"`

	// BucketThresholds are the ascending lower bounds of the medium, high
	// and very_high risk buckets.
	BucketThresholds []float64 `koanf:"bucket_thresholds"`

	// RunIntervalMin schedules recurring runs. Zero means run once and exit.
	RunIntervalMin int `koanf:"run_interval_min"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		MetricsAddr:      ":9090",
		APIBaseURL:       "http://apis.data.go.kr/1480523/WaterQualityService",
		PageSize:         1000,
		FetchTimeoutSec:  30,
		CachePath:        "data/raw/water_quality.csv",
		TpWeight:         0.99,
		TnWeight:         0.01,
		BucketThresholds: []float64{0.5, 1.0, 2.0},
		RunIntervalMin:   0,
	}
}

// FetchTimeout returns the fetch timeout as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSec) * time.Second
}

// RunInterval returns the schedule interval as a duration.
func (c *Config) RunInterval() time.Duration {
	return time.Duration(c.RunIntervalMin) * time.Minute
}
