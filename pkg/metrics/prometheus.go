// Package metrics provides Prometheus metrics for the water-quality pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the pipeline.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Run metrics - one pipeline invocation end to end
	runsTotal   prometheus.Counter
	runFailures prometheus.Counter
	runDuration prometheus.Histogram
	lastRunUnix prometheus.Gauge

	// Source resolution metrics - which fallback tier served the run
	resolutions        *prometheus.CounterVec
	fetchFailures      prometheus.Counter
	validationFailures prometheus.Counter
	fetchDuration      prometheus.Histogram

	// Cache metrics
	cacheRefreshes  prometheus.Counter
	cacheRecords    prometheus.Gauge
	lastRefreshUnix prometheus.Gauge

	// Scoring metrics - record counts from the most recent run
	scoredRecords   prometheus.Gauge
	unscoredRecords prometheus.Gauge
	droppedRecords  prometheus.Counter
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "sujil",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	// Initialize metrics
	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() {
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	m.runsTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "runs_total",
		Help:      "Total number of pipeline runs attempted",
	})

	m.runFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "run_failures_total",
		Help:      "Total number of pipeline runs that ended without a usable dataset",
	})

	m.runDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "run_duration_seconds",
		Help:      "Histogram of end-to-end pipeline run duration in seconds",
		Buckets:   m.histogramBuckets,
	})

	m.lastRunUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix timestamp of the most recent successful run",
	})

	m.resolutions = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "resolutions_total",
			Help:      "Total source resolutions by terminal outcome (refreshed, stale, unavailable)",
		},
		[]string{"outcome"},
	)

	m.fetchFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fetch_failures_total",
		Help:      "Total remote fetch failures (network, status, malformed payload)",
	})

	m.validationFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "validation_failures_total",
		Help:      "Total remote payloads rejected in aggregate after filtering",
	})

	m.fetchDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fetch_duration_seconds",
		Help:      "Histogram of remote fetch duration in seconds",
		Buckets:   m.histogramBuckets,
	})

	m.cacheRefreshes = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_refreshes_total",
		Help:      "Total successful cache overwrites (each preceded by a snapshot)",
	})

	m.cacheRecords = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_records",
		Help:      "Record count written by the most recent cache refresh",
	})

	m.lastRefreshUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "last_cache_refresh_timestamp_seconds",
		Help:      "Unix timestamp of the most recent cache refresh",
	})

	m.scoredRecords = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scored_records",
		Help:      "Measurements scored in the most recent run",
	})

	m.unscoredRecords = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "unscored_records",
		Help:      "Measurements retained for inventory but missing Tp or Tn in the most recent run",
	})

	m.droppedRecords = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dropped_records_total",
		Help:      "Individual records dropped as domain-range outliers",
	})
}

// Package-level helpers operating on the global manager.

// RecordRun observes one completed pipeline run.
func RecordRun(durationSeconds float64) {
	globalManager.runsTotal.Inc()
	globalManager.runDuration.Observe(durationSeconds)
	globalManager.lastRunUnix.SetToCurrentTime()
}

// RecordRunFailure counts a run that produced no usable dataset.
func RecordRunFailure() {
	globalManager.runsTotal.Inc()
	globalManager.runFailures.Inc()
}

// RecordResolution counts a terminal resolver outcome.
func RecordResolution(outcome string) {
	globalManager.resolutions.WithLabelValues(outcome).Inc()
}

// RecordFetchFailure counts a failed remote fetch.
func RecordFetchFailure() {
	globalManager.fetchFailures.Inc()
}

// RecordValidationFailure counts a remote payload rejected in aggregate.
func RecordValidationFailure() {
	globalManager.validationFailures.Inc()
}

// RecordFetchDuration observes a remote fetch duration in seconds.
func RecordFetchDuration(seconds float64) {
	globalManager.fetchDuration.Observe(seconds)
}

// RecordCacheRefresh counts a successful cache overwrite.
func RecordCacheRefresh() {
	globalManager.cacheRefreshes.Inc()
	globalManager.lastRefreshUnix.SetToCurrentTime()
}

// UpdateCacheRecords sets the record count of the canonical cache file.
func UpdateCacheRecords(count int) {
	globalManager.cacheRecords.Set(float64(count))
}

// UpdateScoredRecords sets the scored-record count of the latest run.
func UpdateScoredRecords(count int) {
	globalManager.scoredRecords.Set(float64(count))
}

// UpdateUnscoredRecords sets the unscoreable-record count of the latest run.
func UpdateUnscoredRecords(count int) {
	globalManager.unscoredRecords.Set(float64(count))
}

// RecordRecordsDropped counts records dropped as outliers.
func RecordRecordsDropped(count int) {
	if count > 0 {
		globalManager.droppedRecords.Add(float64(count))
	}
}

// GetRegistry returns the custom Prometheus registry used by the global
// manager, for serving via promhttp.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
