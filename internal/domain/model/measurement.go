// Package model contains domain models passed between layers.
package model

import "time"

// Measurement is a single sampled water-quality record from a station.
// Tp and Tn are optional: stations report them independently and either
// may be absent from a sample.
type Measurement struct {
	StationID   string    // unique station code (ptNo)
	StationName string    // human-readable station name (ptNm)
	Address     string    // station address (addr)
	Tp          *float64  // total phosphorus, mg/L
	Tn          *float64  // total nitrogen, mg/L
	Latitude    float64   // WGS84 latitude (latDgr)
	Longitude   float64   // WGS84 longitude (lonDgr)
	SampleDate  time.Time // sample date (wmcymd)
}

// Scoreable reports whether the measurement carries both indicators
// required by the weighted score.
func (m Measurement) Scoreable() bool {
	return m.Tp != nil && m.Tn != nil
}

// RiskBucket is one of four ordered severity classes derived from the
// weighted score.
type RiskBucket string

// Risk buckets, lowest to highest severity.
const (
	BucketLow      RiskBucket = "low"
	BucketMedium   RiskBucket = "medium"
	BucketHigh     RiskBucket = "high"
	BucketVeryHigh RiskBucket = "very_high"
)

// ScoredMeasurement is a Measurement plus its derived weighted score and
// risk bucket. It is recomputed every run and never persisted on its own.
type ScoredMeasurement struct {
	Measurement
	Score  float64
	Bucket RiskBucket
}

// SourceKind identifies which tier of the fallback chain produced a dataset.
type SourceKind string

const (
	// SourceRemote marks data fetched from the upstream API this run.
	SourceRemote SourceKind = "remote"
	// SourceRefreshedCache marks cached data written by a successful
	// remote refresh earlier in this process's lifetime.
	SourceRefreshedCache SourceKind = "refreshed-cache"
	// SourceStaleCache marks cached data of unknown age.
	SourceStaleCache SourceKind = "stale-cache"
)

// Dataset is an ordered collection of measurements plus provenance.
type Dataset struct {
	Measurements []Measurement
	Source       SourceKind
	RetrievedAt  time.Time
}

// RecordCount returns the number of measurements in the dataset.
func (d *Dataset) RecordCount() int {
	return len(d.Measurements)
}
