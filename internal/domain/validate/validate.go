// Package validate applies the domain validation rules shared by the
// remote fetch path and the cache load path.
//
// Rules are applied per record, then in aggregate: records violating the
// domain ranges are dropped individually, while a batch left with zero
// valid records fails as a whole.
package validate

import (
	"math"

	"github.com/haebin/sujil/internal/domain/model"
)

// Domain bounds for measurement fields.
const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0

	// Tp/Tn values above this are treated as sensor outliers.
	MaxIndicator = 1000.0
)

// Report summarizes what validation did to a batch.
type Report struct {
	Input   int // records received
	Valid   int // records kept
	Dropped int // records dropped for domain violations
	Deduped int // records collapsed as station/date duplicates
}

// Record checks a single measurement against the domain rules.
func Record(m model.Measurement) bool {
	if m.StationID == "" || m.StationName == "" || m.Address == "" {
		return false
	}
	// Written as positive range checks so NaN coordinates fail too.
	if !(m.Latitude >= MinLatitude && m.Latitude <= MaxLatitude) {
		return false
	}
	if !(m.Longitude >= MinLongitude && m.Longitude <= MaxLongitude) {
		return false
	}
	if !indicatorOK(m.Tp) || !indicatorOK(m.Tn) {
		return false
	}
	return true
}

func indicatorOK(v *float64) bool {
	if v == nil {
		return true
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		return false
	}
	return *v >= 0 && *v <= MaxIndicator
}

// Records filters a batch down to its valid measurements, collapsing
// duplicate (station, sample date) pairs to the last occurrence. A batch
// with zero valid records returns ErrNoValidRecords.
func Records(ms []model.Measurement) ([]model.Measurement, Report, error) {
	rep := Report{Input: len(ms)}

	type key struct {
		station string
		date    int64
	}
	index := make(map[key]int, len(ms))
	valid := make([]model.Measurement, 0, len(ms))

	for _, m := range ms {
		if !Record(m) {
			rep.Dropped++
			continue
		}
		k := key{station: m.StationID, date: m.SampleDate.Unix()}
		if i, ok := index[k]; ok {
			// Later records win, matching the upstream feed where a
			// corrected sample re-appears for the same station and date.
			valid[i] = m
			rep.Deduped++
			continue
		}
		index[k] = len(valid)
		valid = append(valid, m)
	}

	rep.Valid = len(valid)
	if rep.Valid == 0 {
		return nil, rep, ErrNoValidRecords
	}
	return valid, rep, nil
}
