package api

import (
	"net/http"
	"time"

	"github.com/haebin/sujil/internal/domain/model"
)

// Wire shapes for the snapshot and station endpoints.

type scoredStation struct {
	StationID  string   `json:"station_id"`
	Name       string   `json:"name"`
	Address    string   `json:"address"`
	Latitude   float64  `json:"latitude"`
	Longitude  float64  `json:"longitude"`
	SampleDate string   `json:"sample_date"`
	Tp         *float64 `json:"tp,omitempty"`
	Tn         *float64 `json:"tn,omitempty"`
	Score      *float64 `json:"score,omitempty"`
	Bucket     string   `json:"bucket,omitempty"`
}

type snapshotResponse struct {
	RunID       string          `json:"run_id"`
	Source      string          `json:"source"`
	RetrievedAt time.Time       `json:"retrieved_at"`
	FinishedAt  time.Time       `json:"finished_at"`
	Scored      []scoredStation `json:"scored"`
	Unscored    int             `json:"unscored_count"`
}

type stationsResponse struct {
	RunID    string          `json:"run_id"`
	Source   string          `json:"source"`
	Stations []scoredStation `json:"stations"`
}

// handleSnapshot handles GET /api/v1/snapshot: the latest scored
// measurements ordered by score descending, with provenance.
func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	res := s.provider.Latest()
	if res == nil {
		writeError(w, http.StatusServiceUnavailable, "no completed run yet")
		return
	}

	resp := snapshotResponse{
		RunID:       res.RunID,
		Source:      string(res.Source),
		RetrievedAt: res.RetrievedAt,
		FinishedAt:  res.FinishedAt,
		Scored:      make([]scoredStation, 0, len(res.Scored)),
		Unscored:    len(res.Unscored),
	}
	for _, sm := range res.Scored {
		resp.Scored = append(resp.Scored, toScoredStation(sm))
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleStations handles GET /api/v1/stations: the full station
// inventory, including stations that could not be scored this run.
func (s *Server) handleStations(w http.ResponseWriter, _ *http.Request) {
	res := s.provider.Latest()
	if res == nil {
		writeError(w, http.StatusServiceUnavailable, "no completed run yet")
		return
	}

	resp := stationsResponse{
		RunID:    res.RunID,
		Source:   string(res.Source),
		Stations: make([]scoredStation, 0, len(res.Scored)+len(res.Unscored)),
	}
	for _, sm := range res.Scored {
		resp.Stations = append(resp.Stations, toScoredStation(sm))
	}
	for _, m := range res.Unscored {
		resp.Stations = append(resp.Stations, toStation(m))
	}
	writeJSON(w, http.StatusOK, resp)
}

func toScoredStation(sm model.ScoredMeasurement) scoredStation {
	st := toStation(sm.Measurement)
	score := sm.Score
	st.Score = &score
	st.Bucket = string(sm.Bucket)
	return st
}

func toStation(m model.Measurement) scoredStation {
	return scoredStation{
		StationID:  m.StationID,
		Name:       m.StationName,
		Address:    m.Address,
		Latitude:   m.Latitude,
		Longitude:  m.Longitude,
		SampleDate: m.SampleDate.Format("2006-01-02"),
		Tp:         m.Tp,
		Tn:         m.Tn,
	}
}
