package api

import (
	"net/http"
	"time"

	"github.com/haebin/sujil/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// healthResponse reports liveness plus last-run provenance.
type healthResponse struct {
	Status      string     `json:"status"`
	LastRunID   string     `json:"last_run_id,omitempty"`
	Source      string     `json:"source,omitempty"`
	RetrievedAt *time.Time `json:"retrieved_at,omitempty"`
}

// handleHealth handles GET /healthz. The process is alive as soon as it
// serves; run provenance appears once a run has succeeded.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok"}
	if res := s.provider.Latest(); res != nil {
		resp.LastRunID = res.RunID
		resp.Source = string(res.Source)
		resp.RetrievedAt = &res.RetrievedAt
	}
	writeJSON(w, http.StatusOK, resp)
}

// metricsHandler serves the custom metrics registry.
func metricsHandler() http.Handler {
	return promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})
}
