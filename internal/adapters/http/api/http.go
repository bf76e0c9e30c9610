// Package api declares the read-only HTTP surface consumed by downstream
// renderers: health, metrics, and the latest scored snapshot.
package api

import (
	"encoding/json"
	"net/http"

	service "github.com/haebin/sujil/internal/app"
)

// Provider exposes the pipeline state the handlers read. Using an
// interface keeps the handler layer loosely coupled to the service.
type Provider interface {
	// Latest returns the most recent successful run, or nil before one.
	Latest() *service.Result
}

// Server wires HTTP routes for the status API.
type Server struct {
	provider Provider
}

// NewServer creates a Server over a pipeline state provider.
func NewServer(p Provider) *Server {
	return &Server{provider: p}
}

// RegisterRoutes attaches all handlers to the mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", metricsHandler())
	mux.HandleFunc("GET /api/v1/snapshot", s.handleSnapshot)
	mux.HandleFunc("GET /api/v1/stations", s.handleStations)
}

// writeJSON renders v with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders a uniform error body.
func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
