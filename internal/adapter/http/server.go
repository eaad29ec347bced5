// Package http exposes the assessment API: the bulk collection on /v0, the
// on-demand resolve on /v1, and the health, readiness, and metrics endpoints.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/burn-risk/internal/domain"
)

// Resolver serves location assessments and reports readiness to do so.
type Resolver interface {
	Resolve(ctx context.Context, query domain.LocationQuery) (domain.ResolveResult, error)
	CheckReadiness(ctx context.Context) error
}

// BulkSource lists every persisted assessment.
type BulkSource interface {
	All(ctx context.Context) ([]domain.BurnArea, error)
}

// Server exposes the assessment API over HTTP.
type Server struct {
	httpServer *http.Server
	resolver   Resolver
	bulk       BulkSource
	logger     *slog.Logger
}

// NewServer creates the route table: /v0 (bulk collection), /v1 (resolve),
// plus /healthz, /readyz, and /metrics.
func NewServer(addr string, resolver Resolver, bulk BulkSource, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:        addr,
			Handler:     mux,
			ReadTimeout: 10 * time.Second,
			// A cold resolve is bounded by the slowest upstream budget,
			// thirty seconds for the statistics generator.
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		resolver: resolver,
		bulk:     bulk,
		logger:   logger,
	}

	mux.HandleFunc("GET /v0", s.handleBulk)
	mux.HandleFunc("GET /v1", s.handleResolve)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// handleResolve serves GET /v1?lat=<f>&lng=<f>.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	lat, err := parseCoord(r.URL.Query().Get("lat"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("lat: %w", err))
		return
	}
	lng, err := parseCoord(r.URL.Query().Get("lng"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("lng: %w", err))
		return
	}

	query := domain.LocationQuery{Lat: lat, Lng: lng}
	if err := query.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := s.resolver.Resolve(r.Context(), query)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrAllSourcesFailed) {
			status = http.StatusBadGateway
		}
		s.logger.Error("resolve failed", "lat", lat, "lng", lng, "error", err)
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleBulk serves GET /v0: every persisted record, no computation.
func (s *Server) handleBulk(w http.ResponseWriter, r *http.Request) {
	areas, err := s.bulk.All(r.Context())
	if err != nil {
		s.logger.Error("bulk read failed", "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("bulk read failed"))
		return
	}
	if areas == nil {
		areas = []domain.BurnArea{}
	}
	writeJSON(w, http.StatusOK, areas)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.resolver.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func parseCoord(raw string) (float64, error) {
	if raw == "" {
		return 0, errors.New("missing coordinate")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.New("not a number")
	}
	return v, nil
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response write
}
