package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quietpetrel/stratowatch/internal/domain"
	"github.com/quietpetrel/stratowatch/internal/store"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// RefreshTrigger starts refresh cycles on demand. Begin claims the
// single-flight slot synchronously and runs the cycle in the background.
type RefreshTrigger interface {
	Begin(ctx context.Context) error
}

// Server exposes health, readiness, metrics, and the snapshot API the
// presentation layer consumes.
type Server struct {
	httpServer *http.Server
	snapshots  *store.Memory
	refresher  RefreshTrigger
	logger     *slog.Logger
}

// NewServer creates the HTTP server with all routes registered.
func NewServer(addr string, snapshots *store.Memory, ready ReadinessChecker, refresher RefreshTrigger, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		snapshots: snapshots,
		refresher: refresher,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/balloons", s.handleBalloons)
	mux.HandleFunc("GET /api/aircraft", s.handleAircraft)
	mux.HandleFunc("GET /api/proximity", s.handleProximity)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("POST /api/refresh", s.handleRefresh)

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

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// handleBalloons serves the capped balloon set from the last run. A hard
// failure (no records, at least one failed hour) becomes 502 with the
// per-hour diagnostics; an empty set with no failures is a valid empty
// response.
func (s *Server) handleBalloons(w http.ResponseWriter, _ *http.Request) {
	report, ok := s.snapshots.BalloonReport()
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no aggregation run has completed yet"})
		return
	}
	if report.HardFailure() {
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":   "balloon sources failed and no data could be retrieved",
			"details": report.Errors,
		})
		return
	}
	writeJSON(w, http.StatusOK, report.Balloons)
}

// handleAircraft serves the last tracked aircraft set. A failed fetch with
// nothing stored maps to a status mirroring the failure: the upstream status
// is passed through, a final-attempt timeout becomes 504, anything else 500.
func (s *Server) handleAircraft(w http.ResponseWriter, _ *http.Request) {
	aircraft, err := s.snapshots.Aircraft()
	if err != nil && len(aircraft) == 0 {
		writeJSON(w, aircraftFailureStatus(err), map[string]string{"error": err.Error()})
		return
	}
	if aircraft == nil {
		aircraft = []domain.AircraftRecord{}
	}
	writeJSON(w, http.StatusOK, aircraft)
}

func aircraftFailureStatus(err error) int {
	var se *domain.StatusError
	switch {
	case errors.As(err, &se):
		return se.Status
	case domain.IsTimeout(err):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// proximityResponse mirrors the nearest-aircraft result; both fields are
// null when no aircraft are available.
type proximityResponse struct {
	Nearest    *domain.AircraftRecord `json:"nearest"`
	DistanceKm *float64               `json:"distance_km"`
}

func (s *Server) handleProximity(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("balloon")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "balloon query parameter is required"})
		return
	}

	balloon, ok := s.snapshots.Balloon(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown balloon id"})
		return
	}

	aircraft, _ := s.snapshots.Aircraft()
	nearest, km := domain.NearestAircraft(&balloon, aircraft)

	resp := proximityResponse{}
	if nearest != nil {
		resp.Nearest = nearest
		resp.DistanceKm = &km
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshots.Status())
}

// handleRefresh starts a refresh cycle in the background. The 202 is backed
// by an atomic claim, so exactly one of any set of concurrent requests gets
// it; the rest see 409.
func (s *Server) handleRefresh(w http.ResponseWriter, _ *http.Request) {
	if err := s.refresher.Begin(context.Background()); err != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refresh started"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
