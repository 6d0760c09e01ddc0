package http

import (
	"context"
	"net/http"
	"time"

	"ledger/internal/middleware/ratelimit"
	"ledger/internal/middleware/security"
)

const pingTimeout = 2 * time.Second

var availableEndpoints = []string{
	"GET /",
	"GET /health",
	"GET " + entriesPrefix,
	"POST " + entriesPrefix,
	"GET " + entriesPrefix + "/summary",
	"GET " + entriesPrefix + "/monthly",
	"GET " + entriesPrefix + "/{id}",
	"PUT " + entriesPrefix + "/{id}",
	"DELETE " + entriesPrefix + "/{id}",
	"GET " + apiPrefix,
	"POST " + apiPrefix,
}

type rootResponse struct {
	Message   string            `json:"message"`
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Endpoints map[string]string `json:"endpoints"`
	Version   string            `json:"version"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Database  string    `json:"database"`
}

type readyResponse struct {
	Status    string                    `json:"status"`
	Database  string                    `json:"database"`
	RateLimit ratelimit.Metrics         `json:"rate_limit"`
	Security  security.DetectionMetrics `json:"security"`
	Requests  int64                     `json:"requests_total"`
}

type notFoundResponse struct {
	Error              string   `json:"error"`
	Message            string   `json:"message"`
	AvailableEndpoints []string `json:"availableEndpoints"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rootResponse{
		Message:   "Ledger Backend API",
		Status:    "Online",
		Timestamp: time.Now().UTC(),
		Endpoints: map[string]string{
			"health":       "/health",
			"transactions": entriesPrefix,
		},
		Version: apiVersion,
	})
}

func (s *Server) databaseStatus(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.ledger.Ping(ctx); err != nil {
		return "Disconnected"
	}
	return "Connected"
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "OK",
		Timestamp: time.Now().UTC(),
		Database:  s.databaseStatus(r.Context()),
	})
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	resp := readyResponse{
		Status:    "ready",
		Database:  s.databaseStatus(r.Context()),
		RateLimit: s.limiter.GetMetrics(),
		Security:  s.detector.GetMetrics(),
		Requests:  s.tracer.TotalRequests(),
	}
	status := http.StatusOK
	if resp.Database != "Connected" {
		resp.Status = "unavailable"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, notFoundResponse{
		Error:              "Route not found",
		Message:            "The requested endpoint does not exist",
		AvailableEndpoints: availableEndpoints,
	})
}

func handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{
		Error:   "Method not allowed",
		Message: r.Method + " is not supported for " + r.URL.Path,
	})
}
