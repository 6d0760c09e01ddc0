package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/metrics"
	"ledger/internal/middleware/ratelimit"
	"ledger/internal/middleware/security"
	"ledger/internal/middleware/trace"
)

const (
	entriesPrefix = "/entries"
	apiPrefix     = "/api/accounting-entries"
	apiVersion    = "1.0.0"

	requestTimeout = 30 * time.Second
)

// Ledger is the application surface the handlers depend on.
type Ledger interface {
	Create(ctx context.Context, raw core.Record) (core.Transaction, error)
	Get(ctx context.Context, id int64) (core.Transaction, error)
	List(ctx context.Context, r core.DateRange) ([]core.Transaction, error)
	Update(ctx context.Context, id int64, raw core.Record) (core.Transaction, error)
	Delete(ctx context.Context, id int64) error
	MonthlyTotals(ctx context.Context, year int) ([]core.MonthlyTotals, error)
	Summary(ctx context.Context, f core.PeriodFilter) (core.Summary, error)
	Ping(ctx context.Context) error
}

// Config describes the HTTP surface.
type Config struct {
	Addr               string
	Development        bool
	AllowedOrigins     []string
	RateLimitPerMinute int

	Logger         *log.Logger
	Metrics        metrics.Collector
	MetricsHandler http.Handler
}

type Server struct {
	http.Server
	config   Config
	ledger   Ledger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer wires middleware and routes, returning a ready-to-run http.Server.
func NewServer(config Config, ledger Ledger) *Server {
	if config.Logger == nil {
		config.Logger = log.New(log.Config{Handler: slog.Default().Handler(), Component: log.ComponentHTTP})
	}
	if config.Metrics == nil {
		config.Metrics = metrics.NoOpCollector{}
	}

	s := &Server{
		config:   config,
		ledger:   ledger,
		detector: security.NewDetector(),
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: config.RateLimitPerMinute,
		}),
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, config.Metrics)

	s.Server = http.Server{
		Addr:              config.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      requestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(log.Middleware(s.config.Logger.WithComponent(log.ComponentHTTP)))
	r.Use(trace.RequestID)
	r.Use(log.RequestIDMiddleware(trace.RequestIDFromRequest))
	r.Use(s.tracer.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware)
	r.Use(s.recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", trace.HeaderRequestID},
		ExposedHeaders:   []string{trace.HeaderRequestID, "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Get("/healthz", handleHealthz)
	r.Get("/readyz", s.handleReady)
	if s.config.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", s.config.MetricsHandler)
	}

	r.Route(entriesPrefix, s.mountEntries)
	r.Route(apiPrefix, s.mountEntries)

	r.NotFound(handleNotFound)
	r.MethodNotAllowed(handleMethodNotAllowed)
	return r
}

func (s *Server) mountEntries(r chi.Router) {
	writes := r.With(s.limiter.Middleware(s.detector.ExtractClientIP, s.rateLimited))

	r.Get("/", s.handleList)
	r.Get("/summary", s.handleSummary)
	r.Get("/monthly", s.handleMonthly)
	r.Get("/{id}", s.handleGet)

	writes.Post("/", s.handleCreate)
	writes.Put("/{id}", s.handleUpdate)
	writes.Delete("/{id}", s.handleDelete)
}

func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(),
		"Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	writeJSON(w, http.StatusTooManyRequests, errorResponse{
		Error:   "Too many requests",
		Message: "Rate limit exceeded. Please try again later.",
	})
}

// Shutdown stops background routines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
