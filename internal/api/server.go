// Package api exposes aggregates, route scoring and reloads over HTTP.
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/sells-group/saferoute/internal/crime"
	"github.com/sells-group/saferoute/internal/loader"
	"github.com/sells-group/saferoute/internal/region"
	"github.com/sells-group/saferoute/internal/route"
)

// Reloader rebuilds one period in the store.
type Reloader interface {
	Configured(period string) bool
	SyncPeriod(ctx context.Context, store *crime.Store, period string) (loader.PeriodResult, error)
}

// Analyzer produces a natural-language briefing for a prompt.
type Analyzer interface {
	Analyze(ctx context.Context, subject, prompt string) (string, error)
}

// Options configures the server's outer middleware.
type Options struct {
	AllowedOrigins []string
	// RateLimit is requests per minute per client IP. 0 disables limiting.
	RateLimit int
}

// Server wires the HTTP routes to the store, index and scorer.
type Server struct {
	index    *region.Index
	store    *crime.Store
	scorer   *route.Scorer
	reloader Reloader
	analyst  Analyzer
	metrics  *Metrics
	opts     Options

	// baseCtx outlives requests; reload jobs run on it.
	baseCtx context.Context

	reloadMu  sync.Mutex
	reloading map[string]bool
	jobsMu    sync.RWMutex
	jobs      map[string]*Job
	jobOrder  []string
	jobLimit  int
}

// NewServer creates a Server. reloader and analyst may be nil, which
// disables the reload and analysis endpoints.
func NewServer(ctx context.Context, index *region.Index, store *crime.Store, scorer *route.Scorer,
	reloader Reloader, analyst Analyzer, opts Options) *Server {
	return &Server{
		index:     index,
		store:     store,
		scorer:    scorer,
		reloader:  reloader,
		analyst:   analyst,
		metrics:   NewMetrics(),
		opts:      opts,
		baseCtx:   ctx,
		reloading: make(map[string]bool),
		jobs:      make(map[string]*Job),
		jobLimit:  maxJobs,
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins(),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(s.metrics.Middleware)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if s.opts.RateLimit > 0 {
			r.Use(httprate.Limit(s.opts.RateLimit, time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(s.handleRateLimited),
			))
		}

		r.Get("/periods", s.handlePeriods)
		r.Get("/regions", s.handleRegions)
		r.Get("/stats/{period}", s.handleStats)
		r.Get("/stats/{period}/{region}", s.handleRegionStats)
		r.Get("/types/{period}", s.handleTypes)
		r.Get("/incidents/{period}", s.handleIncidents)
		r.Get("/bounds/{period}", s.handleBounds)
		r.Get("/export/{period}", s.handleExport)
		r.Get("/route", s.handleRoute)

		r.Post("/reload/{period}", s.handleReload)
		r.Get("/jobs/{id}", s.handleJob)

		r.Post("/analyze/region/{period}/{region}", s.handleAnalyzeRegion)
		r.Post("/analyze/route", s.handleAnalyzeRoute)
	})

	return r
}

func (s *Server) allowedOrigins() []string {
	if len(s.opts.AllowedOrigins) == 0 {
		return []string{"*"}
	}
	return s.opts.AllowedOrigins
}

func (s *Server) handleRateLimited(w http.ResponseWriter, _ *http.Request) {
	s.metrics.rateLimited.Inc()
	respondError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests")
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"periods": len(s.store.Periods()),
		"regions": s.index.Len(),
	})
}
