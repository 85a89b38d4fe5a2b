// Package api serves DungeonForge over HTTP.
//
// Routes:
//
//	POST   /v1/validate           validate a node graph
//	POST   /v1/generate           run a generator once
//	GET    /v1/simulations        list simulation jobs
//	POST   /v1/simulations        start a simulation, 202 with the job
//	GET    /v1/simulations/{id}   job status, progress and results
//	DELETE /v1/simulations/{id}   cancel a running job or delete a finished one
//	GET    /healthz               liveness
//	GET    /metrics               Prometheus metrics
//
// Errors are JSON objects of the form {"error": {"code", "message"}} with
// the HTTP status derived from the error code.
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/dungeonforge/pkg/observability"
	"github.com/matzehuels/dungeonforge/pkg/pipeline"
	"github.com/matzehuels/dungeonforge/pkg/store"
)

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 8 << 20

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	runner  *pipeline.Runner
	store   store.Store
	logger  *log.Logger
	metrics http.Handler
	jobTTL  time.Duration

	// ctx outlives requests; simulations run under it until Shutdown.
	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	jobs map[string]*job
	wg   sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetricsHandler replaces the /metrics handler, which defaults to the
// Prometheus default gatherer.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithJobTTL sets how long simulation jobs are kept.
func WithJobTTL(ttl time.Duration) Option {
	return func(s *Server) { s.jobTTL = ttl }
}

// New creates a server. A nil store keeps jobs in memory.
func New(runner *pipeline.Runner, st store.Store, opts ...Option) *Server {
	if st == nil {
		st = store.NewMemoryStore()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		runner:  runner,
		store:   st,
		logger:  log.Default(),
		metrics: promhttp.Handler(),
		jobTTL:  store.DefaultTTL,
		ctx:     ctx,
		cancel:  cancel,
		jobs:    make(map[string]*job),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", s.health)
	r.Method(http.MethodGet, "/metrics", s.metrics)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/validate", s.validate)
		r.Post("/generate", s.generate)
		r.Route("/simulations", func(r chi.Router) {
			r.Get("/", s.listSimulations)
			r.Post("/", s.createSimulation)
			r.Get("/{id}", s.getSimulation)
			r.Delete("/{id}", s.deleteSimulation)
		})
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully, cancelling running simulations.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return s.Shutdown(shutdownCtx)
}

// Shutdown cancels running simulations and waits for their final state to
// be stored.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		observability.HTTP().OnResponse(r.Context(), r.Method, route, status, elapsed)
		s.logger.Debug("request",
			"method", r.Method,
			"route", route,
			"status", status,
			"duration", elapsed,
			"requestId", middleware.GetReqID(r.Context()))
	})
}
