// Package server exposes the layout pipeline over HTTP.
//
// # Routes
//
//	POST   /v1/layouts/tree            lay out a tree document
//	POST   /v1/layouts/acyclic         lay out a single-document acyclic graph
//	GET    /v1/layouts                 list stored layout ids (?limit=N)
//	GET    /v1/layouts/{id}            fetch a stored layout document
//	GET    /v1/layouts/{id}/{format}   render a stored layout (dot, svg, png)
//	DELETE /v1/layouts/{id}            remove a stored layout
//	GET    /healthz                    liveness
//	GET    /metrics                    Prometheus metrics (when configured)
//
// POST bodies are a [LayoutRequest]: pipeline options next to the input
// document. Every computed layout is saved to the configured [store.Store]
// under its content-derived id, so a layout can be fetched again without
// resubmitting its input.
//
// # Errors
//
// Failures are written as {"error": {"code": ..., "message": ...}} with a
// status derived from the error code. Input problems (malformed records,
// shape mismatches, dangling ids, cycles) are 422; bad options are 400;
// unknown layout ids are 404.
package server

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/gradlayer/pkg/observability"
	"github.com/matzehuels/gradlayer/pkg/pipeline"
	"github.com/matzehuels/gradlayer/pkg/store"
)

// DefaultBodyLimit caps request bodies.
const DefaultBodyLimit = 8 << 20

// Config holds the dependencies of a [Server].
type Config struct {
	Runner   *pipeline.Runner
	Store    store.Store
	Logger   *log.Logger
	Defaults pipeline.Options // Base options that request options override
	Metrics  http.Handler     // Served at /metrics; nil disables the route

	BodyLimit      int64
	RequestTimeout time.Duration
}

// Server handles layout requests.
type Server struct {
	runner   *pipeline.Runner
	store    store.Store
	logger   *log.Logger
	defaults pipeline.Options
	metrics  http.Handler

	bodyLimit int64
	timeout   time.Duration
}

// New creates a server. A nil Runner gets an uncached runner, a nil Store
// an in-memory store and a nil Logger the default logger.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Runner == nil {
		cfg.Runner = pipeline.NewRunner(nil, nil, cfg.Logger)
	}
	if cfg.Store == nil {
		cfg.Store = store.NewMemoryStore()
	}
	if cfg.BodyLimit <= 0 {
		cfg.BodyLimit = DefaultBodyLimit
	}
	return &Server{
		runner:    cfg.Runner,
		store:     cfg.Store,
		logger:    cfg.Logger,
		defaults:  cfg.Defaults,
		metrics:   cfg.Metrics,
		bodyLimit: cfg.BodyLimit,
		timeout:   cfg.RequestTimeout,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)
	if s.timeout > 0 {
		r.Use(middleware.Timeout(s.timeout))
	}

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/v1/layouts", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Post("/{variant:tree|acyclic}", s.handleCreate)
		r.Get("/{id}", s.handleGet)
		r.Get("/{id}/{format:dot|svg|png}", s.handleRender)
		r.Delete("/{id}", s.handleDelete)
	})
	return r
}

// instrument reports every request to the HTTP hooks and the logger. The
// route is only known once chi has matched it, so OnRequest sees the raw
// path and OnResponse the matched pattern.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		next.ServeHTTP(ww, r)

		route := routePattern(r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		hooks.OnResponse(r.Context(), r.Method, route, status, time.Since(start))
		s.logger.Debug("request",
			"method", r.Method,
			"route", route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"request_id", middleware.GetReqID(r.Context()),
			"duration", time.Since(start))
	})
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// Close releases the store and the runner's cache.
func (s *Server) Close() error {
	storeErr := s.store.Close()
	if err := s.runner.Close(); err != nil {
		return err
	}
	return storeErr
}
