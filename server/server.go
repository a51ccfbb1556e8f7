// Package server exposes summaries over HTTP for the surrounding app.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/spektr-org/agrolens/cache"
	"github.com/spektr-org/agrolens/catalog"
	"github.com/spektr-org/agrolens/engine"
	"github.com/spektr-org/agrolens/internal/config"
	"github.com/spektr-org/agrolens/narrative"
)

// Server serves one dataset.
type Server struct {
	cfg      config.ServerConfig
	data     engine.Dataset
	catalog  *catalog.Catalog
	logger   *zap.Logger
	cache    *cache.BundleCache
	narrator narrative.Narrator
	opts     []engine.Option
	registry *prometheus.Registry
	metrics  *Metrics
	router   chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithCache memoises bundles. The cache must not be shared with a
// different dataset or threshold set.
func WithCache(c *cache.BundleCache) Option {
	return func(s *Server) { s.cache = c }
}

// WithEngineOptions passes options to every pipeline run.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(s *Server) { s.opts = append(s.opts, opts...) }
}

// WithNarrator replaces the rule-based narrator.
func WithNarrator(n narrative.Narrator) Option {
	return func(s *Server) {
		if n != nil {
			s.narrator = n
		}
	}
}

// New builds the router. A nil logger is replaced with a no-op logger.
func New(cfg config.ServerConfig, data engine.Dataset, cat *catalog.Catalog, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	s := &Server{
		cfg:      cfg,
		data:     data,
		catalog:  cat,
		logger:   logger,
		narrator: narrative.FallbackNarrator{},
		registry: reg,
		metrics:  NewMetrics(reg),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.opts = append([]engine.Option{engine.WithLogger(logger)}, s.opts...)
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry}))

	r.Route("/v1", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/catalog", s.handleCatalog)
		r.Post("/summaries", s.handleSummary)
		r.Post("/comparisons", s.handleComparison)
		r.Get("/charts/trend.png", s.handleChartPNG)
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// requestLogger logs each request and records its metrics under the
// matched route pattern.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)

		s.metrics.ObserveRequest(route, strconv.Itoa(status), elapsed)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("duration", elapsed),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
