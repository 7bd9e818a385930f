package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/netutil"

	"github.com/ppiankov/gbdrill/internal/cache"
	"github.com/ppiankov/gbdrill/internal/metrics"
	"github.com/ppiankov/gbdrill/internal/model"
	"github.com/ppiankov/gbdrill/internal/query"
	"github.com/ppiankov/gbdrill/internal/worker"
)

const shutdownTimeout = 10 * time.Second

// Server exposes the query service over HTTP
type Server struct {
	svc      *query.Service
	cache    cache.Cache
	cacheTTL time.Duration
	limiter  *worker.Limiter
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// Option configures a Server
type Option func(*Server)

// WithCache caches successful responses for ttl
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(s *Server) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

// WithLimiter rejects clients that exceed their request rate
func WithLimiter(l *worker.Limiter) Option {
	return func(s *Server) { s.limiter = l }
}

// WithMetrics records request metrics and serves gatherer on /metrics
func WithMetrics(m *metrics.Metrics, gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = gatherer
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// New creates a server for svc
func New(svc *query.Service, opts ...Option) *Server {
	s := &Server{
		svc:    svc,
		cache:  cache.Nop{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the HTTP handler
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observeRequests)
	r.Use(s.rateLimit)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []byte(`{"status":"ok"}`))
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/diseases", s.handle(s.diseases))
		r.Get("/locations", s.handle(s.locations))
		r.Get("/years", s.handle(s.years))
		r.Get("/disease_children", s.handle(s.diseaseChildren))
		r.Get("/disease_details", s.handle(s.diseaseDetails))
		r.Get("/hierarchical-disease-data", s.handle(s.hierarchicalData))
		r.Get("/country-history", s.handle(s.countryHistory))
		r.Get("/all-countries-rates", s.handle(s.allCountriesRates))
		r.Get("/all-years-data", s.handle(s.allYearsData))
		r.Get("/disease-rates-by-level1", s.handle(s.ratesByLevel1))
	})

	return r
}

// handlerFunc computes a JSON-encodable response
type handlerFunc func(r *http.Request) (any, error)

// handle serves fn through the response cache and maps errors to status codes
func (s *Server) handle(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := cache.Key(r.URL.Path, r.URL.Query())
		if body, ok := s.cache.Get(key); ok {
			if s.metrics != nil {
				s.metrics.CacheHits.Inc()
			}
			w.Header().Set("X-Cache", "HIT")
			writeJSON(w, http.StatusOK, body)
			return
		}
		if s.metrics != nil {
			s.metrics.CacheMisses.Inc()
		}

		resp, err := fn(r)
		if err != nil {
			status, body := classify(err)
			if status == http.StatusInternalServerError {
				s.logger.ErrorContext(r.Context(), "request failed",
					"request_id", middleware.GetReqID(r.Context()),
					"path", r.URL.Path,
					"error", err,
				)
			}
			writeError(w, status, body)
			return
		}

		body, err := json.Marshal(resp)
		if err != nil {
			s.logger.ErrorContext(r.Context(), "encode response", "path", r.URL.Path, "error", err)
			writeError(w, http.StatusInternalServerError, errorResponse{Error: "internal_error"})
			return
		}

		if err := s.cache.Set(key, body, s.cacheTTL); err != nil {
			s.logger.Warn("cache response", "path", r.URL.Path, "error", err)
		}
		w.Header().Set("X-Cache", "MISS")
		writeJSON(w, http.StatusOK, body)
	}
}

// rateLimit rejects clients that exceed their per-client budget
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow(clientKey(r)) {
			if s.metrics != nil {
				s.metrics.RateLimited.Inc()
			}
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, errorResponse{
				Error:       "rate_limited",
				Description: "too many requests",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// observeRequests counts requests by route pattern and status
func (s *Server) observeRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		if s.metrics != nil {
			s.metrics.HTTPRequests.WithLabelValues(route, fmt.Sprint(ww.Status())).Inc()
		}
		s.logger.Debug("request",
			"request_id", middleware.GetReqID(r.Context()),
			"route", route,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, cfg model.ServerConfig) error {
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Addr, err)
	}
	if cfg.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, cfg.MaxConnections)
	}

	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	s.logger.Info("listening", "addr", ln.Addr().String(), "max_connections", cfg.MaxConnections)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}
