package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/vbonduro/storagescout/internal/metrics"
	"github.com/vbonduro/storagescout/internal/service"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Config struct {
	// DefaultOwner is used when a request carries no X-User-ID header.
	DefaultOwner string
	// PublicBaseURL prefixes the /box/{id} link encoded in printed labels.
	PublicBaseURL string
	// ScanRateLimit caps scan and suggest requests per client per minute.
	ScanRateLimit int
	// ScanTimeout bounds a camera scan session.
	ScanTimeout time.Duration
}

type Server struct {
	inventory *service.InventoryService
	scanner   *service.Scanner
	metrics   *metrics.Metrics
	checks    map[string]HealthCheck
	cfg       Config
	router    *chi.Mux
	logger    *slog.Logger
}

func NewServer(
	inv *service.InventoryService,
	scanner *service.Scanner,
	m *metrics.Metrics,
	checks map[string]HealthCheck,
	cfg Config,
	logger *slog.Logger,
) *Server {
	if cfg.ScanRateLimit <= 0 {
		cfg.ScanRateLimit = 60
	}
	s := &Server{
		inventory: inv,
		scanner:   scanner,
		metrics:   m,
		checks:    checks,
		cfg:       cfg,
		router:    chi.NewRouter(),
		logger:    logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	r := s.router
	r.Use(middleware.Recoverer, s.metrics.Middleware)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.withOwner)

		r.Get("/items", s.handleListItems)
		r.Post("/items", s.handleCreateItem)
		r.Post("/items/batch-delete", s.handleBatchDelete)
		r.Patch("/items/{id}", s.handleUpdateItem)
		r.Delete("/items/{id}", s.handleDeleteItem)
		r.Post("/items/{id}/move", s.handleMoveItem)

		r.Get("/boxes", s.handleListBoxes)
		r.Post("/boxes", s.handleNewBox)
		r.Get("/boxes/{id}", s.handleGetBox)
		r.Put("/boxes/{id}/label", s.handleSetLabel)
		r.Get("/boxes/{id}/qr.png", s.handleBoxQR)

		r.Get("/export.csv", s.handleExportCSV)
		r.Get("/export.xlsx", s.handleExportXLSX)

		r.Group(func(r chi.Router) {
			r.Use(httprate.LimitByIP(s.cfg.ScanRateLimit, time.Minute))

			r.Post("/items/suggest", s.handleSuggest)
			r.Post("/scan/frame", s.handleScanFrame)
			r.Post("/scan/session", s.handleScanSession)
		})
	})
}

// securityHeaders sets browser hardening headers on every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'none'; img-src 'self' data:")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"owner", r.Header.Get(ownerHeader),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, securityHeaders(s.router)).ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.logger.Info("starting server", "addr", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := map[string]string{}
	for name, check := range s.checks {
		if err := check(r.Context()); err != nil {
			s.logger.Warn("health check failed", "check", name, "error", err)
			body[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		body[name] = "ok"
	}
	writeJSON(w, status, body, s.logger)
}
