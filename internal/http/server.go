// Package http serves the dashboard pages and the JSON dashboard API.
package http

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"saldo/internal/core"
	"saldo/internal/format"
	applog "saldo/internal/log"
	"saldo/internal/middleware/ratelimit"
	"saldo/internal/middleware/security"
	"saldo/internal/middleware/trace"
	"saldo/internal/services"
	appweb "saldo/web"
)

const (
	readHeaderTimeout = 5 * time.Second
	writeTimeout      = 15 * time.Second
	idleTimeout       = 60 * time.Second
	shutdownTimeout   = 10 * time.Second
	requestTimeout    = 10 * time.Second
	limiterSweep      = 5 * time.Minute
	staticMaxAge      = 3600
)

// DashboardProvider computes an account dashboard.
type DashboardProvider interface {
	Dashboard(ctx context.Context, q services.Query) (core.Dashboard, error)
}

// Options configures the server. Zero values fall back to defaults where
// one exists.
type Options struct {
	Dashboards        DashboardProvider
	Formatter         format.Formatter
	DefaultAccount    string
	ListingLimit      int
	LoginURL          string
	RegisterURL       string
	RequestsPerMinute int
	// Ready reports whether backing services are reachable. Nil means
	// always ready.
	Ready func(ctx context.Context) error
}

type Server struct {
	http.Server
	opts      Options
	templates *template.Template
	limiter   *ratelimit.Limiter
	tracer    *trace.Middleware
	now       func() time.Time
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, opts Options) (*Server, error) {
	if opts.Dashboards == nil {
		return nil, errors.New("dashboard provider is required")
	}
	if opts.Formatter.DateLayout == "" {
		opts.Formatter = format.Default()
	}
	if opts.DefaultAccount == "" {
		opts.DefaultAccount = "default"
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}

	detector := security.NewDetector()
	s := &Server{
		opts:      opts,
		templates: t,
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RequestsPerMinute}),
		tracer:    trace.NewMiddleware(detector.ExtractClientIP),
		now:       time.Now,
	}

	r := chi.NewRouter()
	r.Use(s.tracer.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(security.Headers(security.DefaultHeadersConfig()))

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	r.With(security.StaticAssets(staticMaxAge)).
		Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.Group(func(r chi.Router) {
		r.Use(detector.Middleware)
		r.Use(s.limiter.Middleware(detector.ExtractClientIP))
		r.Use(middleware.Timeout(requestTimeout))

		r.Get("/", s.handleIndex)
		r.Get("/login", s.handleAuthRedirect("Entrar", func() string { return s.opts.LoginURL }))
		r.Get("/register", s.handleAuthRedirect("Criar conta", func() string { return s.opts.RegisterURL }))
		r.Get("/dashboard", s.handleDashboard)
		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/dashboard", s.handleAPIDashboard)
		})
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
	return s, nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go s.limiter.Run(sweepCtx, limiterSweep)

	errCh := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "HTTP server listening", "addr", s.Addr)
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	slog.InfoContext(ctx, "Shutting down HTTP server")
	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown HTTP server: %w", err)
	}
	return <-errCh
}

// Metrics exposes request counters for diagnostics.
func (s *Server) Metrics() trace.Metrics {
	return s.tracer.GetMetrics()
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.opts.Ready != nil {
		if err := s.opts.Ready(r.Context()); err != nil {
			slog.WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
