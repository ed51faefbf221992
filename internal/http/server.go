// Package http serves the finance advisor UI: server-rendered pages backed
// by a session.Session, plus health endpoints.
package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"finadvisor/internal/log"
	"finadvisor/internal/middleware/ratelimit"
	"finadvisor/internal/middleware/security"
	"finadvisor/internal/middleware/trace"
	"finadvisor/internal/session"
	appweb "finadvisor/web"
)

// Config wires a Server.
type Config struct {
	Addr    string
	Session *session.Session
	// Ready reports backend readiness for /readyz; nil means always ready.
	Ready  func(ctx context.Context) error
	Logger *log.Logger
	// Clock supplies the default date of the add-transaction form.
	Clock func() time.Time
	// RequestsPerMinute limits POSTs per client; zero means 60.
	RequestsPerMinute int
}

type Server struct {
	http.Server
	templates *template.Template
	session   *session.Session
	ready     func(ctx context.Context) error
	logger    *log.Logger
	clock     func() time.Time

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Session == nil {
		return nil, fmt.Errorf("http server requires a session")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		templates: t,
		session:   cfg.Session,
		ready:     cfg.Ready,
		logger:    logger,
		clock:     cfg.Clock,
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RequestsPerMinute}),
		detector:  security.NewDetector(),
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.ready == nil {
		s.ready = func(context.Context) error { return nil }
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP)

	mux := http.NewServeMux()

	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(
		http.StripPrefix("/static/", http.FileServer(http.FS(static)))))

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /ui/status", s.handleStatus)
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /navigate", s.intent("navigate", s.navigate))
	mux.HandleFunc("POST /cancel", s.intent("cancel", s.cancel))
	mux.HandleFunc("POST /transactions", s.intent("add_transaction", s.addTransaction))
	mux.HandleFunc("POST /transactions/delete", s.intent("delete_transaction", s.deleteTransaction))
	mux.HandleFunc("POST /budgets", s.intent("update_budgets", s.updateBudgets))
	mux.HandleFunc("POST /categories", s.intent("add_custom_category", s.addCategory))
	mux.HandleFunc("POST /profile", s.intent("update_profile", s.updateProfile))
	mux.HandleFunc("POST /theme", s.intent("toggle_theme", s.toggleTheme))

	var handler http.Handler = mux
	handler = s.limiter.Middleware(s.detector.ExtractClientIP, http.MethodPost)(handler)
	handler = s.detector.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.tracer.Middleware(handler)
	handler = log.Middleware(logger)(handler)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Shutdown stops the limiter and gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Metrics returns the request counters collected by the middleware.
func (s *Server) Metrics() (trace.Metrics, ratelimit.Metrics, security.DetectionMetrics) {
	return s.tracer.GetMetrics(), s.limiter.GetMetrics(), s.detector.GetMetrics()
}
