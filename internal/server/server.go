package server

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/gennetta/gennetta/internal/config"
	"github.com/gennetta/gennetta/internal/connector"
	"github.com/gennetta/gennetta/internal/handler"
	"github.com/gennetta/gennetta/internal/server/middleware"
	"github.com/gennetta/gennetta/internal/service"
	"github.com/gennetta/gennetta/internal/ui"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	CORSMethods     []string
	EnableUI        bool
	MaxBodySize     int64 // bytes

	// RateLimit caps schema analyses per client IP per RateWindow.
	RateLimit  int
	RateWindow time.Duration

	DefaultDriver  string
	DefaultProject string
	Version        string
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8080,
		ShutdownTimeout: 30 * time.Second,
		CORSOrigins:     []string{"*"},
		CORSMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		EnableUI:        true,
		MaxBodySize:     10 * 1024 * 1024, // 10MB
		RateLimit:       30,
		RateWindow:      time.Minute,
		DefaultDriver:   "mssql",
		DefaultProject:  "GeneratedApp",
		Version:         "dev",
	}
}

// Server is the top-level HTTP server. It owns the Chi router, the provider
// registry, the session store and the authentication service.
type Server struct {
	cfg        Config
	router     chi.Router
	registry   *connector.Registry
	store      *config.Store
	authSvc    *service.AuthService
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a new Server, wires up all routes and middleware, and returns
// it ready to listen. Call ListenAndServe to start accepting connections.
func New(cfg Config, registry *connector.Registry, store *config.Store, authSvc *service.AuthService, logger *slog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		registry: registry,
		store:    store,
		authSvc:  authSvc,
		logger:   logger,
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: append(append([]string{}, s.cfg.CORSMethods...), "OPTIONS"),
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(chimw.Compress(5))
	if s.cfg.MaxBodySize > 0 {
		r.Use(chimw.RequestSize(s.cfg.MaxBodySize))
	}

	r.Get("/healthz", s.handleHealthz)

	schemaHandler := handler.NewSchemaHandler(s.registry, s.cfg.DefaultDriver)
	generateHandler := handler.NewGenerateHandler(s.cfg.DefaultProject)
	sessionHandler := handler.NewSessionHandler(s.store, s.registry, s.cfg.DefaultDriver, s.cfg.DefaultProject)
	systemHandler := handler.NewSystemHandler(s.registry, s.cfg.Version, s.cfg.DefaultDriver, s.authSvc.Enabled())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(s.authSvc))

		// Analysis opens outbound database connections, so it is throttled.
		r.With(middleware.RateLimit(s.cfg.RateLimit, s.cfg.RateWindow)).
			Post("/schema/analyze", schemaHandler.Analyze)
		r.Post("/generate", generateHandler.Generate)

		r.Get("/drivers", systemHandler.ListDrivers)
		r.Get("/system/info", systemHandler.Info)

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", sessionHandler.List)
			r.Post("/", sessionHandler.Create)
			r.Get("/{sessionId}", sessionHandler.Get)
			r.Delete("/{sessionId}", sessionHandler.Delete)
			r.With(middleware.RateLimit(s.cfg.RateLimit, s.cfg.RateWindow)).
				Post("/{sessionId}/connect", sessionHandler.Connect)
			r.Put("/{sessionId}/selection", sessionHandler.UpdateSelection)
			r.Post("/{sessionId}/generate", sessionHandler.Generate)
			r.Post("/{sessionId}/reset", sessionHandler.Reset)
		})
	})

	if s.cfg.EnableUI {
		s.mountUI(r)
	}

	s.router = r
}

// mountUI serves the embedded wizard page at the root.
func (s *Server) mountUI(r chi.Router) {
	distFS, err := fs.Sub(ui.Dist, "dist")
	if err != nil {
		s.logger.Error("failed to create sub filesystem for UI", "error", err)
		return
	}
	fileServer := http.FileServer(http.FS(distFS))
	r.Handle("/assets/*", fileServer)

	page := func(w http.ResponseWriter, r *http.Request) {
		f, err := distFS.Open("index.html")
		if err != nil {
			http.Error(w, "UI not available", http.StatusNotFound)
			return
		}
		defer f.Close()
		stat, _ := f.Stat()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		http.ServeContent(w, r, "index.html", stat.ModTime(), f.(io.ReadSeeker))
	}
	r.Get("/", page)
	r.Get("/wizard", page)
	r.Get("/wizard/*", page)
}

// handleHealthz is a liveness probe. Returns 200 if the process is running.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// ListenAndServe starts the HTTP server and blocks until a SIGINT or SIGTERM
// is received. It then drains in-flight requests and closes the store.
func (s *Server) ListenAndServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run serves until ctx is cancelled, then shuts down gracefully within the
// configured timeout.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr, "auth", s.authSvc.Enabled())
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn("close session store", "error", err)
		}
	}
	s.logger.Info("server stopped")
	return nil
}

// Router returns the underlying Chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
