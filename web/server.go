package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ram-framework/ram"
)

//go:embed all:static
var staticFS embed.FS

// Config holds web server configuration.
type Config struct {
	// Addr is the listen address.
	// Default: ":8080"
	Addr string

	// Analyzer runs the analyses. Required.
	Analyzer *ram.Analyzer

	// Logger receives request failures and lifecycle events.
	// Nil uses slog.Default().
	Logger *slog.Logger

	// ReadTimeout bounds reading a request.
	// Default: 15 seconds
	ReadTimeout time.Duration

	// WriteTimeout bounds writing a response. An analysis response takes
	// the lifetime of a run, so the zero value leaves it disabled.
	WriteTimeout time.Duration

	// ShutdownTimeout is the maximum time to wait for in-flight requests
	// during graceful shutdown.
	// Default: 10 seconds
	ShutdownTimeout time.Duration
}

// Server exposes the analyzer over HTTP: a JSON API, a WebSocket stream
// with per-stage progress, and the embedded single-page UI.
type Server struct {
	engine          *gin.Engine
	analyzer        *ram.Analyzer
	logger          *slog.Logger
	httpServer      *http.Server
	shutdownTimeout time.Duration
}

// New creates a web server around an analyzer.
func New(cfg Config) (*Server, error) {
	if cfg.Analyzer == nil {
		return nil, errors.New("web: analyzer is required")
	}

	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 15 * time.Second
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	// Disable automatic redirects that cause 301 issues.
	engine.RedirectTrailingSlash = false
	engine.RedirectFixedPath = false

	s := &Server{
		engine:   engine,
		analyzer: cfg.Analyzer,
		logger:   cfg.Logger,
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      engine,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		shutdownTimeout: cfg.ShutdownTimeout,
	}

	s.setupRoutes()
	return s, nil
}

// serveEmbedded reads a file from the embedded FS and writes it with the given content type.
func serveEmbedded(static fs.FS, name string, contentType string) gin.HandlerFunc {
	// Pre-read the file at startup so we don't read on every request.
	data, err := fs.ReadFile(static, name)
	return func(c *gin.Context) {
		if err != nil {
			c.String(http.StatusNotFound, "file not found: %s", name)
			return
		}
		c.Data(http.StatusOK, contentType, data)
	}
}

func (s *Server) setupRoutes() {
	// Extract the embedded static/ content.
	static, _ := fs.Sub(staticFS, "static")

	// Single-page UI served from the embedded filesystem.
	s.engine.GET("/", serveEmbedded(static, "index.html", "text/html; charset=utf-8"))
	s.engine.GET("/style.css", serveEmbedded(static, "style.css", "text/css; charset=utf-8"))
	s.engine.GET("/app.js", serveEmbedded(static, "app.js", "application/javascript; charset=utf-8"))

	// Health check.
	s.engine.GET("/healthz", s.handleHealth)

	// JSON API.
	api := s.engine.Group("/api")
	api.GET("/models", s.handleModels)
	api.GET("/examples", s.handleExamples)
	api.POST("/analyze", s.handleAnalyze)

	// WebSocket with per-stage progress.
	s.engine.GET("/ws/analyze", s.handleAnalyzeWS)
}

// Handler returns the underlying HTTP handler. This allows callers to mount
// the server in their own listener or an httptest server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Serve starts the HTTP server and blocks until the context is canceled or
// the listener fails. Cancellation triggers a graceful shutdown bounded by
// the configured shutdown timeout; a clean shutdown returns nil.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("http server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown()
	case err := <-errCh:
		return err
	}
}

// Shutdown drains in-flight requests within the shutdown timeout, then
// forces the listener closed.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	s.logger.Info("http server shutting down", "timeout", s.shutdownTimeout)
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.httpServer.Close()
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
