// Package server is the web front end: a page per dashboard with a tab strip
// and a content region, and the JSON endpoints the page's script calls to
// render tabs, decide on its refresh timer and drive dropdowns.
package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/smileynet/quickdash/internal/dashboard"
)

const (
	htmlContentType = "text/html; charset=utf-8"
	pageTemplate    = "page.html.tmpl"
	indexTemplate   = "index.html.tmpl"
)

// Server serves a catalog of dashboards over HTTP.
type Server struct {
	catalog *dashboard.Catalog
	logger  *zap.Logger
	page    *template.Template
	index   *template.Template
	engine  *gin.Engine
}

// New builds a Server. web holds the page templates and static assets.
func New(catalog *dashboard.Catalog, web fs.FS, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	page, err := template.ParseFS(web, pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("server: parsing %s: %w", pageTemplate, err)
	}
	index, err := template.ParseFS(web, indexTemplate)
	if err != nil {
		return nil, fmt.Errorf("server: parsing %s: %w", indexTemplate, err)
	}

	s := &Server{
		catalog: catalog,
		logger:  logger,
		page:    page,
		index:   index,
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(logger))
	engine.StaticFS("/static", http.FS(web))
	engine.GET("/", s.renderIndex)
	engine.GET("/healthz", s.health)

	d := engine.Group("/d/:slug", s.resolveDashboard)
	d.GET("", s.renderPage)
	d.POST("/render", s.renderTab)
	d.GET("/timer", s.timer)
	d.GET("/tabs/:tab/options", s.options)
	d.GET("/tabs/:tab/filter", s.filter)

	s.engine = engine
	return s, nil
}

// Handler returns the HTTP handler for the server's routes.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down,
// giving in-flight requests up to shutdownTimeout to finish.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln, shutdownTimeout)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.logger.Info("serving dashboards",
		zap.String("addr", ln.Addr().String()),
		zap.Int("dashboards", s.catalog.Len()))

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// requestLogger logs one line per request.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			logger.Error("request", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("request", fields...)
		default:
			logger.Debug("request", fields...)
		}
	}
}
