// Package web serves the analyzer as an HTML form and a small JSON API.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/KaramelBytes/equity-cli/internal/analyzer"
)

// DefaultTitle heads the form page.
const DefaultTitle = "Education Equity Analyzer"

const shutdownTimeout = 5 * time.Second

// Options configures a Server.
type Options struct {
	// Analyzer is nil when the dataset could not be loaded; the server then
	// answers every analysis with "Error: Data not loaded."
	Analyzer *analyzer.Analyzer
	// ChartDir is served under /static/.
	ChartDir string
	Title    string
	Logger   *zap.Logger
}

// Server is the gin application.
type Server struct {
	an       *analyzer.Analyzer
	chartDir string
	title    string
	log      *zap.Logger
	engine   *gin.Engine
}

// New builds the router. It does not start listening.
func New(opt Options) *Server {
	s := &Server{an: opt.Analyzer, chartDir: opt.ChartDir, title: opt.Title, log: opt.Logger}
	if s.title == "" {
		s.title = DefaultTitle
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	r := gin.New()
	r.Use(requestLogger(s.log), gin.Recovery())
	r.SetHTMLTemplate(pageTemplate)
	s.engine = r
	s.registerPageRoutes(r)
	s.registerAPIRoutes(r)
	if s.chartDir != "" {
		r.Static("/static", s.chartDir)
	}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Info("shutting down")
	if err := srv.Shutdown(shutCtx); err != nil {
		return err
	}
	return <-errCh
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
