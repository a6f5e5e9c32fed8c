// Package server exposes the library and the auto-load setting over a
// small JSON API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/brogergvhs/endless/internal/library"
	"github.com/brogergvhs/endless/internal/prefs"
	"github.com/brogergvhs/endless/internal/store"
	"github.com/brogergvhs/endless/internal/ui"
)

const shutdownTimeout = 10 * time.Second

type Options struct {
	Library *library.Library
	Store   *store.Store
	Prefs   *prefs.Prefs
	Log     *ui.Logger
	Debug   bool
}

type Server struct {
	opts   Options
	router *gin.Engine
}

func New(o Options) *Server {
	if !o.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(o.Log))

	s := &Server{opts: o, router: r}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	NewNovelHandler(o.Library, o.Store).RegisterRoutes(api)
	NewSettingsHandler(o.Prefs).RegisterRoutes(api)

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func requestLogger(log *ui.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debugf("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Round(time.Microsecond))
	}
}

// Run serves on addr until ctx ends, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.opts.Log.Infof("library API listening on http://%s", addr)
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

	s.opts.Log.Infof("shutting down library API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
