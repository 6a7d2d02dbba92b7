package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/gradeboard/internal/api/auth"
	"github.com/jon4hz/gradeboard/internal/api/handler"
	"github.com/jon4hz/gradeboard/internal/cache"
	"github.com/jon4hz/gradeboard/internal/config"
	"github.com/jon4hz/gradeboard/internal/database"
	"github.com/jon4hz/gradeboard/internal/scheduler"
	"github.com/jon4hz/gradeboard/internal/session"
)

const shutdownTimeout = 10 * time.Second

// Server is the dashboard HTTP server.
type Server struct {
	cfg       *config.Config
	ginEngine *gin.Engine
	handler   *handler.Handler
}

// New creates the server and registers all routes. The scheduler may be nil.
func New(cfg *config.Config, registry *session.Registry, db database.DB, sessionCache *cache.SessionCache, sched *scheduler.Scheduler) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if registry == nil || db == nil || sessionCache == nil {
		return nil, fmt.Errorf("registry, database and session cache are required")
	}

	s := &Server{
		cfg:       cfg,
		ginEngine: gin.New(),
		handler:   handler.New(registry, db, sessionCache, sched, cfg.MaxUploadSize),
	}
	s.ginEngine.Use(gin.Recovery(), requestLogger(), gzip.Gzip(gzip.DefaultCompression))
	s.setupSession()
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupSession() {
	store := cookie.NewStore([]byte(s.cfg.SessionKey))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   s.cfg.SessionMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	s.ginEngine.Use(sessions.Sessions(auth.SessionCookieName, store))
}

func (s *Server) setupRoutes() {
	h := s.handler

	s.ginEngine.GET("/healthz", h.Health)

	api := s.ginEngine.Group("/api")

	browser := api.Group("")
	browser.Use(auth.RequireSession())
	browser.GET("/state", h.State)
	browser.GET("/grades", h.Grades)
	browser.GET("/users", h.Users)
	browser.PUT("/selection/user", h.SelectUser)
	browser.PUT("/selection/grade", h.SelectGrade)
	browser.POST("/import", h.Import)
	browser.DELETE("/session", h.DeleteSession)

	collaborator := api.Group("/sessions/:id")
	collaborator.Use(auth.RequireAPIKey(s.cfg.APIKey))
	collaborator.PUT("/loading", h.SetLoading)
	collaborator.PUT("/users", h.SetUsers)
	collaborator.PUT("/error", h.SetError)

	admin := api.Group("/admin")
	admin.Use(auth.RequireAPIKey(s.cfg.APIKey))
	admin.GET("/imports", h.ImportHistory)
	admin.GET("/cache", h.CacheStats)
	admin.DELETE("/cache", h.ClearCache)
	admin.GET("/jobs", h.Jobs)
	admin.POST("/jobs/:id/run", h.RunJob)
}

// Handler returns the http.Handler serving all routes.
func (s *Server) Handler() http.Handler {
	return s.ginEngine
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.ginEngine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting server", "listen", s.cfg.Listen)
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

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// requestLogger logs every request at debug level.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("Request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
