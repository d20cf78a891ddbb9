// Package api serves the store over HTTP as JSON.
package api

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rogersnm/errand/internal/model"
	"github.com/rogersnm/errand/internal/store"
)

// Writer receives every record the API changes. persist.Syncer satisfies it.
type Writer interface {
	Put(rec model.Record)
	Delete(kind model.Kind, id string)
}

type nopWriter struct{}

func (nopWriter) Put(model.Record)          {}
func (nopWriter) Delete(model.Kind, string) {}

// Server owns the only path into the store while it runs. The store takes no
// locks, so every handler holds mu for the whole read or write.
type Server struct {
	mu     sync.Mutex
	store  *store.Store
	writer Writer
	now    func() time.Time
	log    *slog.Logger
	router *gin.Engine
}

type Option func(*Server)

func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.log = l }
}

func NewServer(st *store.Store, w Writer, opts ...Option) *Server {
	if w == nil {
		w = nopWriter{}
	}
	s := &Server{
		store:  st,
		writer: w,
		now:    time.Now,
		log:    slog.New(slog.DiscardHandler),
		router: gin.New(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.router.Use(gin.Recovery(), s.logRequests())

	api := s.router.Group("/api")
	{
		api.GET("/version", s.handleVersion)
		api.GET("/views/:name", s.handleView)
		api.GET("/search", s.handleSearch)
		api.GET("/projects", s.handleProjects)
		api.GET("/projects/:id/tasks", s.handleProjectTasks)
		api.GET("/sections/:id/tasks", s.handleSectionTasks)
		api.GET("/labels", s.handleLabels)
		api.GET("/tasks/:id", s.handleTask)
		api.POST("/tasks", s.handleCreateTask)
		api.PUT("/tasks/:id", s.handleUpdateTask)
		api.POST("/tasks/:id/close", s.handleSetChecked(true))
		api.POST("/tasks/:id/reopen", s.handleSetChecked(false))
		api.DELETE("/tasks/:id", s.handleDeleteTask)
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"took", time.Since(start))
	}
}
