// Package server exposes the next-task lookup over HTTP.
package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sadopc/pomotask/internal/config"
	"github.com/sadopc/pomotask/internal/tasks"
)

// lookupTimeout bounds a single upstream query.
const lookupTimeout = 15 * time.Second

// NextFinder returns the next task, or nil when nothing is scheduled.
type NextFinder interface {
	Next(ctx context.Context) (*tasks.Candidate, error)
}

type Server struct {
	cfg    config.Service
	finder NextFinder
	router *gin.Engine
	server *http.Server
}

func New(cfg config.Service, finder NextFinder) *Server {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), cors(cfg.CORSOrigin))

	s := &Server{
		cfg:    cfg,
		finder: finder,
		router: router,
	}
	s.server = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	router.GET("/health", s.handleHealth)
	router.GET("/tasks/next", s.handleNext)
	router.GET("/debug/config", s.handleDebugConfig)

	return s
}

// Handler returns the routes for use with httptest or a custom listener.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on the configured address until Shutdown is called. After
// Shutdown it returns http.ErrServerClosed without listening.
func (s *Server) Start() error {
	log.Printf("Task lookup listening on %s", s.cfg.Addr())
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleNext(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), lookupTimeout)
	defer cancel()

	next, err := s.finder.Next(ctx)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, tasks.NextResponse{Next: next})
}

func (s *Server) handleDebugConfig(c *gin.Context) {
	source := "file"
	if s.cfg.UseNotion() {
		source = "notion"
	}
	c.JSON(http.StatusOK, gin.H{
		"config": s.cfg.Redacted(),
		"source": source,
	})
}

// cors allows the configured origin and answers preflight requests.
func cors(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		if origin != "*" {
			h.Add("Vary", "Origin")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
