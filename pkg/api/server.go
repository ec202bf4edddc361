// Package api is the HTTP shell around the interview engine: session
// lifecycle endpoints, model discovery, and health.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/RomiconEZ/Multi-Agent-Interview-Coach/pkg/cache"
	"github.com/RomiconEZ/Multi-Agent-Interview-Coach/pkg/config"
	"github.com/RomiconEZ/Multi-Agent-Interview-Coach/pkg/session"
	"github.com/RomiconEZ/Multi-Agent-Interview-Coach/pkg/version"
)

// ModelLister discovers the models the LM endpoint serves
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// Server is the API server
type Server struct {
	sessions   *session.Manager
	models     ModelLister
	modelCache *cache.ModelCache
	logger     *slog.Logger
	cfg        config.HTTPConfig
}

// NewServer creates the API server
func NewServer(sessions *session.Manager, models ModelLister, modelCache *cache.ModelCache, cfg config.HTTPConfig, logger *slog.Logger) *Server {
	return &Server{
		sessions:   sessions,
		models:     models,
		modelCache: modelCache,
		logger:     logger,
		cfg:        cfg,
	}
}

// Router builds the gin engine with all routes registered
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", s.Health)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/sessions", s.CreateSession)
		v1.GET("/sessions/:id", s.GetSession)
		v1.POST("/sessions/:id/messages", s.PostMessage)
		v1.POST("/sessions/:id/finish", s.FinishSession)
		v1.DELETE("/sessions/:id", s.DeleteSession)
		v1.GET("/models", ClientCache(s.cfg.ClientCacheMaxAge), s.ListModels)
	}
	return router
}

// HTTPServer wraps the router in an http.Server bound to the
// configured port.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Health returns the health status
func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"version":  version.Full(),
		"sessions": s.sessions.Count(),
	})
}
