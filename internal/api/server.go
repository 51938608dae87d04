// Package api serves the pipeline triggers, the feed and the live event stream over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/selivandex/spectrum-feed/internal/adapters/config"
	"github.com/selivandex/spectrum-feed/internal/feed"
	"github.com/selivandex/spectrum-feed/internal/ingest"
	"github.com/selivandex/spectrum-feed/internal/pipeline"
	"github.com/selivandex/spectrum-feed/internal/synthesis"
	"github.com/selivandex/spectrum-feed/pkg/logger"
)

// Pipeline runs the stages behind the trigger routes
type Pipeline interface {
	Ingest(ctx context.Context, trigger pipeline.Trigger) (*ingest.Result, error)
	Posts(ctx context.Context, trigger pipeline.Trigger) (*synthesis.PostResult, error)
	Comments(ctx context.Context, trigger pipeline.Trigger) (*synthesis.CommentResult, error)
}

// Feed serves paginated reads
type Feed interface {
	Posts(ctx context.Context, q feed.PostsQuery) (*feed.Page[feed.PostItem], error)
	Activities(ctx context.Context, page, limit int) (*feed.Page[feed.ActivityItem], error)
}

// Server is the public HTTP API
type Server struct {
	engine   *gin.Engine
	server   *http.Server
	pipeline Pipeline
	feed     Feed
	hub      *Hub
}

// NewServer creates API server. hub may be nil to disable the live feed.
func NewServer(cfg config.ServerConfig, p Pipeline, f Feed, hub *Hub) *Server {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	engine := gin.New()
	engine.Use(recovery(), requestLogger())

	s := &Server{
		engine:   engine,
		pipeline: p,
		feed:     f,
		hub:      hub,
		server: &http.Server{
			Addr:         cfg.Addr,
			Handler:      engine,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}
	s.routes(cfg.TriggerKey)

	return s
}

func (s *Server) routes(triggerKey string) {
	s.engine.GET("/", s.handleIndex)

	api := s.engine.Group("/api")
	{
		triggers := api.Group("", requireKey(triggerKey))
		triggers.GET("/news", s.handleNews)
		triggers.GET("/ai", s.handleAI)
		triggers.GET("/comments", s.handleComments)

		api.GET("/posts", s.handlePosts)
		api.GET("/activities", s.handleActivities)
	}

	if s.hub != nil {
		s.engine.GET("/ws/feed", s.hub.handleLive)
	}
}

// Handler returns the router, mostly for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start starts the API server
func (s *Server) Start() error {
	logger.Info("api server starting", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully stops the server and disconnects live clients
func (s *Server) Stop(ctx context.Context) error {
	logger.Info("stopping api server...")
	if s.hub != nil {
		s.hub.Close()
	}
	return s.server.Shutdown(ctx)
}
