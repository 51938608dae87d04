package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/selivandex/spectrum-feed/internal/feed"
	"github.com/selivandex/spectrum-feed/internal/ingest"
	"github.com/selivandex/spectrum-feed/internal/pipeline"
	"github.com/selivandex/spectrum-feed/internal/synthesis"
	"github.com/selivandex/spectrum-feed/pkg/logger"
)

const okBody = "Ok"

// errorResponse maps stage errors to a status and a plain-text body
func errorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, pipeline.ErrJobBusy):
		return http.StatusConflict, "Job is already running"
	case errors.Is(err, ingest.ErrNoArticles):
		return http.StatusNotFound, "No news articles found"
	case errors.Is(err, ingest.ErrUpstream):
		return http.StatusInternalServerError, "Failed to fetch news"
	case errors.Is(err, synthesis.ErrNotFound):
		return http.StatusNotFound, "Nothing to process"
	case errors.Is(err, synthesis.ErrModelFailure),
		errors.Is(err, synthesis.ErrCommentModelFailure),
		errors.Is(err, synthesis.ErrNoEntities):
		return http.StatusInternalServerError, "Failed to generate response"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func writeError(c *gin.Context, err error) {
	status, body := errorResponse(err)
	_ = c.Error(err)
	c.String(status, body)
}

func (s *Server) handleIndex(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "spectrum-feed",
		"routes": []string{
			"GET /api/news",
			"GET /api/ai",
			"GET /api/comments",
			"GET /api/posts?page&limit&entity",
			"GET /api/activities?page&limit",
			"GET /ws/feed",
		},
	})
}

func (s *Server) handleNews(c *gin.Context) {
	result, err := s.pipeline.Ingest(c.Request.Context(), pipeline.TriggerHTTP)
	if err != nil {
		writeError(c, err)
		return
	}

	logger.Debug("ingestion triggered over http",
		zap.Bool("fresh", result.Fresh),
		zap.Int("inserted", result.Inserted),
	)
	c.String(http.StatusOK, okBody)
}

// handleAI returns the post model output as indented JSON
func (s *Server) handleAI(c *gin.Context) {
	result, err := s.pipeline.Posts(c.Request.Context(), pipeline.TriggerHTTP)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Data(http.StatusOK, "application/json", []byte(result.Raw))
}

func (s *Server) handleComments(c *gin.Context) {
	if _, err := s.pipeline.Comments(c.Request.Context(), pipeline.TriggerHTTP); err != nil {
		writeError(c, err)
		return
	}
	c.String(http.StatusOK, okBody)
}

func (s *Server) handlePosts(c *gin.Context) {
	page, limit, valid := paging(c)
	if !valid {
		return
	}

	result, err := s.feed.Posts(c.Request.Context(), feed.PostsQuery{
		Page:     page,
		Limit:    limit,
		EntityID: c.Query("entity"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleActivities(c *gin.Context) {
	page, limit, valid := paging(c)
	if !valid {
		return
	}

	result, err := s.feed.Activities(c.Request.Context(), page, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// paging parses page and limit, writing a 400 when either is not a number
func paging(c *gin.Context) (int, int, bool) {
	page, err := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(feed.DefaultPage)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
		return 0, 0, false
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(feed.DefaultLimit)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return 0, 0, false
	}

	return page, limit, true
}
