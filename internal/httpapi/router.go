package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"articlelens/internal/apperror"
	"articlelens/internal/domain"
)

const maxRequestBodyBytes = 1 << 20

// Processor runs one article request through the pipeline.
type Processor interface {
	Process(ctx context.Context, req domain.ArticleRequest) (domain.Result, error)
}

type Server struct {
	processor Processor
	log       *slog.Logger
}

func NewServer(processor Processor, log *slog.Logger) *Server {
	return &Server{processor: processor, log: log}
}

// Router builds the gin engine with the article endpoints.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(gin.CustomRecovery(s.recoverPanic), s.requestLogger(), limitBody(maxRequestBodyBytes))

	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, errorResponse{Error: apperror.Unknown.UserMessage()})
	})
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorResponse{Error: apperror.Unknown.UserMessage()})
	})

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.POST("/article", s.handleArticle)
		api.POST("/illustration", s.handleIllustration)
	}

	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		s.log.InfoContext(c.Request.Context(), "HTTP request is handled",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latencyMs", time.Since(start).Milliseconds(),
			"clientIP", c.ClientIP())
	}
}

func (s *Server) recoverPanic(c *gin.Context, recovered any) {
	s.log.ErrorContext(c.Request.Context(), "Recovered from panic in handler",
		"panic", recovered,
		"method", c.Request.Method,
		"path", c.Request.URL.Path)

	c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: apperror.Unknown.UserMessage()})
}

func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()
	}
}
