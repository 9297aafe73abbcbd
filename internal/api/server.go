package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"TruthPost/internal/logging"
	"TruthPost/internal/usecase"
)

// Server exposes the submission and review use cases over HTTP.
type Server struct {
	submission     *usecase.Submission
	review         *usecase.Review
	uploadDir      string
	maxUploadBytes int64
	logger         *slog.Logger
	now            func() time.Time
}

// Deps configures a Server.
type Deps struct {
	Submission     *usecase.Submission
	Review         *usecase.Review
	UploadDir      string
	MaxUploadBytes int64
	Logger         *slog.Logger
}

// NewServer builds the HTTP facade.
func NewServer(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	uploadDir := deps.UploadDir
	if uploadDir == "" {
		uploadDir = "uploads"
	}
	return &Server{
		submission:     deps.Submission,
		review:         deps.Review,
		uploadDir:      uploadDir,
		maxUploadBytes: deps.MaxUploadBytes,
		logger:         logger,
		now:            time.Now,
	}
}

// Router registers every route on a fresh gin engine. Multipart parts beyond
// gin's in-memory limit spill to temp files; maxUploadBytes caps the whole body.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", s.Health)
	r.Static("/uploads", s.uploadDir)

	articles := r.Group("/api/articles")
	articles.POST("", s.SubmitArticle)
	articles.GET("", s.ListArticles)
	articles.GET("/:id", s.GetArticle)
	articles.PUT("/:id", s.UpdateStatus)

	return r
}

// Health reports liveness.
func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
