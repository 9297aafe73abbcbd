package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"TruthPost/internal/domain"
	"TruthPost/internal/usecase"
)

const mediaField = "media"

// SubmitArticle accepts a multipart form with title, content and an optional media file.
func (s *Server) SubmitArticle(c *gin.Context) {
	if s.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUploadBytes)
	}

	upload, err := s.saveUpload(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(c, http.StatusRequestEntityTooLarge, "upload_too_large", err)
			return
		}
		writeError(c, http.StatusBadRequest, "invalid_upload", err)
		return
	}

	result, err := s.submission.Submit(c.Request.Context(), usecase.SubmitRequest{
		Title:   c.PostForm("title"),
		Content: c.PostForm("content"),
		Media:   upload,
	})
	if err != nil {
		if !recordCreated(err) {
			s.removeUpload(upload)
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newSubmissionResponse(result))
}

// ListArticles returns articles newest first, optionally filtered by status.
func (s *Server) ListArticles(c *gin.Context) {
	filter := domain.ListFilter{}

	if raw := c.Query("status"); raw != "" {
		status, err := domain.ParseStatus(raw)
		if err != nil {
			respondError(c, err)
			return
		}
		filter.Status = status
	}

	var err error
	if filter.Limit, err = intQuery(c, "limit"); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_query", err)
		return
	}
	if filter.Offset, err = intQuery(c, "offset"); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_query", err)
		return
	}

	articles, err := s.review.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]articleView, 0, len(articles))
	for _, a := range articles {
		views = append(views, newArticleView(a))
	}
	c.JSON(http.StatusOK, views)
}

// GetArticle returns one article.
func (s *Server) GetArticle(c *gin.Context) {
	article, err := s.review.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newArticleView(article))
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus applies a moderator override.
func (s *Server) UpdateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	article, err := s.review.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newArticleView(article))
}

// saveUpload stores the media part as <unixmillis>-<name> under the upload dir.
// A request without a media part yields a nil upload.
func (s *Server) saveUpload(c *gin.Context) (*domain.MediaUpload, error) {
	header, err := c.FormFile(mediaField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	original := filepath.Base(strings.ReplaceAll(header.Filename, "\\", "/"))
	if original == "." || original == "/" || original == "" {
		return nil, fmt.Errorf("media file has no name")
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	name := fmt.Sprintf("%d-%s", s.now().UnixMilli(), original)
	dst := filepath.Join(s.uploadDir, name)
	if err := c.SaveUploadedFile(header, dst); err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}

	return &domain.MediaUpload{
		Path:         dst,
		OriginalName: original,
		PublicPath:   path.Join("/uploads", name),
	}, nil
}

// removeUpload drops a saved file when the submission never got a record.
func (s *Server) removeUpload(upload *domain.MediaUpload) {
	if upload == nil {
		return
	}
	if err := os.Remove(upload.Path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("remove orphan upload", "path", upload.Path, "error", err)
	}
}

// recordCreated reports whether a failed submission still left a record behind.
func recordCreated(err error) bool {
	var storage *domain.StorageError
	return errors.As(err, &storage) && storage.Op != "create"
}

func intQuery(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return v, nil
}
