package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"TruthPost/internal/domain"
	"TruthPost/internal/usecase"
)

const submittedMessage = "Article submitted successfully"

type analysisView struct {
	Result     string         `json:"result"`
	Confidence float64        `json:"confidence"`
	Details    domain.Details `json:"details"`
}

func newAnalysisView(r domain.AnalysisResult) analysisView {
	return analysisView{Result: r.Label, Confidence: r.Confidence, Details: r.Details}
}

// SubmissionResponse is the body returned after a submission is decided.
type SubmissionResponse struct {
	Message       string        `json:"message"`
	ArticleID     string        `json:"articleId"`
	TextAnalysis  analysisView  `json:"textAnalysis"`
	MediaAnalysis analysisView  `json:"mediaAnalysis"`
	FinalStatus   domain.Status `json:"finalStatus"`
}

func newSubmissionResponse(r usecase.SubmitResult) SubmissionResponse {
	return SubmissionResponse{
		Message:       submittedMessage,
		ArticleID:     r.ArticleID,
		TextAnalysis:  newAnalysisView(r.TextResult),
		MediaAnalysis: newAnalysisView(r.MediaResult),
		FinalStatus:   r.Status,
	}
}

// storedResult is an analysis result as kept on the article document.
type storedResult struct {
	Label      string         `json:"label"`
	Confidence float64        `json:"confidence"`
	Details    domain.Details `json:"details"`
}

type analysisResults struct {
	Text  *storedResult `json:"text"`
	Media *storedResult `json:"media"`
}

func newStoredResult(r *domain.AnalysisResult) *storedResult {
	if r == nil {
		return nil
	}
	return &storedResult{Label: r.Label, Confidence: r.Confidence, Details: r.Details}
}

// articleView is the article document served to the browsing UI.
// analysisResults is omitted until the verdict has been written.
type articleView struct {
	ID              string           `json:"_id"`
	Title           string           `json:"title"`
	Content         string           `json:"content"`
	MediaURL        string           `json:"mediaUrl,omitempty"`
	Status          domain.Status    `json:"status"`
	AnalysisResults *analysisResults `json:"analysisResults,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

func newArticleView(a domain.Article) articleView {
	view := articleView{
		ID:        a.ID,
		Title:     a.Title,
		Content:   a.Content,
		MediaURL:  a.MediaPath,
		Status:    a.Status,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
	if a.TextResult != nil || a.MediaResult != nil {
		view.AnalysisResults = &analysisResults{
			Text:  newStoredResult(a.TextResult),
			Media: newStoredResult(a.MediaResult),
		}
	}
	return view
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(c *gin.Context, status int, code string, err error) {
	c.AbortWithStatusJSON(status, errorResponse{Error: err.Error(), Code: code})
}

// respondError maps domain errors to HTTP statuses. Storage details stay in the logs.
func respondError(c *gin.Context, err error) {
	var validation *domain.ValidationError
	var storage *domain.StorageError

	switch {
	case errors.As(err, &validation):
		writeError(c, http.StatusBadRequest, "validation_failed", err)
	case errors.Is(err, domain.ErrInvalidStatus):
		writeError(c, http.StatusBadRequest, "invalid_status", err)
	case errors.Is(err, domain.ErrNotFound):
		writeError(c, http.StatusNotFound, "not_found", err)
	case errors.As(err, &storage):
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "storage_failure", errors.New("article storage is unavailable"))
	default:
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "internal", errors.New("internal error"))
	}
}
