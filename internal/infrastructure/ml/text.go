package ml

import (
	"context"
	"log/slog"
	"net/http"

	"TruthPost/internal/config"
	"TruthPost/internal/domain"
	"TruthPost/internal/ports"
)

// TextClient sends article text to the text-verification service.
type TextClient struct {
	client
}

var _ ports.TextAnalyzer = (*TextClient)(nil)

// NewTextClient builds a text analyzer; httpClient may be nil.
func NewTextClient(cfg config.ServiceConfig, httpClient *http.Client, logger *slog.Logger) *TextClient {
	return &TextClient{client: newClient(cfg, httpClient, logger)}
}

type textResponse struct {
	Label      string         `json:"label"`
	Confidence float64        `json:"confidence"`
	Details    map[string]any `json:"details"`
}

// AnalyzeText never fails; service errors become the Analysis Error sentinel.
func (c *TextClient) AnalyzeText(ctx context.Context, text string) domain.AnalysisResult {
	var resp textResponse
	if err := c.postJSON(ctx, map[string]string{"text": text}, &resp); err != nil {
		c.logger.Warn("text analysis failed", "error", err)
		return domain.ErrorResult(err)
	}
	return resp.result()
}

// A missing label or confidence reads as inconclusive, not as a negative signal.
func (r textResponse) result() domain.AnalysisResult {
	result := domain.InconclusiveResult()
	if r.Label != "" {
		result.Label = r.Label
	}
	result.Confidence = domain.NormalizeConfidence(r.Confidence)

	details := domain.TextDetails{}
	for k, v := range r.Details {
		details[k] = v
	}
	result.Details = details
	return result
}
