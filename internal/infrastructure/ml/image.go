package ml

import (
	"context"
	"log/slog"
	"math"
	"net/http"

	"TruthPost/internal/config"
	"TruthPost/internal/domain"
	"TruthPost/internal/ports"
)

const highConfidenceFake = 0.8

// ImageClient sends uploaded images to the image deepfake model.
type ImageClient struct {
	client
}

var _ ports.MediaAnalyzer = (*ImageClient)(nil)

// NewImageClient builds an image analyzer; httpClient may be nil.
func NewImageClient(cfg config.ServiceConfig, httpClient *http.Client, logger *slog.Logger) *ImageClient {
	return &ImageClient{client: newClient(cfg, httpClient, logger)}
}

// Modality implements ports.MediaAnalyzer.
func (c *ImageClient) Modality() domain.Modality {
	return domain.ModalityImage
}

type imageScores struct {
	Fake float64 `json:"Fake"`
	Real float64 `json:"Real"`
}

type imageResponse struct {
	Result *imageScores `json:"result"`
}

// AnalyzeMedia posts the file as the "image" form field.
func (c *ImageClient) AnalyzeMedia(ctx context.Context, upload domain.MediaUpload) domain.AnalysisResult {
	var resp imageResponse
	if err := c.postFile(ctx, "image", upload, &resp); err != nil {
		c.logger.Warn("image analysis failed", "file", upload.OriginalName, "error", err)
		return domain.ErrorResult(err)
	}

	if resp.Result == nil {
		c.logger.Warn("image analysis returned no result object", "file", upload.OriginalName)
		return domain.NoMediaResult()
	}
	return imageResult(*resp.Result)
}

func imageResult(s imageScores) domain.AnalysisResult {
	label := domain.LabelAuthenticImage
	if s.Fake > s.Real {
		label = domain.LabelManipulatedImage
	}
	if s.Fake > highConfidenceFake {
		label = domain.LabelManipulatedImageHigh
	}

	return domain.AnalysisResult{
		Label:      label,
		Confidence: math.Max(s.Fake, s.Real) * 100,
		Details:    domain.ImageDetails{FakeScore: s.Fake, RealScore: s.Real},
	}
}
