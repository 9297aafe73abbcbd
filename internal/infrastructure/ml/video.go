package ml

import (
	"context"
	"log/slog"
	"net/http"

	"TruthPost/internal/config"
	"TruthPost/internal/domain"
	"TruthPost/internal/ports"
)

// VideoClient sends uploaded videos to the video deepfake detector.
type VideoClient struct {
	client
}

var _ ports.MediaAnalyzer = (*VideoClient)(nil)

// NewVideoClient builds a video analyzer; httpClient may be nil.
func NewVideoClient(cfg config.ServiceConfig, httpClient *http.Client, logger *slog.Logger) *VideoClient {
	return &VideoClient{client: newClient(cfg, httpClient, logger)}
}

// Modality implements ports.MediaAnalyzer.
func (c *VideoClient) Modality() domain.Modality {
	return domain.ModalityVideo
}

type videoResponse struct {
	DeepfakeDetected bool           `json:"deepfake_detected"`
	Confidence       float64        `json:"confidence"`
	FrameAnalysis    map[string]any `json:"frame_analysis"`
	DetectionTime    float64        `json:"detection_time"`
}

// AnalyzeMedia posts the file as the "file" form field.
func (c *VideoClient) AnalyzeMedia(ctx context.Context, upload domain.MediaUpload) domain.AnalysisResult {
	var resp *videoResponse
	if err := c.postFile(ctx, "file", upload, &resp); err != nil {
		c.logger.Warn("video analysis failed", "file", upload.OriginalName, "error", err)
		return domain.ErrorResult(err)
	}

	if resp == nil {
		c.logger.Warn("video analysis returned an empty body", "file", upload.OriginalName)
		return domain.NoMediaResult()
	}
	return resp.result()
}

func (r videoResponse) result() domain.AnalysisResult {
	label := domain.LabelAuthenticVideo
	if r.DeepfakeDetected {
		label = domain.LabelManipulatedVideo
	}

	frames := r.FrameAnalysis
	if frames == nil {
		frames = map[string]any{}
	}

	return domain.AnalysisResult{
		Label:      label,
		Confidence: domain.NormalizeConfidence(r.Confidence),
		Details:    domain.VideoDetails{FrameAnalysis: frames, DetectionTime: r.DetectionTime},
	}
}
