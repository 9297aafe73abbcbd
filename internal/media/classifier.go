package media

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"TruthPost/internal/analysis"
	"TruthPost/internal/domain"
	"TruthPost/internal/ports"
)

var extensions = map[string]domain.Modality{
	"jpg":  domain.ModalityImage,
	"jpeg": domain.ModalityImage,
	"png":  domain.ModalityImage,
	"mp4":  domain.ModalityVideo,
	"mov":  domain.ModalityVideo,
	"avi":  domain.ModalityVideo,
}

// ModalityOf maps a file name to a media modality by its extension, case-insensitively.
func ModalityOf(filename string) (domain.Modality, bool) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	modality, ok := extensions[ext]
	return modality, ok
}

// Directive says which analyzer, if any, should score an upload.
type Directive struct {
	Modality domain.Modality
	Analyzer ports.MediaAnalyzer
	Upload   domain.MediaUpload
}

// Dispatched reports whether a media analysis will run.
func (d Directive) Dispatched() bool {
	return d.Analyzer != nil
}

// Run executes the directive, or returns the no-media placeholder when nothing is dispatched.
func (d Directive) Run(ctx context.Context) domain.AnalysisResult {
	if !d.Dispatched() {
		return domain.NoMediaResult()
	}
	return d.Analyzer.AnalyzeMedia(ctx, d.Upload)
}

// Classifier routes uploads to the analyzer of their modality.
type Classifier struct {
	registry *analysis.Registry
	logger   *slog.Logger
}

// NewClassifier wires the modality registry.
func NewClassifier(registry *analysis.Registry, logger *slog.Logger) *Classifier {
	return &Classifier{registry: registry, logger: logger}
}

// Classify never blocks. A nil upload, an unsupported extension, or a modality
// without a registered analyzer all yield an undispatched directive.
func (c *Classifier) Classify(upload *domain.MediaUpload) Directive {
	if upload == nil {
		return Directive{}
	}

	name := upload.OriginalName
	if name == "" {
		name = upload.Path
	}

	modality, ok := ModalityOf(name)
	if !ok {
		c.debug("unsupported media type, skipping analysis", "file", name)
		return Directive{Upload: *upload}
	}

	analyzer, err := c.registry.Resolve(modality)
	if err != nil {
		c.debug("media analyzer unavailable", "modality", modality, "error", err)
		return Directive{Modality: modality, Upload: *upload}
	}

	return Directive{Modality: modality, Analyzer: analyzer, Upload: *upload}
}

func (c *Classifier) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
