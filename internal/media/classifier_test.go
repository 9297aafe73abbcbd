package media

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"TruthPost/internal/analysis"
	"TruthPost/internal/domain"
)

type fixedAnalyzer struct {
	modality domain.Modality
}

func (f fixedAnalyzer) Modality() domain.Modality { return f.modality }

func (f fixedAnalyzer) AnalyzeMedia(_ context.Context, upload domain.MediaUpload) domain.AnalysisResult {
	return domain.AnalysisResult{Label: string(f.modality) + ":" + upload.OriginalName}
}

func TestModalityOf(t *testing.T) {
	t.Parallel()

	cases := map[string]domain.Modality{
		"photo.jpg":       domain.ModalityImage,
		"PHOTO.JPEG":      domain.ModalityImage,
		"scan.Png":        domain.ModalityImage,
		"clip.mp4":        domain.ModalityVideo,
		"clip.MOV":        domain.ModalityVideo,
		"old.avi":         domain.ModalityVideo,
		"archive.tar.mp4": domain.ModalityVideo,
	}
	for name, want := range cases {
		got, ok := ModalityOf(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}

	for _, name := range []string{"doc.pdf", "noext", "image.gif", "video.mkv", ""} {
		_, ok := ModalityOf(name)
		assert.False(t, ok, name)
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	reg := analysis.NewRegistry(fixedAnalyzer{domain.ModalityImage}, fixedAnalyzer{domain.ModalityVideo})
	c := NewClassifier(reg, nil)
	ctx := context.Background()

	none := c.Classify(nil)
	assert.False(t, none.Dispatched())
	assert.Equal(t, domain.NoMediaResult(), none.Run(ctx))

	img := c.Classify(&domain.MediaUpload{Path: "/tmp/1-a.JPG", OriginalName: "a.JPG"})
	assert.True(t, img.Dispatched())
	assert.Equal(t, domain.ModalityImage, img.Modality)
	assert.Equal(t, "image:a.JPG", img.Run(ctx).Label)

	vid := c.Classify(&domain.MediaUpload{Path: "/tmp/2-b.mov"})
	assert.Equal(t, domain.ModalityVideo, vid.Modality)
	assert.True(t, vid.Dispatched())

	doc := c.Classify(&domain.MediaUpload{Path: "/tmp/3-c.pdf", OriginalName: "c.pdf"})
	assert.False(t, doc.Dispatched())
	assert.Equal(t, "/tmp/3-c.pdf", doc.Upload.Path)
	assert.Equal(t, domain.NoMediaResult(), doc.Run(ctx))
}

func TestClassifyWithoutAnalyzer(t *testing.T) {
	t.Parallel()

	c := NewClassifier(analysis.NewRegistry(fixedAnalyzer{domain.ModalityImage}), nil)
	d := c.Classify(&domain.MediaUpload{OriginalName: "clip.mp4"})

	assert.Equal(t, domain.ModalityVideo, d.Modality)
	assert.False(t, d.Dispatched())
}
