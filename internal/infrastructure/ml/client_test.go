package ml

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TruthPost/internal/config"
	"TruthPost/internal/domain"
)

// 1x1 transparent PNG.
var pngPixel = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

func serviceConfig(url string) config.ServiceConfig {
	return config.ServiceConfig{Endpoint: url, Timeout: 2 * time.Second}
}

func writeUpload(t *testing.T, name string, data []byte) domain.MediaUpload {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return domain.MediaUpload{Path: path, OriginalName: name}
}

func TestTextClientMapsResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "the moon is made of cheese", body["text"])
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		_, _ = w.Write([]byte(`{"label":"Fake","confidence":0.93,"details":{"model":"roberta"}}`))
	}))
	defer server.Close()

	c := NewTextClient(serviceConfig(server.URL), server.Client(), nil)
	result := c.AnalyzeText(context.Background(), "the moon is made of cheese")

	assert.Equal(t, "Fake", result.Label)
	assert.InDelta(t, 93.0, result.Confidence, 1e-9)
	assert.Equal(t, domain.TextDetails{"model": "roberta"}, result.Details)
}

func TestTextClientMissingFieldsAreInconclusive(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := NewTextClient(serviceConfig(server.URL), server.Client(), nil)
	result := c.AnalyzeText(context.Background(), "anything")

	assert.Equal(t, domain.LabelInconclusive, result.Label)
	assert.Zero(t, result.Confidence)
}

func TestTextClientFailureBecomesSentinel(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model crashed", http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewTextClient(serviceConfig(server.URL), server.Client(), nil)
	result := c.AnalyzeText(context.Background(), "anything")

	assert.Equal(t, domain.LabelAnalysisError, result.Label)
	assert.Zero(t, result.Confidence)
	details, ok := result.Details.(domain.ErrorDetails)
	require.True(t, ok)
	assert.Contains(t, details.Message, "model crashed")
}

func TestTextClientTimeoutBecomesSentinel(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	cfg := config.ServiceConfig{Endpoint: server.URL, Timeout: 50 * time.Millisecond}
	c := NewTextClient(cfg, server.Client(), nil)
	result := c.AnalyzeText(context.Background(), "slow")

	assert.Equal(t, domain.LabelAnalysisError, result.Label)
	assert.Zero(t, result.Confidence)
}

func TestClientRetriesOnlyWhenConfigured(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"label":"Credible","confidence":80}`))
	}))
	defer server.Close()

	noRetry := NewTextClient(serviceConfig(server.URL), server.Client(), nil)
	assert.Equal(t, domain.LabelAnalysisError, noRetry.AnalyzeText(context.Background(), "x").Label)
	assert.Equal(t, int32(1), calls.Load())

	calls.Store(0)
	cfg := serviceConfig(server.URL)
	cfg.Retries = 1
	cfg.Backoff = time.Millisecond
	withRetry := NewTextClient(cfg, server.Client(), nil)
	assert.Equal(t, "Credible", withRetry.AnalyzeText(context.Background(), "x").Label)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClientRetriesWaitBetweenAttempts(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := serviceConfig(server.URL)
	cfg.Retries = 2
	cfg.Backoff = 25 * time.Millisecond
	c := NewTextClient(cfg, server.Client(), nil)

	start := time.Now()
	result := c.AnalyzeText(context.Background(), "x")

	assert.Equal(t, domain.LabelAnalysisError, result.Label)
	assert.Equal(t, int32(3), calls.Load())
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestClientStopsRetryingWhenCancelled(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := serviceConfig(server.URL)
	cfg.Retries = 5
	cfg.Backoff = time.Hour
	c := NewTextClient(cfg, server.Client(), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.Equal(t, domain.LabelAnalysisError, c.AnalyzeText(ctx, "x").Label)
	assert.Equal(t, int32(1), calls.Load())
}

func TestImageClientNormalizesScores(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		body      string
		wantLabel string
		wantConf  float64
	}{
		{"high confidence fake", `{"result":{"Fake":0.9,"Real":0.1}}`, domain.LabelManipulatedImageHigh, 90},
		{"fake", `{"result":{"Fake":0.6,"Real":0.4}}`, domain.LabelManipulatedImage, 60},
		{"authentic", `{"result":{"Fake":0.1,"Real":0.9}}`, domain.LabelAuthenticImage, 90},
		{"tie is authentic", `{"result":{"Fake":0.5,"Real":0.5}}`, domain.LabelAuthenticImage, 50},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				file, header, err := r.FormFile("image")
				if !assert.NoError(t, err) {
					w.WriteHeader(http.StatusBadRequest)
					return
				}
				defer file.Close()
				data, err := io.ReadAll(file)
				assert.NoError(t, err)
				assert.Equal(t, pngPixel, data)
				assert.Equal(t, "photo.png", header.Filename)
				assert.Equal(t, "image/png", header.Header.Get("Content-Type"))

				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			c := NewImageClient(serviceConfig(server.URL), server.Client(), nil)
			result := c.AnalyzeMedia(context.Background(), writeUpload(t, "photo.png", pngPixel))

			assert.Equal(t, tc.wantLabel, result.Label)
			assert.InDelta(t, tc.wantConf, result.Confidence, 1e-9)
			_, ok := result.Details.(domain.ImageDetails)
			assert.True(t, ok)
		})
	}
}

func TestImageClientMissingResultKeepsPlaceholder(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	c := NewImageClient(serviceConfig(server.URL), server.Client(), nil)
	result := c.AnalyzeMedia(context.Background(), writeUpload(t, "photo.jpg", pngPixel))

	assert.Equal(t, domain.NoMediaResult(), result)
}

func TestImageClientMissingFileBecomesSentinel(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	c := NewImageClient(serviceConfig(server.URL), server.Client(), nil)
	result := c.AnalyzeMedia(context.Background(), domain.MediaUpload{Path: filepath.Join(t.TempDir(), "gone.png")})

	assert.Equal(t, domain.LabelAnalysisError, result.Label)
	assert.Zero(t, calls.Load())
}

func TestVideoClientMapsResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _, err := r.FormFile("file")
		assert.NoError(t, err)
		_, _ = w.Write([]byte(`{"deepfake_detected":true,"confidence":87.5,"frame_analysis":{"suspicious":12},"detection_time":3.2}`))
	}))
	defer server.Close()

	c := NewVideoClient(serviceConfig(server.URL), server.Client(), nil)
	result := c.AnalyzeMedia(context.Background(), writeUpload(t, "clip.mp4", []byte("not really a video")))

	assert.Equal(t, domain.LabelManipulatedVideo, result.Label)
	assert.InDelta(t, 87.5, result.Confidence, 1e-9)
	details, ok := result.Details.(domain.VideoDetails)
	require.True(t, ok)
	assert.InDelta(t, 3.2, details.DetectionTime, 1e-9)
	assert.Equal(t, float64(12), details.FrameAnalysis["suspicious"])
}

func TestVideoClientAuthenticDefaults(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"deepfake_detected":false}`))
	}))
	defer server.Close()

	c := NewVideoClient(serviceConfig(server.URL), server.Client(), nil)
	result := c.AnalyzeMedia(context.Background(), writeUpload(t, "clip.mov", []byte("frames")))

	assert.Equal(t, domain.LabelAuthenticVideo, result.Label)
	assert.Zero(t, result.Confidence)
	assert.Equal(t, domain.VideoDetails{FrameAnalysis: map[string]any{}}, result.Details)
}

func TestClientWithoutEndpointFails(t *testing.T) {
	t.Parallel()

	c := NewVideoClient(config.ServiceConfig{}, nil, nil)
	result := c.AnalyzeMedia(context.Background(), writeUpload(t, "clip.avi", []byte("frames")))
	assert.Equal(t, domain.LabelAnalysisError, result.Label)
}
