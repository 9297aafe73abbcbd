package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TruthPost/internal/domain"
)

func sampleDigest() domain.PendingDigest {
	return domain.PendingDigest{
		GeneratedAt: time.Date(2025, 3, 1, 6, 0, 0, 0, time.UTC),
		Items: []domain.PendingItem{{
			ID:    "a1",
			Title: "Breaking",
			Text:  &domain.AnalysisResult{Label: "Analyzing...", Confidence: 0},
		}},
	}
}

func TestPublishDigest(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "42", r.PostForm.Get("chat_id"))
		assert.Equal(t, "*Pending review* (2025-03-01 06:00 UTC)\n\n- Breaking\nID: `a1`\nText: Analyzing... (0%)\nMedia: not analyzed\n\n", r.PostForm.Get("text"))
		assert.Equal(t, "Markdown", r.PostForm.Get("parse_mode"))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	n := NewNotifier("TOKEN", "42").WithAPIBase(server.URL, server.Client())
	require.NoError(t, n.PublishDigest(context.Background(), sampleDigest()))
}

func TestPublishDigestErrors(t *testing.T) {
	t.Parallel()

	assert.Error(t, NewNotifier("", "42").PublishDigest(context.Background(), sampleDigest()))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false,"description":"chat not found"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	n := NewNotifier("TOKEN", "42").WithAPIBase(server.URL, server.Client())
	err := n.PublishDigest(context.Background(), sampleDigest())
	assert.ErrorContains(t, err, "chat not found")
}

func TestRenderDigestEscapesMarkdown(t *testing.T) {
	t.Parallel()

	digest := domain.PendingDigest{
		GeneratedAt: time.Date(2025, 3, 1, 6, 0, 0, 0, time.UTC),
		Items: []domain.PendingItem{{
			ID:    "a1",
			Title: "snake_case *bold* `code` [link]",
			Text:  &domain.AnalysisResult{Label: "Fake_news", Confidence: 91.6},
			Media: &domain.AnalysisResult{Label: domain.LabelNoMedia},
		}},
		Truncated: true,
	}

	out := renderDigest(digest)

	assert.Contains(t, out, "- snake\\_case \\*bold\\* \\`code\\` \\[link]\n")
	assert.Contains(t, out, "Text: Fake\\_news (92%)\n")
	assert.Contains(t, out, "Media: No Media Uploaded (0%)\n")
	assert.True(t, strings.HasSuffix(out, "...and more waiting\n"))
	assert.True(t, strings.HasPrefix(out, "*Pending review* "))
}
