package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"TruthPost/internal/domain"
	"TruthPost/internal/ports"
)

const defaultAPIBase = "https://api.telegram.org"

// Notifier sends moderation digests to a Telegram chat via bot API.
type Notifier struct {
	apiBase  string
	botToken string
	chatID   string
	client   *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier.
func NewNotifier(botToken, chatID string) *Notifier {
	return &Notifier{
		apiBase:  defaultAPIBase,
		botToken: botToken,
		chatID:   chatID,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// WithAPIBase points the notifier at another Bot API host.
func (n *Notifier) WithAPIBase(base string, client *http.Client) *Notifier {
	n.apiBase = strings.TrimSuffix(base, "/")
	if client != nil {
		n.client = client
	}
	return n
}

// PublishDigest renders the digest as Telegram Markdown and posts it.
func (n *Notifier) PublishDigest(ctx context.Context, digest domain.PendingDigest) error {
	if n.botToken == "" || n.chatID == "" || n.client == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", renderDigest(digest))
	form.Set("parse_mode", "Markdown")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram error %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	return nil
}

// markdownEscaper escapes the entity markers of Telegram's legacy Markdown.
var markdownEscaper = strings.NewReplacer(
	"_", "\\_",
	"*", "\\*",
	"`", "\\`",
	"[", "\\[",
)

func escapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}

func renderDigest(d domain.PendingDigest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "*Pending review* (%s)\n\n", d.GeneratedAt.UTC().Format("2006-01-02 15:04 MST"))
	for _, item := range d.Items {
		fmt.Fprintf(&b, "- %s\nID: `%s`\nText: %s\nMedia: %s\n\n",
			escapeMarkdown(item.Title),
			item.ID,
			resultLine(item.Text),
			resultLine(item.Media))
	}
	if d.Truncated {
		b.WriteString("...and more waiting\n")
	}

	return b.String()
}

func resultLine(r *domain.AnalysisResult) string {
	if r == nil {
		return "not analyzed"
	}
	return fmt.Sprintf("%s (%.0f%%)", escapeMarkdown(r.Label), r.Confidence)
}
