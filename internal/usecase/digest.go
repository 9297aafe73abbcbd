package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"TruthPost/internal/domain"
	"TruthPost/internal/logging"
	"TruthPost/internal/ports"
)

// Digest reports submissions still waiting for a moderator.
type Digest struct {
	repository ports.ArticleRepository
	notifier   ports.Notifier
	maxItems   int
	logger     *slog.Logger
}

// NewDigest wires the repository and notification channel.
func NewDigest(repo ports.ArticleRepository, notifier ports.Notifier, maxItems int, logger *slog.Logger) *Digest {
	if maxItems <= 0 {
		maxItems = 20
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Digest{repository: repo, notifier: notifier, maxItems: maxItems, logger: logger}
}

// Publish sends the pending-review digest. Nothing is sent when the queue is empty.
func (d *Digest) Publish(ctx context.Context, at time.Time) error {
	if d.repository == nil || d.notifier == nil {
		return nil
	}

	pending, err := d.repository.List(ctx, domain.ListFilter{Status: domain.StatusPending, Limit: d.maxItems + 1})
	if err != nil {
		return fmt.Errorf("load pending: %w", err)
	}
	if len(pending) == 0 {
		d.logger.Debug("no pending articles, digest skipped")
		return nil
	}

	digest := buildDigest(pending, d.maxItems, at)
	if err := d.notifier.PublishDigest(ctx, digest); err != nil {
		return fmt.Errorf("publish digest: %w", err)
	}

	d.logger.Info("digest published", "pending", len(pending))
	return nil
}

func buildDigest(articles []domain.Article, limit int, at time.Time) domain.PendingDigest {
	digest := domain.PendingDigest{GeneratedAt: at.UTC()}

	shown := articles
	if len(shown) > limit {
		shown = shown[:limit]
		digest.Truncated = true
	}

	digest.Items = make([]domain.PendingItem, 0, len(shown))
	for _, a := range shown {
		digest.Items = append(digest.Items, domain.PendingItem{
			ID:    a.ID,
			Title: a.Title,
			Text:  a.TextResult,
			Media: a.MediaResult,
		})
	}
	return digest
}
