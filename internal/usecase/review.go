package usecase

import (
	"context"
	"errors"
	"log/slog"

	"TruthPost/internal/domain"
	"TruthPost/internal/logging"
	"TruthPost/internal/ports"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// Review serves moderators: browsing submissions and overriding verdicts.
type Review struct {
	repository ports.ArticleRepository
	logger     *slog.Logger
}

// NewReview wires the article repository.
func NewReview(repo ports.ArticleRepository, logger *slog.Logger) *Review {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Review{repository: repo, logger: logger}
}

// List returns articles newest first.
func (r *Review) List(ctx context.Context, filter domain.ListFilter) ([]domain.Article, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	articles, err := r.repository.List(ctx, filter)
	if err != nil {
		return nil, &domain.StorageError{Op: "list", Err: err}
	}
	return articles, nil
}

// Get loads one article.
func (r *Review) Get(ctx context.Context, id string) (domain.Article, error) {
	article, err := r.repository.Get(ctx, id)
	if err != nil {
		return domain.Article{}, storageErr("get", err)
	}
	return article, nil
}

// SetStatus applies a moderator decision.
func (r *Review) SetStatus(ctx context.Context, id, status string) (domain.Article, error) {
	parsed, err := domain.ParseStatus(status)
	if err != nil {
		return domain.Article{}, err
	}

	article, err := r.repository.SetStatus(ctx, id, parsed)
	if err != nil {
		return domain.Article{}, storageErr("set status", err)
	}

	r.logger.Info("status overridden", "article_id", id, "status", parsed)
	return article, nil
}

// storageErr leaves not-found untouched so callers can tell it apart.
func storageErr(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return &domain.StorageError{Op: op, Err: err}
}
