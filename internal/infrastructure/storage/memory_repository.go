package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"TruthPost/internal/domain"
	"TruthPost/internal/ports"
)

// MemoryRepository keeps articles in process memory. Useful for local runs.
type MemoryRepository struct {
	mu       sync.RWMutex
	articles map[string]domain.Article
	now      func() time.Time
}

var _ ports.ArticleRepository = (*MemoryRepository)(nil)

// NewMemoryRepository builds an empty store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		articles: map[string]domain.Article{},
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new article; ids must be unique.
func (r *MemoryRepository) Create(_ context.Context, article domain.Article) (string, error) {
	if article.ID == "" {
		return "", fmt.Errorf("article id is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.articles[article.ID]; exists {
		return "", fmt.Errorf("article %s already exists", article.ID)
	}
	if article.UpdatedAt.IsZero() {
		article.UpdatedAt = article.CreatedAt
	}
	r.articles[article.ID] = cloneArticle(article)
	return article.ID, nil
}

// Update writes the verdict and both results.
func (r *MemoryRepository) Update(_ context.Context, id string, outcome domain.AnalysisOutcome) (domain.Article, error) {
	return r.mutate(id, func(a *domain.Article) {
		text, media := outcome.TextResult, outcome.MediaResult
		a.Status = outcome.Status
		a.TextResult = &text
		a.MediaResult = &media
	})
}

// SetStatus overrides the status only.
func (r *MemoryRepository) SetStatus(_ context.Context, id string, status domain.Status) (domain.Article, error) {
	return r.mutate(id, func(a *domain.Article) {
		a.Status = status
	})
}

// Get loads one article.
func (r *MemoryRepository) Get(_ context.Context, id string) (domain.Article, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	article, ok := r.articles[id]
	if !ok {
		return domain.Article{}, fmt.Errorf("get %s: %w", id, domain.ErrNotFound)
	}
	return cloneArticle(article), nil
}

// List returns articles newest first.
func (r *MemoryRepository) List(_ context.Context, filter domain.ListFilter) ([]domain.Article, error) {
	r.mu.RLock()
	result := make([]domain.Article, 0, len(r.articles))
	for _, a := range r.articles {
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		result = append(result, cloneArticle(a))
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return []domain.Article{}, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (r *MemoryRepository) mutate(id string, apply func(*domain.Article)) (domain.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	article, ok := r.articles[id]
	if !ok {
		return domain.Article{}, fmt.Errorf("update %s: %w", id, domain.ErrNotFound)
	}
	apply(&article)
	article.UpdatedAt = r.now()
	r.articles[id] = article
	return cloneArticle(article), nil
}

func cloneArticle(a domain.Article) domain.Article {
	if a.TextResult != nil {
		r := *a.TextResult
		a.TextResult = &r
	}
	if a.MediaResult != nil {
		r := *a.MediaResult
		a.MediaResult = &r
	}
	return a
}
