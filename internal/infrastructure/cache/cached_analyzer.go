package cache

import (
	"context"
	"log/slog"

	"TruthPost/internal/domain"
	"TruthPost/internal/logging"
	"TruthPost/internal/ports"
)

// CachedTextAnalyzer consults the cache before calling the text service.
// Sentinel results are never cached, so failures are re-analyzed next time.
type CachedTextAnalyzer struct {
	next   ports.TextAnalyzer
	cache  ports.TextResultCache
	logger *slog.Logger
}

var _ ports.TextAnalyzer = (*CachedTextAnalyzer)(nil)

// NewCachedTextAnalyzer decorates next with cache.
func NewCachedTextAnalyzer(next ports.TextAnalyzer, cache ports.TextResultCache, logger *slog.Logger) *CachedTextAnalyzer {
	if logger == nil {
		logger = logging.Discard()
	}
	return &CachedTextAnalyzer{next: next, cache: cache, logger: logger}
}

// AnalyzeText implements ports.TextAnalyzer. Cache errors only cost a miss.
func (c *CachedTextAnalyzer) AnalyzeText(ctx context.Context, text string) domain.AnalysisResult {
	if cached, ok, err := c.cache.Get(ctx, text); err != nil {
		c.logger.Warn("text cache lookup failed", "error", err)
	} else if ok {
		c.logger.Debug("text cache hit")
		return cached
	}

	result := c.next.AnalyzeText(ctx, text)
	if result.IsSentinel() {
		return result
	}

	if err := c.cache.Put(ctx, text, result); err != nil {
		c.logger.Warn("text cache store failed", "error", err)
	}
	return result
}
