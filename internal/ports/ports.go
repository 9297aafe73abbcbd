package ports

import (
	"context"
	"time"

	"TruthPost/internal/domain"
)

// ArticleRepository persists submissions. Implementations give last-write-wins
// semantics per document and no transaction across calls.
type ArticleRepository interface {
	Create(ctx context.Context, article domain.Article) (string, error)
	Update(ctx context.Context, id string, outcome domain.AnalysisOutcome) (domain.Article, error)
	SetStatus(ctx context.Context, id string, status domain.Status) (domain.Article, error)
	Get(ctx context.Context, id string) (domain.Article, error)
	List(ctx context.Context, filter domain.ListFilter) ([]domain.Article, error)
}

// TextAnalyzer scores article text. It never returns an error: failures come
// back as the Analysis Error sentinel.
type TextAnalyzer interface {
	AnalyzeText(ctx context.Context, text string) domain.AnalysisResult
}

// MediaAnalyzer scores one uploaded file for a single modality.
type MediaAnalyzer interface {
	Modality() domain.Modality
	AnalyzeMedia(ctx context.Context, upload domain.MediaUpload) domain.AnalysisResult
}

// ContentNormalizer extracts the plain text sent to the text service.
type ContentNormalizer interface {
	PlainText(content string) string
}

// TextResultCache remembers conclusive text results by content.
type TextResultCache interface {
	Get(ctx context.Context, text string) (domain.AnalysisResult, bool, error)
	Put(ctx context.Context, text string, result domain.AnalysisResult) error
}

// EventPublisher broadcasts decided verdicts.
type EventPublisher interface {
	PublishVerdict(ctx context.Context, event domain.VerdictEvent) error
}

// Notifier delivers moderation digests to Telegram or other channels. Each
// channel renders the digest in its own markup.
type Notifier interface {
	PublishDigest(ctx context.Context, digest domain.PendingDigest) error
}

// Scheduler controls when recurring jobs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
