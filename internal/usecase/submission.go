package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"TruthPost/internal/domain"
	"TruthPost/internal/logging"
	"TruthPost/internal/media"
	"TruthPost/internal/ports"
	"TruthPost/internal/verdict"
)

var errNoTextAnalyzer = errors.New("text analyzer is not configured")

// SubmissionDeps wires all driven adapters into the submission workflow.
type SubmissionDeps struct {
	Repository ports.ArticleRepository
	Text       ports.TextAnalyzer
	Classifier *media.Classifier
	Verdict    verdict.Engine
	Normalizer ports.ContentNormalizer
	Events     ports.EventPublisher
	Logger     *slog.Logger
	NewID      func() string
	Now        func() time.Time
}

// Submission owns the article lifecycle from intake to verdict.
type Submission struct {
	repository ports.ArticleRepository
	text       ports.TextAnalyzer
	classifier *media.Classifier
	verdict    verdict.Engine
	normalizer ports.ContentNormalizer
	events     ports.EventPublisher
	logger     *slog.Logger
	newID      func() string
	now        func() time.Time
}

// NewSubmission constructs the orchestration component.
func NewSubmission(deps SubmissionDeps) *Submission {
	s := &Submission{
		repository: deps.Repository,
		text:       deps.Text,
		classifier: deps.Classifier,
		verdict:    deps.Verdict,
		normalizer: deps.Normalizer,
		events:     deps.Events,
		logger:     deps.Logger,
		newID:      deps.NewID,
		now:        deps.Now,
	}
	if s.classifier == nil {
		s.classifier = media.NewClassifier(nil, deps.Logger)
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}
	if s.newID == nil {
		s.newID = func() string { return uuid.New().String() }
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

// SubmitRequest is a new article as received from the ingress layer.
type SubmitRequest struct {
	Title   string
	Content string
	Media   *domain.MediaUpload
}

// SubmitResult summarizes a decided submission.
type SubmitResult struct {
	ArticleID   string
	TextResult  domain.AnalysisResult
	MediaResult domain.AnalysisResult
	HasMedia    bool
	Status      domain.Status
}

// Submit validates, persists the pending record, runs text and media analysis
// concurrently, decides the verdict and persists it. Only validation and
// storage failures are returned; analysis failures end up in the results.
func (s *Submission) Submit(ctx context.Context, req SubmitRequest) (SubmitResult, error) {
	if strings.TrimSpace(req.Title) == "" {
		return SubmitResult{}, &domain.ValidationError{Field: "title"}
	}
	if strings.TrimSpace(req.Content) == "" {
		return SubmitResult{}, &domain.ValidationError{Field: "content"}
	}
	if s.repository == nil {
		return SubmitResult{}, &domain.StorageError{Op: "create", Err: errors.New("repository is not configured")}
	}

	article := domain.Article{
		ID:        s.newID(),
		Title:     req.Title,
		Content:   req.Content,
		MediaPath: mediaPath(req.Media),
		Status:    domain.StatusPending,
		CreatedAt: s.now(),
	}

	id, err := s.repository.Create(ctx, article)
	if err != nil {
		s.logger.Error("persist pending article", "error", err)
		return SubmitResult{}, &domain.StorageError{Op: "create", Err: err}
	}
	if id != "" {
		article.ID = id
	}
	log := s.logger.With("article_id", article.ID)

	directive := s.classifier.Classify(req.Media)

	var textResult, mediaResult domain.AnalysisResult
	var g errgroup.Group
	g.Go(func() error {
		textResult = s.analyzeText(ctx, req.Content)
		return nil
	})
	g.Go(func() error {
		mediaResult = directive.Run(ctx)
		return nil
	})
	_ = g.Wait()

	hasMedia := directive.Dispatched()
	status := s.verdict.Decide(textResult, mediaResult, hasMedia)
	log.Info("verdict decided",
		"text_label", textResult.Label,
		"media_label", mediaResult.Label,
		"media_modality", directive.Modality,
		"status", status,
	)

	_, err = s.repository.Update(ctx, article.ID, domain.AnalysisOutcome{
		Status:      status,
		TextResult:  textResult,
		MediaResult: mediaResult,
	})
	if err != nil {
		log.Error("persist verdict", "error", err)
		return SubmitResult{}, &domain.StorageError{Op: "update", Err: err}
	}

	s.publish(ctx, log, domain.VerdictEvent{
		ArticleID:  article.ID,
		Status:     status,
		TextLabel:  textResult.Label,
		MediaLabel: mediaResult.Label,
		HasMedia:   hasMedia,
		DecidedAt:  s.now(),
	})

	return SubmitResult{
		ArticleID:   article.ID,
		TextResult:  textResult,
		MediaResult: mediaResult,
		HasMedia:    hasMedia,
		Status:      status,
	}, nil
}

func (s *Submission) analyzeText(ctx context.Context, content string) domain.AnalysisResult {
	if s.text == nil {
		return domain.ErrorResult(errNoTextAnalyzer)
	}
	if s.normalizer != nil {
		content = s.normalizer.PlainText(content)
	}
	return s.text.AnalyzeText(ctx, content)
}

func (s *Submission) publish(ctx context.Context, log *slog.Logger, event domain.VerdictEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishVerdict(ctx, event); err != nil {
		log.Warn("publish verdict event", "error", err)
	}
}

func mediaPath(upload *domain.MediaUpload) string {
	if upload == nil {
		return ""
	}
	if upload.PublicPath != "" {
		return upload.PublicPath
	}
	return upload.Path
}
