package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"TruthPost/internal/analysis"
	"TruthPost/internal/api"
	"TruthPost/internal/config"
	"TruthPost/internal/infrastructure/cache"
	"TruthPost/internal/infrastructure/events"
	"TruthPost/internal/infrastructure/ml"
	"TruthPost/internal/infrastructure/parser"
	"TruthPost/internal/infrastructure/scheduler"
	"TruthPost/internal/infrastructure/storage"
	"TruthPost/internal/infrastructure/telegram"
	"TruthPost/internal/logging"
	"TruthPost/internal/media"
	"TruthPost/internal/ports"
	"TruthPost/internal/usecase"
	"TruthPost/internal/verdict"
)

const shutdownTimeout = 15 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	server    *http.Server
	scheduler *usecase.Scheduler
	closers   []io.Closer
}

// New connects the configured integrations and builds the HTTP server.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	a := &Application{cfg: cfg, logger: baseLogger}

	repo, err := a.repository(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	var text ports.TextAnalyzer = ml.NewTextClient(cfg.Analysis.Text, nil, baseLogger.With("component", "analysis.text"))
	if cfg.Cache.RedisAddr != "" {
		client, err := cache.Connect(ctx, cfg.Cache.RedisAddr)
		if err != nil {
			baseLogger.Warn("text cache disabled", "error", err)
		} else {
			a.closers = append(a.closers, client)
			text = cache.NewCachedTextAnalyzer(text, cache.NewRedisTextCache(client, cfg.Cache.TTL), baseLogger.With("component", "cache"))
		}
	}

	registry := analysis.NewRegistry(
		ml.NewImageClient(cfg.Analysis.Image, nil, baseLogger.With("component", "analysis.image")),
		ml.NewVideoClient(cfg.Analysis.Video, nil, baseLogger.With("component", "analysis.video")),
	)

	var publisher ports.EventPublisher
	if len(cfg.Events.Brokers) > 0 {
		kafkaPublisher, err := events.NewKafkaPublisher(cfg.Events.Brokers, cfg.Events.Topic)
		if err != nil {
			baseLogger.Warn("verdict events disabled", "error", err)
		} else {
			a.closers = append(a.closers, kafkaPublisher)
			publisher = kafkaPublisher
		}
	}

	submission := usecase.NewSubmission(usecase.SubmissionDeps{
		Repository: repo,
		Text:       text,
		Classifier: media.NewClassifier(registry, baseLogger.With("component", "classifier")),
		Verdict:    verdict.New(cfg.Verdict.TextOnlyApproval()),
		Normalizer: parser.NewContentNormalizer(),
		Events:     publisher,
		Logger:     baseLogger.With("component", "submission"),
	})

	if tg := cfg.Notifications.Telegram; tg.BotToken != "" && tg.ChatID != "" {
		digest := usecase.NewDigest(repo, telegram.NewNotifier(tg.BotToken, tg.ChatID), cfg.Digest.MaxItems, baseLogger.With("component", "digest"))
		a.scheduler = usecase.NewScheduler(scheduler.NewIntervalScheduler(cfg.Digest.Interval), digest, baseLogger.With("component", "scheduler"))
	}

	server := api.NewServer(api.Deps{
		Submission:     submission,
		Review:         usecase.NewReview(repo, baseLogger.With("component", "review")),
		UploadDir:      cfg.Server.UploadDir,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		Logger:         baseLogger.With("component", "http"),
	})
	a.server = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

func (a *Application) repository(ctx context.Context) (ports.ArticleRepository, error) {
	switch a.cfg.Database.Driver {
	case "", "memory":
		a.logger.Warn("using in-memory article store; records are lost on restart")
		return storage.NewMemoryRepository(), nil
	case "postgres":
		db, err := storage.OpenPostgres(ctx, a.cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db)
		repo := storage.NewPostgresRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", a.cfg.Database.Driver)
	}
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	if a.scheduler != nil {
		if err := a.scheduler.Start(ctx); err != nil {
			return fmt.Errorf("start digest scheduler: %w", err)
		}
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", a.server.Addr, "integrations", a.cfg.Describe())
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err, ok := <-errCh:
		if ok {
			runErr = fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("http shutdown", "error", err)
	}
	if a.scheduler != nil {
		if err := a.scheduler.Stop(shutdownCtx); err != nil {
			a.logger.Warn("scheduler shutdown", "error", err)
		}
	}
	a.Close()

	return runErr
}

// Close releases connections opened by New.
func (a *Application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.Warn("close resource", "error", err)
		}
	}
	a.closers = nil
}
