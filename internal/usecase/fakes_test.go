package usecase

import (
	"context"
	"errors"
	"sync"

	"TruthPost/internal/domain"
)

type fakeRepo struct {
	mu        sync.Mutex
	articles  map[string]domain.Article
	created   []domain.Article
	outcomes  []domain.AnalysisOutcome
	createErr error
	updateErr error
	listErr   error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{articles: map[string]domain.Article{}}
}

func (r *fakeRepo) Create(_ context.Context, a domain.Article) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return "", r.createErr
	}
	r.created = append(r.created, a)
	r.articles[a.ID] = a
	return a.ID, nil
}

func (r *fakeRepo) Update(_ context.Context, id string, o domain.AnalysisOutcome) (domain.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return domain.Article{}, r.updateErr
	}
	a, ok := r.articles[id]
	if !ok {
		return domain.Article{}, domain.ErrNotFound
	}
	r.outcomes = append(r.outcomes, o)
	text, media := o.TextResult, o.MediaResult
	a.Status, a.TextResult, a.MediaResult = o.Status, &text, &media
	r.articles[id] = a
	return a, nil
}

func (r *fakeRepo) SetStatus(_ context.Context, id string, s domain.Status) (domain.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return domain.Article{}, r.updateErr
	}
	a, ok := r.articles[id]
	if !ok {
		return domain.Article{}, domain.ErrNotFound
	}
	a.Status = s
	r.articles[id] = a
	return a, nil
}

func (r *fakeRepo) Get(_ context.Context, id string) (domain.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.articles[id]
	if !ok {
		return domain.Article{}, domain.ErrNotFound
	}
	return a, nil
}

func (r *fakeRepo) List(_ context.Context, f domain.ListFilter) ([]domain.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []domain.Article
	for _, a := range r.created {
		current := r.articles[a.ID]
		if f.Status != "" && current.Status != f.Status {
			continue
		}
		out = append(out, current)
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

type fakeText struct {
	mu     sync.Mutex
	inputs []string
	result domain.AnalysisResult
	hook   func(ctx context.Context) domain.AnalysisResult
}

func (f *fakeText) AnalyzeText(ctx context.Context, text string) domain.AnalysisResult {
	f.mu.Lock()
	f.inputs = append(f.inputs, text)
	f.mu.Unlock()
	if f.hook != nil {
		return f.hook(ctx)
	}
	return f.result
}

func (f *fakeText) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inputs)
}

type fakeMedia struct {
	modality domain.Modality
	mu       sync.Mutex
	uploads  []domain.MediaUpload
	result   domain.AnalysisResult
	hook     func(ctx context.Context) domain.AnalysisResult
}

func (f *fakeMedia) Modality() domain.Modality { return f.modality }

func (f *fakeMedia) AnalyzeMedia(ctx context.Context, u domain.MediaUpload) domain.AnalysisResult {
	f.mu.Lock()
	f.uploads = append(f.uploads, u)
	f.mu.Unlock()
	if f.hook != nil {
		return f.hook(ctx)
	}
	return f.result
}

func (f *fakeMedia) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads)
}

type fakePublisher struct {
	events []domain.VerdictEvent
	err    error
}

func (p *fakePublisher) PublishVerdict(_ context.Context, e domain.VerdictEvent) error {
	p.events = append(p.events, e)
	return p.err
}

type fakeNotifier struct {
	digests []domain.PendingDigest
	err     error
}

func (n *fakeNotifier) PublishDigest(_ context.Context, digest domain.PendingDigest) error {
	n.digests = append(n.digests, digest)
	return n.err
}

type prefixNormalizer struct{}

func (prefixNormalizer) PlainText(content string) string { return "normalized:" + content }

var errBoom = errors.New("boom")
