package translator

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"learnsnap/internal/domain"
	"learnsnap/internal/metrics"
	"learnsnap/internal/ports"
)

type Deps struct {
	Cache     ports.TranslationCache
	Providers ports.ProviderLookup
	// DefaultProvider is used when a request names none.
	DefaultProvider string
	Now             func() time.Time
	Logger          *slog.Logger
}

type Service struct{ d Deps }

func New(d Deps) *Service {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Service{d: d}
}

// Translate answers from the cache when possible and otherwise asks the named provider,
// storing its answer before returning. The cache is shared by all providers.
func (s *Service) Translate(ctx context.Context, p domain.TranslateParams) (*domain.TranslationResult, error) {
	name := p.Provider
	if name == "" {
		name = s.d.DefaultProvider
	}
	key := domain.CacheKey{Text: p.Text, From: p.From, To: p.To}
	ce, err := s.d.Cache.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read translation cache: %w", err)
	}
	metrics.RecordCacheLookup(ce != nil)
	if ce != nil {
		s.d.Logger.DebugContext(ctx, "translation cache hit", "from", p.From, "to", p.To, "provider", name)
		return &domain.TranslationResult{
			Original:   p.Text,
			Translated: ce.Translated,
			From:       p.From,
			To:         p.To,
			Provider:   name,
			Timestamp:  ce.Timestamp,
		}, nil
	}

	prov, ok := s.d.Providers.Get(name)
	if !ok {
		return nil, &domain.ProviderNotFoundError{Name: name}
	}
	translated, err := prov.Translate(ctx, p.Text, p.From, p.To)
	if err != nil {
		return nil, err
	}
	res := &domain.TranslationResult{
		Original:   p.Text,
		Translated: translated,
		From:       p.From,
		To:         p.To,
		Provider:   name,
		Timestamp:  domain.Millis(s.d.Now()),
	}
	if err := s.d.Cache.Put(ctx, &domain.CacheEntry{
		Text:       p.Text,
		From:       p.From,
		To:         p.To,
		Translated: translated,
		Timestamp:  res.Timestamp,
	}); err != nil {
		return nil, fmt.Errorf("write translation cache: %w", err)
	}
	return res, nil
}

// TranslateBatch translates every paragraph concurrently. Results keep the input order;
// the first failure cancels the remaining calls and fails the whole batch.
func (s *Service) TranslateBatch(ctx context.Context, paragraphs []string, provider, from, to string) ([]*domain.TranslationResult, error) {
	out := make([]*domain.TranslationResult, len(paragraphs))
	g, gctx := errgroup.WithContext(ctx)
	for i, para := range paragraphs {
		g.Go(func() error {
			r, err := s.Translate(gctx, domain.TranslateParams{Text: para, Provider: provider, From: from, To: to})
			if err != nil {
				return err
			}
			out[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Batch resolves the paragraphs of p and runs TranslateBatch.
func (s *Service) Batch(ctx context.Context, p domain.BatchTranslateParams) ([]*domain.TranslationResult, error) {
	paras := p.Paragraphs
	if len(paras) == 0 {
		paras = SplitParagraphs(p.Text)
	}
	return s.TranslateBatch(ctx, paras, p.Provider, p.From, p.To)
}

var newlines = regexp.MustCompile(`\n+`)

// SplitParagraphs splits text on runs of newlines and drops blank paragraphs.
func SplitParagraphs(text string) []string {
	out := []string{}
	for _, p := range newlines.Split(text, -1) {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}
