package app

import (
	"context"

	"learnsnap/internal/domain"
	"learnsnap/internal/transport"
)

type TranslationsAPI struct{ bg *transport.Client }

func NewTranslationsAPI(bg *transport.Client) *TranslationsAPI { return &TranslationsAPI{bg: bg} }

func (a *TranslationsAPI) Translate(ctx context.Context, p domain.TranslateParams) (*domain.TranslationResult, error) {
	var res domain.TranslationResult
	if err := a.bg.Call(ctx, domain.KindTranslateText, p, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Batch translates paragraphs, or the blank-line separated paragraphs of p.Text, in order.
func (a *TranslationsAPI) Batch(ctx context.Context, p domain.BatchTranslateParams) ([]*domain.TranslationResult, error) {
	var res []*domain.TranslationResult
	if err := a.bg.Call(ctx, domain.KindTranslateBatch, p, &res); err != nil {
		return nil, err
	}
	return res, nil
}
