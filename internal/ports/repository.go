package ports

import (
	"context"
	"learnsnap/internal/domain"
)

type SnapshotRepository interface {
	Create(ctx context.Context, d *domain.SnapshotDraft) (*domain.Snapshot, error)
	Get(ctx context.Context, id string) (*domain.Snapshot, error)
	List(ctx context.Context) ([]*domain.Snapshot, error)
	ListByCategory(ctx context.Context, category string) ([]*domain.Snapshot, error)
	Search(ctx context.Context, query string) ([]*domain.Snapshot, error)
	Update(ctx context.Context, u *domain.SnapshotUpdate) (*domain.Snapshot, error)
	Delete(ctx context.Context, id string) error
}

type AnnotationRepository interface {
	Add(ctx context.Context, a *domain.Annotation) error
	ListBySnapshot(ctx context.Context, snapshotID string) ([]domain.Annotation, error)
}

type CategoryRepository interface {
	Create(ctx context.Context, c *domain.Category) error
	List(ctx context.Context) ([]*domain.Category, error)
	Delete(ctx context.Context, id string) error
}

// TranslationCache stores translations by (text, from, to). Get returns nil, nil on a miss.
type TranslationCache interface {
	Get(ctx context.Context, key domain.CacheKey) (*domain.CacheEntry, error)
	Put(ctx context.Context, entry *domain.CacheEntry) error
}

// SettingsReader resolves a settings value; unset keys read as "".
type SettingsReader interface {
	Get(ctx context.Context, key string) (string, error)
}

type SettingsRepository interface {
	SettingsReader
	Set(ctx context.Context, key, value string) error
	List(ctx context.Context) ([]domain.Setting, error)
}
