// Package snapshot manages stored snapshots, their annotations and the category list.
package snapshot

import (
	"context"
	"fmt"
	"strings"

	"learnsnap/internal/domain"
	"learnsnap/internal/ports"
)

type Service struct {
	Snapshots   ports.SnapshotRepository
	Annotations ports.AnnotationRepository
	Categories  ports.CategoryRepository
}

func New(s ports.SnapshotRepository, a ports.AnnotationRepository, c ports.CategoryRepository) *Service {
	return &Service{Snapshots: s, Annotations: a, Categories: c}
}

// Save persists a draft. A draft without categories is filed under the default category.
func (s *Service) Save(ctx context.Context, d *domain.SnapshotDraft) (*domain.Snapshot, error) {
	if d == nil || strings.TrimSpace(d.URL) == "" {
		return nil, fmt.Errorf("save snapshot: url is required: %w", domain.ErrInvalidPayload)
	}
	if len(d.Categories) == 0 {
		d.Categories = []string{domain.DefaultCategory}
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
	if d.Rating < 0 || d.Rating > 5 {
		return nil, fmt.Errorf("rating %d out of range 0..5: %w", d.Rating, domain.ErrInvalidPayload)
	}
	return s.Snapshots.Create(ctx, d)
}

// Get returns nil, nil for an unknown id.
func (s *Service) Get(ctx context.Context, id string) (*domain.Snapshot, error) {
	return s.Snapshots.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*domain.Snapshot, error) {
	return s.Snapshots.List(ctx)
}

// Search filters by category and text. An empty query lists everything.
func (s *Service) Search(ctx context.Context, q domain.SnapshotQuery) ([]*domain.Snapshot, error) {
	text := strings.TrimSpace(q.Query)
	switch {
	case q.Category != "" && text != "":
		byCat, err := s.Snapshots.ListByCategory(ctx, q.Category)
		if err != nil {
			return nil, err
		}
		out := []*domain.Snapshot{}
		for _, snap := range byCat {
			if snap.Matches(text) {
				out = append(out, snap)
			}
		}
		return out, nil
	case q.Category != "":
		return s.Snapshots.ListByCategory(ctx, q.Category)
	case text != "":
		return s.Snapshots.Search(ctx, text)
	}
	return s.Snapshots.List(ctx)
}

func (s *Service) Update(ctx context.Context, u *domain.SnapshotUpdate) (*domain.Snapshot, error) {
	return s.Snapshots.Update(ctx, u)
}

// Delete removes the snapshot with its annotations. Deleting an unknown id succeeds.
func (s *Service) Delete(ctx context.Context, id string) (*domain.DeleteResult, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("delete snapshot: id is required: %w", domain.ErrInvalidPayload)
	}
	if err := s.Snapshots.Delete(ctx, id); err != nil {
		return nil, err
	}
	return &domain.DeleteResult{Success: true, ID: id}, nil
}

func (s *Service) AddAnnotation(ctx context.Context, a *domain.Annotation) (*domain.Annotation, error) {
	if a == nil {
		return nil, fmt.Errorf("add annotation: %w", domain.ErrInvalidPayload)
	}
	switch a.Type {
	case "highlight", "note":
	default:
		return nil, fmt.Errorf("annotation type %q: %w", a.Type, domain.ErrInvalidPayload)
	}
	if err := s.Annotations.Add(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.Categories.List(ctx)
}

func (s *Service) CreateCategory(ctx context.Context, c *domain.Category) (*domain.Category, error) {
	if err := s.Categories.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}
