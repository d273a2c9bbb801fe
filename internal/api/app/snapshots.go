package app

import (
	"context"

	"learnsnap/internal/domain"
	"learnsnap/internal/transport"
)

type SnapshotAPI struct{ bg *transport.Client }

func NewSnapshotAPI(bg *transport.Client) *SnapshotAPI { return &SnapshotAPI{bg: bg} }

// List returns every snapshot when q is empty and the matching ones otherwise.
func (a *SnapshotAPI) List(ctx context.Context, q domain.SnapshotQuery) ([]*domain.Snapshot, error) {
	var out []*domain.Snapshot
	kind := domain.KindSearchSnapshots
	var payload any = q
	if q.Query == "" && q.Category == "" {
		kind, payload = domain.KindListSnapshots, nil
	}
	if err := a.bg.Call(ctx, kind, payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns nil when no snapshot has the id.
func (a *SnapshotAPI) Get(ctx context.Context, id string) (*domain.Snapshot, error) {
	var s *domain.Snapshot
	if err := a.bg.Call(ctx, domain.KindGetSnapshot, id, &s); err != nil {
		return nil, err
	}
	return s, nil
}

func (a *SnapshotAPI) Delete(ctx context.Context, id string) (domain.DeleteResult, error) {
	var res domain.DeleteResult
	err := a.bg.Call(ctx, domain.KindDeleteSnapshot, id, &res)
	return res, err
}

func (a *SnapshotAPI) Update(ctx context.Context, u domain.SnapshotUpdate) (*domain.Snapshot, error) {
	var s domain.Snapshot
	if err := a.bg.Call(ctx, domain.KindUpdateSnapshot, u, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (a *SnapshotAPI) Annotate(ctx context.Context, ann domain.Annotation) (*domain.Annotation, error) {
	var out domain.Annotation
	if err := a.bg.Call(ctx, domain.KindAddAnnotation, ann, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Capture asks the active tab to capture its page. It returns once the request is forwarded.
func (a *SnapshotAPI) Capture(ctx context.Context) (domain.CaptureAck, error) {
	var ack domain.CaptureAck
	err := a.bg.Call(ctx, domain.KindCaptureSnapshot, nil, &ack)
	return ack, err
}

func (a *SnapshotAPI) Categories(ctx context.Context) ([]*domain.Category, error) {
	var out []*domain.Category
	if err := a.bg.Call(ctx, domain.KindListCategories, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *SnapshotAPI) CreateCategory(ctx context.Context, c domain.Category) (*domain.Category, error) {
	var out domain.Category
	if err := a.bg.Call(ctx, domain.KindCreateCategory, c, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
