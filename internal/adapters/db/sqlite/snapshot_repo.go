package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"learnsnap/internal/domain"
)

var snapshotColumns = []string{
	"s.id", "s.title", "s.url", "s.content_html", "s.content_text", "s.content_markdown",
	"s.metadata_json", "s.categories_json", "s.tags_json", "s.rating", "s.created_at", "s.updated_at",
}

type SnapshotRepo struct {
	*Repo
	Now   func() time.Time
	NewID func() string
}

func NewSnapshotRepo(db *sql.DB) *SnapshotRepo {
	return &SnapshotRepo{Repo: NewRepo(db), Now: time.Now, NewID: uuid.NewString}
}

// Create assigns an identity to the draft and stores it with its categories and annotations.
func (r *SnapshotRepo) Create(ctx context.Context, d *domain.SnapshotDraft) (*domain.Snapshot, error) {
	if d == nil {
		return nil, fmt.Errorf("create snapshot: %w", domain.ErrInvalidPayload)
	}
	now := r.Now().UTC()
	s := &domain.Snapshot{ID: r.NewID(), SnapshotDraft: *d, CreatedAt: now, UpdatedAt: now}
	if s.Annotations == nil {
		s.Annotations = []domain.Annotation{}
	}
	if s.Categories == nil {
		s.Categories = []string{}
	}
	meta, err := json.Marshal(s.Metadata)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	err = WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		q := r.SQ.Insert("snapshots").
			Columns("id", "title", "url", "content_html", "content_text", "content_markdown", "description",
				"metadata_json", "categories_json", "tags_json", "rating", "created_at", "updated_at").
			Values(s.ID, s.Title, s.URL, s.Content.HTML, s.Content.Text, s.Content.Markdown, s.Metadata.Description,
				string(meta), marshalList(s.Categories), marshalList(s.Tags), s.Rating, formatTime(now), formatTime(now))
		sqlStr, args, _ := q.ToSql()
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}
		if err := r.writeCategories(ctx, tx, s.ID, s.Categories); err != nil {
			return err
		}
		for i := range s.Annotations {
			a := &s.Annotations[i]
			a.SnapshotID = s.ID
			if a.ID == "" {
				a.ID = r.NewID()
			}
			if a.CreatedAt.IsZero() {
				a.CreatedAt = now
			}
			if err := insertAnnotation(ctx, r.SQ, tx, a); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SnapshotRepo) writeCategories(ctx context.Context, tx *sql.Tx, id string, categories []string) error {
	del := r.SQ.Delete("snapshot_categories").Where(sq.Eq{"snapshot_id": id})
	sqlStr, args, _ := del.ToSql()
	if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("clear categories: %w", err)
	}
	seen := map[string]struct{}{}
	ib := r.SQ.Insert("snapshot_categories").Columns("snapshot_id", "category")
	n := 0
	for _, c := range categories {
		if _, ok := seen[c]; ok || c == "" {
			continue
		}
		seen[c] = struct{}{}
		ib = ib.Values(id, c)
		n++
	}
	if n == 0 {
		return nil
	}
	sqlStr, args, _ = ib.ToSql()
	if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("insert categories: %w", err)
	}
	return nil
}

// Get returns nil, nil when no snapshot has the id.
func (r *SnapshotRepo) Get(ctx context.Context, id string) (*domain.Snapshot, error) {
	list, err := r.query(ctx, r.SQ.Select(snapshotColumns...).From("snapshots s").Where(sq.Eq{"s.id": id}).Limit(1))
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// List returns every snapshot, newest first.
func (r *SnapshotRepo) List(ctx context.Context) ([]*domain.Snapshot, error) {
	return r.query(ctx, r.SQ.Select(snapshotColumns...).From("snapshots s").OrderBy("s.created_at DESC"))
}

func (r *SnapshotRepo) ListByCategory(ctx context.Context, category string) ([]*domain.Snapshot, error) {
	q := r.SQ.Select(snapshotColumns...).From("snapshots s").
		Join("snapshot_categories c ON c.snapshot_id = s.id").
		Where(sq.Eq{"c.category": category}).
		OrderBy("s.created_at DESC")
	return r.query(ctx, q)
}

// Search matches the query case-insensitively against title, text and description.
// SQLite's lower() folds ASCII only, so matching happens in Go.
func (r *SnapshotRepo) Search(ctx context.Context, query string) ([]*domain.Snapshot, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := []*domain.Snapshot{}
	for _, snap := range all {
		if snap.Matches(query) {
			out = append(out, snap)
		}
	}
	return out, nil
}

func (r *SnapshotRepo) Update(ctx context.Context, u *domain.SnapshotUpdate) (*domain.Snapshot, error) {
	if u == nil || u.ID == "" {
		return nil, fmt.Errorf("update snapshot: %w", domain.ErrInvalidPayload)
	}
	cur, err := r.Get(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, fmt.Errorf("update snapshot %s: %w", u.ID, domain.ErrSnapshotNotFound)
	}
	q := r.SQ.Update("snapshots").Set("updated_at", formatTime(r.Now())).Where(sq.Eq{"id": u.ID})
	if u.Title != nil {
		q = q.Set("title", *u.Title)
	}
	if u.Categories != nil {
		q = q.Set("categories_json", marshalList(*u.Categories))
	}
	if u.Tags != nil {
		q = q.Set("tags_json", marshalList(*u.Tags))
	}
	if u.Rating != nil {
		if *u.Rating < 0 || *u.Rating > 5 {
			return nil, fmt.Errorf("rating %d out of range 0..5: %w", *u.Rating, domain.ErrInvalidPayload)
		}
		q = q.Set("rating", *u.Rating)
	}
	err = WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		sqlStr, args, _ := q.ToSql()
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return fmt.Errorf("update snapshot: %w", err)
		}
		if u.Categories != nil {
			return r.writeCategories(ctx, tx, u.ID, *u.Categories)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, u.ID)
}

// Delete removes the snapshot and every annotation referencing it in one transaction.
func (r *SnapshotRepo) Delete(ctx context.Context, id string) error {
	return WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		for _, q := range []sq.DeleteBuilder{
			r.SQ.Delete("annotations").Where(sq.Eq{"snapshot_id": id}),
			r.SQ.Delete("snapshot_categories").Where(sq.Eq{"snapshot_id": id}),
			r.SQ.Delete("snapshots").Where(sq.Eq{"id": id}),
		} {
			sqlStr, args, _ := q.ToSql()
			if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
				return fmt.Errorf("delete snapshot %s: %w", id, err)
			}
		}
		return nil
	})
}

func (r *SnapshotRepo) query(ctx context.Context, q sq.SelectBuilder) ([]*domain.Snapshot, error) {
	sqlStr, args, _ := q.ToSql()
	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	var out []*domain.Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()
	// Annotations are loaded after the cursor is closed; the pool holds a single connection.
	for _, s := range out {
		anns, err := listAnnotations(ctx, r.Repo, s.ID)
		if err != nil {
			return nil, err
		}
		s.Annotations = anns
	}
	if out == nil {
		out = []*domain.Snapshot{}
	}
	return out, nil
}

func scanSnapshot(rows *sql.Rows) (*domain.Snapshot, error) {
	var s domain.Snapshot
	var meta, cats, tags, created, updated string
	if err := rows.Scan(&s.ID, &s.Title, &s.URL, &s.Content.HTML, &s.Content.Text, &s.Content.Markdown,
		&meta, &cats, &tags, &s.Rating, &created, &updated); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(meta), &s.Metadata); err != nil {
		return nil, fmt.Errorf("decode metadata of %s: %w", s.ID, err)
	}
	s.Categories = unmarshalList(cats)
	s.Tags = unmarshalList(tags)
	s.CreatedAt = parseTime(created)
	s.UpdatedAt = parseTime(updated)
	return &s, nil
}
