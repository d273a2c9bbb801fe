package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"learnsnap/internal/domain"
)

type AnnotationRepo struct{ *Repo }

func NewAnnotationRepo(db *sql.DB) *AnnotationRepo { return &AnnotationRepo{NewRepo(db)} }

func (r *AnnotationRepo) Add(ctx context.Context, a *domain.Annotation) error {
	if a == nil || a.SnapshotID == "" {
		return fmt.Errorf("add annotation: %w", domain.ErrInvalidPayload)
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	return WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM snapshots WHERE id = ?`, a.SnapshotID).Scan(&n); err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("add annotation to %s: %w", a.SnapshotID, domain.ErrSnapshotNotFound)
		}
		return insertAnnotation(ctx, r.SQ, tx, a)
	})
}

func (r *AnnotationRepo) ListBySnapshot(ctx context.Context, snapshotID string) ([]domain.Annotation, error) {
	return listAnnotations(ctx, r.Repo, snapshotID)
}

func insertAnnotation(ctx context.Context, b sq.StatementBuilderType, tx *sql.Tx, a *domain.Annotation) error {
	q := b.Insert("annotations").
		Columns("id", "snapshot_id", "type", "range_start", "range_end", "xpath", "content", "color", "created_at").
		Values(a.ID, a.SnapshotID, a.Type, a.Range.Start, a.Range.End, a.Range.XPath, a.Content, a.Color, formatTime(a.CreatedAt))
	sqlStr, args, _ := q.ToSql()
	if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("insert annotation: %w", err)
	}
	return nil
}

func listAnnotations(ctx context.Context, r *Repo, snapshotID string) ([]domain.Annotation, error) {
	q := r.SQ.Select("id", "snapshot_id", "type", "range_start", "range_end", "xpath", "content", "color", "created_at").
		From("annotations").Where(sq.Eq{"snapshot_id": snapshotID}).OrderBy("created_at")
	sqlStr, args, _ := q.ToSql()
	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []domain.Annotation{}
	for rows.Next() {
		var a domain.Annotation
		var created string
		if err := rows.Scan(&a.ID, &a.SnapshotID, &a.Type, &a.Range.Start, &a.Range.End, &a.Range.XPath, &a.Content, &a.Color, &created); err != nil {
			return nil, err
		}
		a.CreatedAt = parseTime(created)
		out = append(out, a)
	}
	return out, rows.Err()
}
