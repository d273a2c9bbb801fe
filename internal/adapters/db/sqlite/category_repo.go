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

type CategoryRepo struct{ *Repo }

func NewCategoryRepo(db *sql.DB) *CategoryRepo { return &CategoryRepo{NewRepo(db)} }

func (r *CategoryRepo) Create(ctx context.Context, c *domain.Category) error {
	if c == nil || c.Name == "" {
		return fmt.Errorf("create category: name is required: %w", domain.ErrInvalidPayload)
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	q := r.SQ.Insert("categories").Columns("id", "name", "parent_id", "created_at", "updated_at").
		Values(c.ID, c.Name, c.ParentID, formatTime(now), formatTime(now))
	sqlStr, args, _ := q.ToSql()
	_, err := r.DB.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *CategoryRepo) List(ctx context.Context) ([]*domain.Category, error) {
	q := r.SQ.Select("id", "name", "parent_id", "created_at", "updated_at").From("categories").OrderBy("name")
	sqlStr, args, _ := q.ToSql()
	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*domain.Category{}
	for rows.Next() {
		var c domain.Category
		var created, updated string
		if err := rows.Scan(&c.ID, &c.Name, &c.ParentID, &created, &updated); err != nil {
			return nil, err
		}
		c.CreatedAt = parseTime(created)
		c.UpdatedAt = parseTime(updated)
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (r *CategoryRepo) Delete(ctx context.Context, id string) error {
	q := r.SQ.Delete("categories").Where(sq.Eq{"id": id})
	sqlStr, args, _ := q.ToSql()
	_, err := r.DB.ExecContext(ctx, sqlStr, args...)
	return err
}
