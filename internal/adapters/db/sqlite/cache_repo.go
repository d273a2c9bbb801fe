package sqlite

import (
	"context"
	"database/sql"
	"learnsnap/internal/domain"

	sq "github.com/Masterminds/squirrel"
)

// CacheRepo is the content-addressed translation cache.
type CacheRepo struct{ *Repo }

func NewCacheRepo(db *sql.DB) *CacheRepo { return &CacheRepo{NewRepo(db)} }

func (r *CacheRepo) Get(ctx context.Context, key domain.CacheKey) (*domain.CacheEntry, error) {
	q := r.SQ.Select(
		"source_text",
		"src_lang",
		"tgt_lang",
		"translation",
		"ts",
	).
		From("translation_cache").
		Where(sq.Eq{
			"source_text": key.Text,
			"src_lang":    key.From,
			"tgt_lang":    key.To,
		}).
		Limit(1)
	sqlStr, args, _ := q.ToSql()
	row := r.DB.QueryRowContext(ctx, sqlStr, args...)
	var e domain.CacheEntry
	if err := row.Scan(
		&e.Text,
		&e.From,
		&e.To,
		&e.Translated,
		&e.Timestamp,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

// Put upserts the entry. An older timestamp never replaces a newer one.
func (r *CacheRepo) Put(ctx context.Context, entry *domain.CacheEntry) error {
	q := r.SQ.
		Insert("translation_cache").
		Columns(
			"source_text",
			"src_lang",
			"tgt_lang",
			"translation",
			"ts",
		).
		Values(
			entry.Text,
			entry.From,
			entry.To,
			entry.Translated,
			entry.Timestamp,
		).
		Suffix("ON CONFLICT(source_text, src_lang, tgt_lang) DO UPDATE SET translation=excluded.translation, ts=excluded.ts WHERE excluded.ts >= translation_cache.ts")
	sqlStr, args, _ := q.ToSql()
	_, err := r.DB.ExecContext(ctx, sqlStr, args...)
	return err
}

// Count reports the number of cached translations.
func (r *CacheRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(1) FROM translation_cache`).Scan(&n)
	return n, err
}
