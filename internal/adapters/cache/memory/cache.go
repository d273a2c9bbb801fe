// Package memory keeps recently used translations in process in front of a durable cache.
package memory

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"learnsnap/internal/domain"
	"learnsnap/internal/ports"
)

type Cache struct {
	recent *lru.Cache[domain.CacheKey, domain.CacheEntry]
	next   ports.TranslationCache
}

// New wraps next with an LRU of the given size. next may be nil for a process-local cache.
func New(size int, next ports.TranslationCache) (*Cache, error) {
	l, err := lru.New[domain.CacheKey, domain.CacheEntry](size)
	if err != nil {
		return nil, err
	}
	return &Cache{recent: l, next: next}, nil
}

func (c *Cache) Get(ctx context.Context, key domain.CacheKey) (*domain.CacheEntry, error) {
	if e, ok := c.recent.Get(key); ok {
		return &e, nil
	}
	if c.next == nil {
		return nil, nil
	}
	e, err := c.next.Get(ctx, key)
	if err != nil || e == nil {
		return e, err
	}
	c.remember(*e)
	return e, nil
}

func (c *Cache) Put(ctx context.Context, entry *domain.CacheEntry) error {
	if c.next != nil {
		if err := c.next.Put(ctx, entry); err != nil {
			return err
		}
	}
	c.remember(*entry)
	return nil
}

func (c *Cache) Len() int { return c.recent.Len() }

func (c *Cache) remember(e domain.CacheEntry) {
	if cur, ok := c.recent.Peek(e.Key()); ok && cur.Timestamp > e.Timestamp {
		return
	}
	c.recent.Add(e.Key(), e)
}
