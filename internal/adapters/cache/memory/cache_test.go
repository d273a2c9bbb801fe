package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnsnap/internal/domain"
)

type countingCache struct {
	entries map[domain.CacheKey]domain.CacheEntry
	gets    int
	putErr  error
}

func (c *countingCache) Get(_ context.Context, k domain.CacheKey) (*domain.CacheEntry, error) {
	c.gets++
	e, ok := c.entries[k]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (c *countingCache) Put(_ context.Context, e *domain.CacheEntry) error {
	if c.putErr != nil {
		return c.putErr
	}
	c.entries[e.Key()] = *e
	return nil
}

func TestCache_ReadThrough(t *testing.T) {
	ctx := context.Background()
	key := domain.CacheKey{Text: "cat", From: "en", To: "es"}
	backing := &countingCache{entries: map[domain.CacheKey]domain.CacheEntry{
		key: {Text: "cat", From: "en", To: "es", Translated: "gato", Timestamp: 5},
	}}
	c, err := New(8, backing)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		e, err := c.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "gato", e.Translated)
	}
	assert.Equal(t, 1, backing.gets)
}

func TestCache_PutFailureNotRemembered(t *testing.T) {
	ctx := context.Background()
	backing := &countingCache{entries: map[domain.CacheKey]domain.CacheEntry{}, putErr: errors.New("disk full")}
	c, err := New(8, backing)
	require.NoError(t, err)

	err = c.Put(ctx, &domain.CacheEntry{Text: "a", From: "en", To: "es", Translated: "x", Timestamp: 1})
	require.Error(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestCache_KeepsNewest(t *testing.T) {
	ctx := context.Background()
	c, err := New(8, nil)
	require.NoError(t, err)
	require.NoError(t, c.Put(ctx, &domain.CacheEntry{Text: "a", From: "en", To: "es", Translated: "new", Timestamp: 9}))
	require.NoError(t, c.Put(ctx, &domain.CacheEntry{Text: "a", From: "en", To: "es", Translated: "old", Timestamp: 3}))

	e, err := c.Get(ctx, domain.CacheKey{Text: "a", From: "en", To: "es"})
	require.NoError(t, err)
	assert.Equal(t, "new", e.Translated)

	miss, err := c.Get(ctx, domain.CacheKey{Text: "b", From: "en", To: "es"})
	require.NoError(t, err)
	assert.Nil(t, miss)
}
