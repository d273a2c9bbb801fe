// Package redis stores translations in Redis so several learnsnap processes can share one cache.
package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"learnsnap/internal/domain"
)

const keyPrefix = "learnsnap:translation:"

// Cache implements ports.TranslationCache on a Redis hash per key.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New returns a cache on client. A zero ttl keeps entries forever.
func New(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Dial connects to addr and verifies the connection.
func Dial(ctx context.Context, addr string, ttl time.Duration) (*Cache, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return New(rdb, ttl), nil
}

func (c *Cache) Close() error { return c.client.Close() }

func redisKey(k domain.CacheKey) string {
	sum := sha256.Sum256([]byte(k.From + "\x00" + k.To + "\x00" + k.Text))
	return keyPrefix + hex.EncodeToString(sum[:])
}

func (c *Cache) Get(ctx context.Context, key domain.CacheKey) (*domain.CacheEntry, error) {
	vals, err := c.client.HGetAll(ctx, redisKey(key)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis get translation: %w", err)
	}
	if len(vals) == 0 {
		return nil, nil
	}
	ts, _ := strconv.ParseInt(vals["ts"], 10, 64)
	return &domain.CacheEntry{Text: key.Text, From: key.From, To: key.To, Translated: vals["translated"], Timestamp: ts}, nil
}

// Put writes the entry unless a newer one is already stored.
func (c *Cache) Put(ctx context.Context, entry *domain.CacheEntry) error {
	k := redisKey(entry.Key())
	txf := func(tx *redis.Tx) error {
		cur, err := tx.HGet(ctx, k, "ts").Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if err == nil && cur > entry.Timestamp {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, k, "translated", entry.Translated, "ts", entry.Timestamp)
			if c.ttl > 0 {
				p.Expire(ctx, k, c.ttl)
			}
			return nil
		})
		return err
	}
	for i := 0; i < 3; i++ {
		err := c.client.Watch(ctx, txf, k)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("redis put translation: %w", err)
		}
		return nil
	}
	return fmt.Errorf("redis put translation: %w", redis.TxFailedErr)
}
