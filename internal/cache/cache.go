// Package cache stores short-lived string values, backed by Redis when a URL
// is configured and by process memory otherwise.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

type Cache interface {
	// Get returns ok=false on a miss.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Close() error
}

// New returns a Redis cache for a non-empty url, a memory cache otherwise.
// ttl is the memory cache's entry lifetime.
func New(ctx context.Context, url, prefix string, ttl time.Duration) (Cache, error) {
	if url == "" {
		return NewMemory(MemorySize, ttl), nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	c := NewRedis(redis.NewClient(opt), prefix)
	if err := c.client.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return c, nil
}

type Redis struct {
	client *redis.Client
	prefix string
}

func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %q: %w", key, err)
	}
	return v, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

func (r *Redis) Close() error { return r.client.Close() }

// MemorySize bounds the number of entries a memory cache holds.
const MemorySize = 4096

type entry struct {
	value   string
	expires time.Time
}

// Memory is a size-bounded LRU whose entries expire after the TTL it was
// built with. A shorter TTL passed to Set is honoured on Get.
type Memory struct {
	lru *expirable.LRU[string, entry]
}

// NewMemory returns a cache holding at most size entries. A ttl of zero
// keeps entries until they are evicted by size.
func NewMemory(size int, ttl time.Duration) *Memory {
	return &Memory{lru: expirable.NewLRU[string, entry](size, nil, ttl)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	e, ok := m.lru.Get(key)
	if !ok {
		return "", false, nil
	}
	if !e.expires.IsZero() && !time.Now().Before(e.expires) {
		m.lru.Remove(key)
		return "", false, nil
	}
	return e.value, true, nil
}

func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	e := entry{value: value}
	if ttl > 0 {
		e.expires = time.Now().Add(ttl)
	}
	m.lru.Add(key, e)
	return nil
}

// Len reports the entries currently held, expired ones included until the
// background sweep reaches them.
func (m *Memory) Len() int { return m.lru.Len() }

func (m *Memory) Close() error {
	m.lru.Purge()
	return nil
}
