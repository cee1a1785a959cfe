package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mkmonette/dish-nation-suite-sub001/internal/domain"
)

var ErrCacheMiss = errors.New("cache miss")

type MenuCache interface {
	Get(ctx context.Context, vendorID string) ([]*domain.MenuItem, error)
	Set(ctx context.Context, vendorID string, items []*domain.MenuItem) error
	Delete(ctx context.Context, vendorID string) error
}

func NewRedisCache(client *redis.Client, baseTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: baseTTL,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r RedisCache) Get(ctx context.Context, vendorID string) ([]*domain.MenuItem, error) {
	data, err := r.client.Get(ctx, cacheKey(vendorID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var items []*domain.MenuItem
	if err2 := json.Unmarshal(data, &items); err2 != nil {
		return nil, fmt.Errorf("unmarshal menu failed: %w", err2)
	}
	return items, nil
}

func (r RedisCache) Set(ctx context.Context, vendorID string, items []*domain.MenuItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal menu failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(60)) * time.Second
	if err := r.client.Set(ctx, cacheKey(vendorID), data, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r RedisCache) Delete(ctx context.Context, vendorID string) error {
	if err := r.client.Del(ctx, cacheKey(vendorID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(vendorID string) string {
	return fmt.Sprintf("menu:%s", vendorID)
}

// NopCache always misses.
type NopCache struct{}

func (NopCache) Get(context.Context, string) ([]*domain.MenuItem, error) { return nil, ErrCacheMiss }

func (NopCache) Set(context.Context, string, []*domain.MenuItem) error { return nil }

func (NopCache) Delete(context.Context, string) error { return nil }
