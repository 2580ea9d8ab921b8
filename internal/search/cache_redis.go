package search

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"curately/catalogservice/internal/domain"
)

const redisCachePrefix = "catalog:cache:"

// RedisCacheBackend stores result bundles in Redis with JSON serialization so
// replicas share one cache.
type RedisCacheBackend struct {
	client *redis.Client
}

func NewRedisCacheBackend(client *redis.Client) *RedisCacheBackend {
	return &RedisCacheBackend{client: client}
}

func (r *RedisCacheBackend) Get(ctx context.Context, key string) (domain.ResultBundle, bool, error) {
	data, err := r.client.Get(ctx, redisCachePrefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return domain.ResultBundle{}, false, nil
		}
		return domain.ResultBundle{}, false, err
	}
	var bundle domain.ResultBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return domain.ResultBundle{}, false, err
	}
	return bundle, true, nil
}

func (r *RedisCacheBackend) Set(ctx context.Context, key string, bundle domain.ResultBundle, ttl time.Duration) error {
	data, err := json.Marshal(bundle)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, redisCachePrefix+key, data, ttl).Err()
}

func (r *RedisCacheBackend) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, redisCachePrefix+key).Err()
}

func (r *RedisCacheBackend) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
