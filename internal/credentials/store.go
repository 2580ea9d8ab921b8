package credentials

import (
	"context"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"
)

const defaultStoreKey = "catalog:providers:credentials:v1"

// Store persists runtime credential overrides across restarts.
type Store interface {
	Load(ctx context.Context) (map[string]string, error)
	Save(ctx context.Context, provider, key string) error
}

// RedisStore keeps overrides in one Redis hash, provider name → key.
type RedisStore struct {
	client redis.UniversalClient
	key    string
}

func NewRedisStore(client redis.UniversalClient, key string) *RedisStore {
	if client == nil {
		return nil
	}
	storeKey := strings.TrimSpace(key)
	if storeKey == "" {
		storeKey = defaultStoreKey
	}
	return &RedisStore{client: client, key: storeKey}
}

func (s *RedisStore) Load(ctx context.Context) (map[string]string, error) {
	if s == nil || s.client == nil {
		return nil, nil
	}
	items, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	out := make(map[string]string, len(items))
	for provider, key := range items {
		name := strings.ToLower(strings.TrimSpace(provider))
		if name == "" || strings.TrimSpace(key) == "" {
			continue
		}
		out[name] = strings.TrimSpace(key)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func (s *RedisStore) Save(ctx context.Context, provider, key string) error {
	if s == nil || s.client == nil {
		return nil
	}
	name := strings.ToLower(strings.TrimSpace(provider))
	if name == "" {
		return nil
	}
	value := strings.TrimSpace(key)
	if value == "" {
		return s.client.HDel(ctx, s.key, name).Err()
	}
	return s.client.HSet(ctx, s.key, name, value).Err()
}
