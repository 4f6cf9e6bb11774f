package cache

import (
	"context"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

// TokenCache stores session tokens in Redis. A zero ttl keeps keys until they
// are deleted explicitly.
type TokenCache struct {
	client    *redisv9.Client
	namespace string
	ttl       time.Duration
}

func NewTokenCache(client *redisv9.Client, namespace string, ttl time.Duration) *TokenCache {
	if ttl < 0 {
		ttl = 0
	}
	return &TokenCache{
		client:    client,
		namespace: namespace,
		ttl:       ttl,
	}
}

func (c *TokenCache) Get(ctx context.Context, key string) (string, bool, error) {
	raw, err := c.client.Get(ctx, c.key(key)).Result()
	if err == redisv9.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get token failed: %w", err)
	}
	return raw, true, nil
}

func (c *TokenCache) Set(ctx context.Context, key, value string) error {
	if err := c.client.Set(ctx, c.key(key), value, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set token failed: %w", err)
	}
	return nil
}

func (c *TokenCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		return fmt.Errorf("redis delete token failed: %w", err)
	}
	return nil
}

func (c *TokenCache) key(key string) string {
	if c.namespace == "" {
		return key
	}
	return fmt.Sprintf("%s:%s", c.namespace, key)
}
