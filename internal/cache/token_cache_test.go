package cache

import (
	"context"
	"os"
	"testing"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenCache(t *testing.T) *TokenCache {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis-backed token cache tests")
	}
	client := redisv9.NewClient(&redisv9.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, client.Ping(ctx).Err())
	return NewTokenCache(client, "test:"+t.Name(), 0)
}

func TestTokenCacheRoundTrip(t *testing.T) {
	c := newTestTokenCache(t)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "infosec_jwt_token")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "infosec_jwt_token", "abc"))
	v, ok, err := c.Get(ctx, "infosec_jwt_token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", v)

	require.NoError(t, c.Delete(ctx, "infosec_jwt_token"))
	_, ok, err = c.Get(ctx, "infosec_jwt_token")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTokenCacheKeyNamespace(t *testing.T) {
	assert.Equal(t, "infosec:tok", NewTokenCache(nil, "infosec", 0).key("tok"))
	assert.Equal(t, "tok", NewTokenCache(nil, "", 0).key("tok"))
}
