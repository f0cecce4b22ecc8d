package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestETagKey(t *testing.T) {
	assert.Equal(t, "screen:42:decision:etag", etagKey(42))
}

func TestPingWithoutClient(t *testing.T) {
	prev := Rdb
	Rdb = nil
	defer func() { Rdb = prev }()

	assert.Error(t, Ping(context.Background()))
}

// TestDecisionCacheRoundTrip needs a live redis at TEST_REDIS_ADDRESS.
func TestDecisionCacheRoundTrip(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDRESS")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDRESS not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	ctx := context.Background()
	cache := NewDecisionCache(client, time.Minute)

	require.NoError(t, cache.SetETag(ctx, 9001, `"abc"`))
	etag, err := cache.GetETag(ctx, 9001)
	require.NoError(t, err)
	assert.Equal(t, `"abc"`, etag)

	require.NoError(t, cache.DeleteETags(ctx, 9001))
	etag, err = cache.GetETag(ctx, 9001)
	require.NoError(t, err)
	assert.Empty(t, etag)
}
