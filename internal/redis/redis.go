package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var Rdb *redis.Client

func InitRedis(redisAddress string, redisUsername string, redisPassword string) {
	Rdb = redis.NewClient(&redis.Options{
		Addr:     redisAddress,
		Username: redisUsername,
		Password: redisPassword,
		DB:       0,
	})
	log.Info().Str("address", redisAddress).Msg("redis client configured")
}

// Ping checks the connection. Callers fall back to in-process caching when it fails.
func Ping(ctx context.Context) error {
	if Rdb == nil {
		return errors.New("redis is not initialized")
	}
	return Rdb.Ping(ctx).Err()
}

func etagKey(screenID int) string {
	return fmt.Sprintf("screen:%d:decision:etag", screenID)
}

// DecisionCache keeps the last ETag pushed to each screen in redis.
type DecisionCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDecisionCache(client *redis.Client, ttl time.Duration) *DecisionCache {
	return &DecisionCache{client: client, ttl: ttl}
}

func (c *DecisionCache) GetETag(ctx context.Context, screenID int) (string, error) {
	etag, err := c.client.Get(ctx, etagKey(screenID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return etag, err
}

func (c *DecisionCache) SetETag(ctx context.Context, screenID int, etag string) error {
	return c.client.Set(ctx, etagKey(screenID), etag, c.ttl).Err()
}

func (c *DecisionCache) DeleteETags(ctx context.Context, screenIDs ...int) error {
	if len(screenIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(screenIDs))
	for _, id := range screenIDs {
		keys = append(keys, etagKey(id))
	}
	return c.client.Del(ctx, keys...).Err()
}
