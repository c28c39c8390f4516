package notify

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// UnreadCache caches per-user unread notification counts. Implementations
// report a miss with ok=false.
type UnreadCache interface {
	Get(ctx context.Context, userID string) (count int64, ok bool, err error)
	Set(ctx context.Context, userID string, count int64) error
	Invalidate(ctx context.Context, userID string) error
}

const unreadKeyPrefix = "notifications:unread:"

type redisUnreadCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisUnreadCache stores counts under notifications:unread:<user id>.
// A nil client yields a cache that always misses.
func NewRedisUnreadCache(client *redis.Client, ttl time.Duration) UnreadCache {
	if client == nil {
		return NoopUnreadCache{}
	}
	return &redisUnreadCache{client: client, ttl: ttl}
}

func (c *redisUnreadCache) Get(ctx context.Context, userID string) (int64, bool, error) {
	raw, err := c.client.Get(ctx, unreadKeyPrefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	count, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	return count, true, nil
}

func (c *redisUnreadCache) Set(ctx context.Context, userID string, count int64) error {
	return c.client.Set(ctx, unreadKeyPrefix+userID, count, c.ttl).Err()
}

func (c *redisUnreadCache) Invalidate(ctx context.Context, userID string) error {
	return c.client.Del(ctx, unreadKeyPrefix+userID).Err()
}

// NoopUnreadCache never stores anything.
type NoopUnreadCache struct{}

func (NoopUnreadCache) Get(context.Context, string) (int64, bool, error) { return 0, false, nil }
func (NoopUnreadCache) Set(context.Context, string, int64) error         { return nil }
func (NoopUnreadCache) Invalidate(context.Context, string) error         { return nil }
