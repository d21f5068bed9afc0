package kyc

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	id "corebank/pkg/domain"
)

// EligibilityCache memoizes gating verdicts. A cache is always optional:
// the service treats a nil cache and a cache miss identically.
type EligibilityCache interface {
	Get(ctx context.Context, userID id.UserID) (verdict string, ok bool, err error)
	Set(ctx context.Context, userID id.UserID, verdict string) error
	Invalidate(ctx context.Context, userID id.UserID) error
}

// verdictAllowed is the cached value for an eligible user; any other cached
// value is the denial reason verbatim.
const verdictAllowed = "allowed"

// RedisEligibilityCache stores verdicts under a per-user key with a short
// TTL. Writes to the verification history invalidate the key, so the TTL
// only bounds staleness from the validity-window clock.
type RedisEligibilityCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisEligibilityCache(client *redis.Client, ttl time.Duration) *RedisEligibilityCache {
	return &RedisEligibilityCache{client: client, ttl: ttl}
}

func cacheKey(userID id.UserID) string {
	return "kyc:eligibility:" + userID.String()
}

func (c *RedisEligibilityCache) Get(ctx context.Context, userID id.UserID) (string, bool, error) {
	verdict, err := c.client.Get(ctx, cacheKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return verdict, true, nil
}

func (c *RedisEligibilityCache) Set(ctx context.Context, userID id.UserID, verdict string) error {
	return c.client.Set(ctx, cacheKey(userID), verdict, c.ttl).Err()
}

func (c *RedisEligibilityCache) Invalidate(ctx context.Context, userID id.UserID) error {
	return c.client.Del(ctx, cacheKey(userID)).Err()
}
