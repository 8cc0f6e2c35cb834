package auth

import (
	"context"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zeebo/blake3"
)

// IdentityCache remembers which user an already verified API key belongs
// to, so repeat requests skip bcrypt. Only the user id is cached; the user
// itself is always reloaded.
type IdentityCache interface {
	Lookup(ctx context.Context, apiKey string) (userID int64, ok bool, err error)
	Remember(ctx context.Context, apiKey string, userID int64) error
}

// NewIdentityCache returns a Redis-backed cache, or a no-op cache when the
// client is nil or ttl is zero.
func NewIdentityCache(client *redis.Client, ttl time.Duration) IdentityCache {
	if client == nil || ttl <= 0 {
		return noopCache{}
	}
	return &redisCache{client: client, ttl: ttl}
}

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func (c *redisCache) Lookup(ctx context.Context, apiKey string) (int64, bool, error) {
	val, err := c.client.Get(ctx, cacheKey(apiKey)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	return id, true, nil
}

func (c *redisCache) Remember(ctx context.Context, apiKey string, userID int64) error {
	return c.client.Set(ctx, cacheKey(apiKey), strconv.FormatInt(userID, 10), c.ttl).Err()
}

// cacheKey never stores the plaintext key.
func cacheKey(apiKey string) string {
	sum := blake3.Sum256([]byte(apiKey))
	return "identity:apikey:" + hex.EncodeToString(sum[:])
}

type noopCache struct{}

func (noopCache) Lookup(context.Context, string) (int64, bool, error) { return 0, false, nil }

func (noopCache) Remember(context.Context, string, int64) error { return nil }
