// Package store wraps the ephemeral key-value store used for verification
// records and rate-limit counters. Counters are fixed-window: SET NX seeds
// the window, DECR consumes from it, and the TTL set at seed time bounds it.
// Both primitives are atomic on the server, so concurrent requests cannot
// double-admit past a quota.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	autherror "github.com/daint2git/auth-service/internal/errors"
)

type Client struct {
	redis redis.UniversalClient
}

func New(redisClient redis.UniversalClient) *Client {
	return &Client{redis: redisClient}
}

// GetString returns the value at key and whether it exists.
func (c *Client) GetString(ctx context.Context, key string) (string, bool, error) {
	val, err := c.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", autherror.ErrStoreUnavailable, err)
	}
	return val, true, nil
}

// SetString stores value at key with the given TTL, overwriting any
// previous value.
func (c *Client) SetString(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.redis.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", autherror.ErrStoreUnavailable, err)
	}
	return nil
}

// SetStringNX stores value at key only if the key is absent. Returns whether
// the write happened.
func (c *Client) SetStringNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	ok, err := c.redis.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", autherror.ErrStoreUnavailable, err)
	}
	return ok, nil
}

// Delete removes the given keys. Missing keys are not an error.
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", autherror.ErrStoreUnavailable, err)
	}
	return nil
}

// InitCounter seeds a fixed-window counter if it does not exist yet. The TTL
// is only applied on the seeding write, so the window is anchored to the
// first request.
func (c *Client) InitCounter(ctx context.Context, key string, seed int, ttl time.Duration) error {
	if err := c.redis.SetNX(ctx, key, seed, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", autherror.ErrStoreUnavailable, err)
	}
	return nil
}

// Decrement atomically consumes one unit from a counter and returns the
// remaining budget. Negative results mean the quota was already exhausted.
func (c *Client) Decrement(ctx context.Context, key string) (int64, error) {
	remaining, err := c.redis.Decr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", autherror.ErrStoreUnavailable, err)
	}
	return remaining, nil
}
