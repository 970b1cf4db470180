package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "webhook:msg:"

	// defaultTTL is how long a message ID is remembered. It only needs to
	// outlive the provider's retry schedule.
	defaultTTL = 24 * time.Hour
)

// ReplayCacheArgs are the mandatory arguments for building a ReplayCache.
type ReplayCacheArgs struct {
	// Client is a redis client handle
	Client *redis.Client
}

// ReplayCacheOptArgs are the optional arguments for building a ReplayCache.
type ReplayCacheOptArgs = func(*ReplayCache)

// WithTTL overrides the retention window for seen message IDs.
func WithTTL(ttl time.Duration) ReplayCacheOptArgs {
	return func(c *ReplayCache) {
		c.ttl = ttl
	}
}

// NewReplayCache creates a new ReplayCache.
func NewReplayCache(args ReplayCacheArgs, optArgs ...ReplayCacheOptArgs) (*ReplayCache, error) {
	if args.Client == nil {
		return nil, errors.New("redis client is nil")
	}
	c := &ReplayCache{client: args.Client, ttl: defaultTTL}
	for _, opt := range optArgs {
		opt(c)
	}
	return c, nil
}

// ReplayCache deduplicates webhook message IDs in redis. SETNX gives the
// check-and-remember a single round trip and no race between concurrent
// deliveries of the same message.
type ReplayCache struct {
	client *redis.Client
	ttl    time.Duration
}

// Remember records the message ID and reports whether it was already seen.
func (c *ReplayCache) Remember(ctx context.Context, messageID string) (bool, error) {
	stored, err := c.client.SetNX(ctx, keyPrefix+messageID, 1, c.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("error recording webhook message id: %w", err)
	}
	return !stored, nil
}
