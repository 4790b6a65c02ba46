package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/gigmarket/internal/domain"
)

const keyPrefix = "gigmarket:aggregate:"

// ErrMiss is returned by Get when the aggregate is not cached.
var ErrMiss = errors.New("aggregate not cached")

// storeIfNewer writes the aggregate only when its version is newer than the
// cached one, so a slow writer can never replace a fresher value.
//
// KEYS[1] cache key; ARGV[1] version; ARGV[2] JSON payload; ARGV[3] TTL ms.
var storeIfNewer = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], 'version')
if current and tonumber(current) >= tonumber(ARGV[1]) then
	return 0
end
redis.call('HSET', KEYS[1], 'version', ARGV[1], 'data', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return 1
`)

// AggregateCache is the shared Redis copy of gig and seller aggregates.
type AggregateCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewAggregateCache creates a Redis-backed aggregate cache.
func NewAggregateCache(client *redis.Client, ttl time.Duration) *AggregateCache {
	return &AggregateCache{client: client, ttl: ttl}
}

func key(scope domain.AggregateScope, id string) string {
	return keyPrefix + string(scope) + ":" + id
}

// Get returns the cached aggregate or ErrMiss.
func (c *AggregateCache) Get(ctx context.Context, scope domain.AggregateScope, id string) (*domain.Aggregate, error) {
	data, err := c.client.HGet(ctx, key(scope, id), "data").Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("redis get aggregate: %w", err)
	}

	var agg domain.Aggregate
	if err := json.Unmarshal(data, &agg); err != nil {
		return nil, fmt.Errorf("unmarshal aggregate: %w", err)
	}
	return &agg, nil
}

// Set stores agg unless an equal or newer version is already cached. It
// reports whether the value was written.
func (c *AggregateCache) Set(ctx context.Context, agg domain.Aggregate) (bool, error) {
	data, err := json.Marshal(agg)
	if err != nil {
		return false, fmt.Errorf("marshal aggregate: %w", err)
	}

	written, err := storeIfNewer.Run(ctx, c.client,
		[]string{key(agg.Scope, agg.ID)},
		agg.Version, data, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("redis store aggregate: %w", err)
	}
	return written == 1, nil
}

// Ping checks the Redis connection.
func (c *AggregateCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
