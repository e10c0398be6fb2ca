package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stakeline/stakeline/internal/domain"
)

const statsKey = "pool:stats"

// StatsCache implements domain.StatsCache using a single JSON-serialized
// Redis key with a short TTL. The cache is strictly advisory; misses fall
// through to the in-memory core.
type StatsCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStatsCache creates a StatsCache backed by the given Client.
func NewStatsCache(c *Client, ttl time.Duration) *StatsCache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &StatsCache{rdb: c.Underlying(), ttl: ttl}
}

// SetStats stores the aggregate pool snapshot with the configured TTL.
func (sc *StatsCache) SetStats(ctx context.Context, stats domain.PoolStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("redis: marshal pool stats: %w", err)
	}
	if err := sc.rdb.Set(ctx, statsKey, data, sc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set pool stats: %w", err)
	}
	return nil
}

// GetStats retrieves the cached pool snapshot. It returns domain.ErrNotFound
// when the key does not exist or has expired.
func (sc *StatsCache) GetStats(ctx context.Context) (domain.PoolStats, error) {
	data, err := sc.rdb.Get(ctx, statsKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.PoolStats{}, domain.ErrNotFound
		}
		return domain.PoolStats{}, fmt.Errorf("redis: get pool stats: %w", err)
	}

	var stats domain.PoolStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return domain.PoolStats{}, fmt.Errorf("redis: unmarshal pool stats: %w", err)
	}
	return stats, nil
}

// Compile-time interface check.
var _ domain.StatsCache = (*StatsCache)(nil)
