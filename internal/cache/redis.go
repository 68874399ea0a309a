package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/songzhibin97/tokenlab/internal/models"
)

// Redis is the shared Store for multi-instance deployments.
type Redis struct {
	client *redis.Client

	hits   atomic.Int64
	misses atomic.Int64
}

func NewRedis(addr, password string, db int) *Redis {
	return &Redis{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func (r *Redis) Get(ctx context.Context, token, chainID string) (*models.RiskResult, error) {
	raw, err := r.client.Get(ctx, Key(token, chainID)).Bytes()
	if errors.Is(err, redis.Nil) {
		r.misses.Add(1)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}

	var result models.RiskResult
	if err := json.Unmarshal(raw, &result); err != nil {
		// A corrupt entry behaves like a miss; the next Set repairs it.
		r.misses.Add(1)
		return nil, nil
	}
	r.hits.Add(1)
	return &result, nil
}

func (r *Redis) Set(ctx context.Context, token, chainID string, result *models.RiskResult, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	if err := r.client.Set(ctx, Key(token, chainID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

func (r *Redis) Stats() (hits, misses int64) {
	return r.hits.Load(), r.misses.Load()
}

// Ping verifies connectivity at startup.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
