package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/skillbridge-hub/skillbridge-engine/pkg/circuitbreaker"
	"github.com/skillbridge-hub/skillbridge-engine/pkg/retry"
)

// keyBadgeEarned prefixes the per-badge earned counters.
const keyBadgeEarned = "skillbridge:badge:earned:"

// ══════════════════════════════════════════════════════════════════════════════
// BADGE EARNED COUNTER
// One INCR-backed counter per badge. Monotonic and eventually consistent: a
// missed increment undercounts until the reconcile sweep rebuilds the key
// from the earned sets in PostgreSQL.
// ══════════════════════════════════════════════════════════════════════════════

// EarnedCounter implements badge.EarnedCounter on Redis counters.
type EarnedCounter struct {
	client  *redis.Client
	retrier *retry.Retrier
	breaker *circuitbreaker.CircuitBreaker
}

// NewEarnedCounter creates a new EarnedCounter.
func NewEarnedCounter(client *redis.Client) *EarnedCounter {
	return &EarnedCounter{
		client:  client,
		retrier: retry.RedisRetrier(),
		breaker: circuitbreaker.RedisBreaker(nil),
	}
}

// Increment bumps the badge's global earned count by one.
func (c *EarnedCounter) Increment(ctx context.Context, badgeID string) error {
	return c.execute(ctx, func(ctx context.Context) error {
		return c.client.Incr(ctx, keyBadgeEarned+badgeID).Err()
	})
}

// Get returns the current earned count. An absent key counts as zero.
func (c *EarnedCounter) Get(ctx context.Context, badgeID string) (int64, error) {
	var count int64
	err := c.execute(ctx, func(ctx context.Context) error {
		var err error
		count, err = c.client.Get(ctx, keyBadgeEarned+badgeID).Int64()
		if errors.Is(err, redis.Nil) {
			count = 0
			return nil
		}
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("earned counter get: %w", err)
	}
	return count, nil
}

// Set overwrites the counter, used by the reconcile sweep.
func (c *EarnedCounter) Set(ctx context.Context, badgeID string, count int64) error {
	return c.execute(ctx, func(ctx context.Context) error {
		return c.client.Set(ctx, keyBadgeEarned+badgeID, count, 0).Err()
	})
}

func (c *EarnedCounter) execute(ctx context.Context, fn func(ctx context.Context) error) error {
	return c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			if err := fn(ctx); err != nil {
				return retry.Retryable(err)
			}
			return nil
		})
	})
}
