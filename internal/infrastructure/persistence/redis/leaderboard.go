// Package redis implements the Redis-backed side of the engine: the XP
// leaderboard sorted set and the global badge earned counters. Both are
// rebuildable projections; the authoritative state lives in PostgreSQL.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/shared"
	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/user"
	"github.com/skillbridge-hub/skillbridge-engine/pkg/circuitbreaker"
	"github.com/skillbridge-hub/skillbridge-engine/pkg/retry"
)

// keyLeaderboard is the sorted set holding userID -> XP.
const keyLeaderboard = "skillbridge:leaderboard:xp"

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD
// Sorted set scored by XP: O(log N) updates and rank lookups. Writes are
// retried and breaker-guarded; a down Redis degrades ranking, never XP.
// ══════════════════════════════════════════════════════════════════════════════

// Leaderboard implements user.Leaderboard on a Redis sorted set.
type Leaderboard struct {
	client  *redis.Client
	retrier *retry.Retrier
	breaker *circuitbreaker.CircuitBreaker
}

// NewLeaderboard creates a new Leaderboard.
func NewLeaderboard(client *redis.Client) *Leaderboard {
	return &Leaderboard{
		client:  client,
		retrier: retry.RedisRetrier(),
		breaker: circuitbreaker.RedisBreaker(nil),
	}
}

// UpdateScore sets the user's score to their current XP total.
func (l *Leaderboard) UpdateScore(ctx context.Context, userID string, xp user.XP) error {
	return l.execute(ctx, func(ctx context.Context) error {
		return l.client.ZAdd(ctx, keyLeaderboard, redis.Z{
			Score:  float64(xp),
			Member: userID,
		}).Err()
	})
}

// Top returns the highest-ranked users.
func (l *Leaderboard) Top(ctx context.Context, limit int) ([]user.LeaderboardEntry, error) {
	var raw []redis.Z
	err := l.execute(ctx, func(ctx context.Context) error {
		var err error
		raw, err = l.client.ZRevRangeWithScores(ctx, keyLeaderboard, 0, int64(limit-1)).Result()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("leaderboard top: %w", err)
	}

	entries := make([]user.LeaderboardEntry, 0, len(raw))
	for i, z := range raw {
		userID, ok := z.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, user.LeaderboardEntry{
			UserID: userID,
			XP:     user.XP(int(z.Score)),
			Rank:   int64(i + 1),
		})
	}
	return entries, nil
}

// Rank returns the user's 1-based rank.
func (l *Leaderboard) Rank(ctx context.Context, userID string) (int64, error) {
	var rank int64
	err := l.execute(ctx, func(ctx context.Context) error {
		var err error
		rank, err = l.client.ZRevRank(ctx, keyLeaderboard, userID).Result()
		if errors.Is(err, redis.Nil) {
			return shared.NewDomainError("progression", "Rank",
				shared.ErrNotFound, "user "+userID+" is not ranked")
		}
		return err
	})
	if err != nil {
		return 0, err
	}
	return rank + 1, nil
}

func (l *Leaderboard) execute(ctx context.Context, fn func(ctx context.Context) error) error {
	return l.breaker.Execute(ctx, func(ctx context.Context) error {
		return l.retrier.Do(ctx, func(ctx context.Context) error {
			err := fn(ctx)
			if err != nil && !shared.IsNotFound(err) {
				return retry.Retryable(err)
			}
			return err
		})
	})
}
