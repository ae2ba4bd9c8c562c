package user

import (
	"context"
)

// LeaderboardEntry is one row of the XP leaderboard.
type LeaderboardEntry struct {
	UserID string
	XP     XP
	Rank   int64
}

// Leaderboard maintains the global XP ranking. Updates are best-effort; the
// authoritative XP total always lives in the progress state, and the ranking
// can be rebuilt from it.
type Leaderboard interface {
	// UpdateScore sets the user's score to their current XP total.
	UpdateScore(ctx context.Context, userID string, xp XP) error

	// Top returns the highest-ranked users.
	Top(ctx context.Context, limit int) ([]LeaderboardEntry, error)

	// Rank returns the user's 1-based rank.
	// Returns shared.ErrNotFound when the user is not ranked yet.
	Rank(ctx context.Context, userID string) (int64, error)
}
