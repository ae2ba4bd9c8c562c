package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/shared"
	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD QUERY
// ══════════════════════════════════════════════════════════════════════════════

// GetLeaderboardQuery asks for the top of the XP ranking, optionally with
// one user's own rank alongside.
type GetLeaderboardQuery struct {
	Limit  int
	UserID string
}

// Validate validates the query.
func (q GetLeaderboardQuery) Validate() error {
	if q.Limit <= 0 {
		return errors.New("get_leaderboard: limit must be positive")
	}
	return nil
}

// LeaderboardView is the assembled ranking.
type LeaderboardView struct {
	Entries []user.LeaderboardEntry

	// OwnRank is the requesting user's rank, zero when unranked or not
	// requested.
	OwnRank int64
}

// GetLeaderboardHandler handles the GetLeaderboardQuery.
type GetLeaderboardHandler struct {
	leaderboard user.Leaderboard
}

// NewGetLeaderboardHandler creates a new GetLeaderboardHandler.
func NewGetLeaderboardHandler(leaderboard user.Leaderboard) *GetLeaderboardHandler {
	return &GetLeaderboardHandler{leaderboard: leaderboard}
}

// Handle executes the query.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, q GetLeaderboardQuery) (*LeaderboardView, error) {
	if err := q.Validate(); err != nil {
		return nil, shared.WrapError("progression", "GetLeaderboard", shared.ErrValidation,
			"validation failed", err)
	}

	entries, err := h.leaderboard.Top(ctx, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("get_leaderboard: %w", err)
	}

	view := &LeaderboardView{Entries: entries}
	if q.UserID != "" {
		rank, err := h.leaderboard.Rank(ctx, q.UserID)
		if err != nil && !shared.IsNotFound(err) {
			return nil, fmt.Errorf("get_leaderboard: %w", err)
		}
		view.OwnRank = rank
	}
	return view, nil
}
