package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/badge"
	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/shared"
	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECOMMEND BADGES QUERY
// Surfaces the badges the user is closest to earning: progress descending,
// then rarity, then name.
// ══════════════════════════════════════════════════════════════════════════════

// RecommendBadgesQuery asks for badge recommendations for a user.
type RecommendBadgesQuery struct {
	UserID string
	Limit  int
}

// Validate validates the query.
func (q RecommendBadgesQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("recommend_badges: user_id is required")
	}
	return nil
}

// RecommendBadgesHandler handles the RecommendBadgesQuery.
type RecommendBadgesHandler struct {
	userRepo  user.Repository
	badgeRepo badge.Repository
}

// NewRecommendBadgesHandler creates a new RecommendBadgesHandler.
func NewRecommendBadgesHandler(userRepo user.Repository, badgeRepo badge.Repository) *RecommendBadgesHandler {
	return &RecommendBadgesHandler{userRepo: userRepo, badgeRepo: badgeRepo}
}

// Handle executes the recommendation. Hidden badges and already-earned ones
// never appear; unmet prerequisites or windows surface with their reason so
// the UI can explain the zero progress.
func (h *RecommendBadgesHandler) Handle(ctx context.Context, q RecommendBadgesQuery) ([]badge.Recommendation, error) {
	if err := q.Validate(); err != nil {
		return nil, shared.WrapError("badge", "Recommend", shared.ErrValidation,
			"validation failed", err)
	}

	state, err := h.userRepo.GetByID(ctx, q.UserID)
	if err != nil {
		return nil, fmt.Errorf("recommend_badges: %w", err)
	}
	active, err := h.badgeRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("recommend_badges: %w", err)
	}

	byID := make(map[string]*badge.Badge, len(active))
	for _, b := range active {
		byID[b.ID] = b
	}
	checker := badge.NewChecker(func(badgeID string) (*badge.Badge, bool) {
		b, ok := byID[badgeID]
		return b, ok
	})

	recs := make([]badge.Recommendation, 0, len(active))
	for _, b := range active {
		if b.Hidden || state.HasBadgeID(b.ID) {
			continue
		}
		eligibility := checker.Check(b, state, "")
		recs = append(recs, badge.Recommendation{
			Badge:    b,
			Progress: eligibility.Progress,
			Reason:   eligibility.Reason,
		})
	}

	return badge.RankRecommendations(recs, q.Limit), nil
}
