package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/course"
	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/shared"
	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS OVERVIEW QUERY
// The read model behind the profile screen: XP with derived level and the
// next threshold, streak, badges, course progress and recent XP history.
// ══════════════════════════════════════════════════════════════════════════════

// GetProgressOverviewQuery asks for a user's progression snapshot.
type GetProgressOverviewQuery struct {
	UserID string

	// HistoryLimit caps the recent XP changes included. Zero means none.
	HistoryLimit int
}

// Validate validates the query.
func (q GetProgressOverviewQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("get_progress_overview: user_id is required")
	}
	return nil
}

// CourseProgressSummary is one course row in the overview.
type CourseProgressSummary struct {
	CourseID   string
	Percentage int
	Status     course.Status
	EnrolledAt time.Time
}

// ProgressOverview is the assembled read model.
type ProgressOverview struct {
	UserID        string
	XP            int
	Level         int
	NextLevelXP   int
	CurrentStreak int
	LongestStreak int
	GigsCompleted int
	Rating        shared.Rating
	BadgesEarned  []user.EarnedBadge
	Courses       []CourseProgressSummary
	RecentXP      []user.XPHistoryEntry
}

// GetProgressOverviewHandler handles the GetProgressOverviewQuery.
type GetProgressOverviewHandler struct {
	userRepo     user.Repository
	progressRepo course.ProgressRepository
}

// NewGetProgressOverviewHandler creates a new GetProgressOverviewHandler.
func NewGetProgressOverviewHandler(userRepo user.Repository, progressRepo course.ProgressRepository) *GetProgressOverviewHandler {
	return &GetProgressOverviewHandler{userRepo: userRepo, progressRepo: progressRepo}
}

// Handle assembles the overview. Level and the next threshold are derived
// from XP at read time and never stored.
func (h *GetProgressOverviewHandler) Handle(ctx context.Context, q GetProgressOverviewQuery) (*ProgressOverview, error) {
	if err := q.Validate(); err != nil {
		return nil, shared.WrapError("progression", "GetOverview", shared.ErrValidation,
			"validation failed", err)
	}

	state, err := h.userRepo.GetByID(ctx, q.UserID)
	if err != nil {
		return nil, fmt.Errorf("get_progress_overview: %w", err)
	}

	overview := &ProgressOverview{
		UserID:        state.UserID,
		XP:            int(state.CurrentXP),
		Level:         int(state.Level()),
		NextLevelXP:   int(user.NextLevelXP(state.CurrentXP)),
		CurrentStreak: state.Streak.Current,
		LongestStreak: state.Streak.Longest,
		GigsCompleted: state.GigsCompleted,
		Rating:        state.Rating,
		BadgesEarned:  state.BadgesEarned,
	}

	records, err := h.progressRepo.ListByUser(ctx, q.UserID)
	if err != nil {
		return nil, fmt.Errorf("get_progress_overview: %w", err)
	}
	for _, p := range records {
		overview.Courses = append(overview.Courses, CourseProgressSummary{
			CourseID:   p.CourseID,
			Percentage: p.Percentage,
			Status:     p.Status,
			EnrolledAt: p.EnrolledAt,
		})
	}

	if q.HistoryLimit > 0 {
		history, err := h.userRepo.GetXPHistory(ctx, q.UserID, q.HistoryLimit)
		if err != nil {
			return nil, fmt.Errorf("get_progress_overview: %w", err)
		}
		overview.RecentXP = history
	}

	return overview, nil
}
