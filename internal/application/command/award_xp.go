// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/shared"
	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/user"
	"github.com/skillbridge-hub/skillbridge-engine/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// AWARD XP COMMAND
// Single write path for XP. Every grant flows through here so level
// derivation, streak accounting, history and events stay consistent.
// ══════════════════════════════════════════════════════════════════════════════

// XP award reasons. Reasons marked as activity extend the daily streak.
const (
	ReasonModuleCompletion = "module_completion"
	ReasonQuizAttempt      = "quiz_attempt"
	ReasonCourseCompletion = "course_completion"
	ReasonBadgeReward      = "badge_reward"
	ReasonGigAcceptance    = "gig_acceptance"
	ReasonGigCompletion    = "gig_completion"
)

// activityReasons lists the reasons that count as qualifying activity for
// streak purposes.
var activityReasons = map[string]bool{
	ReasonModuleCompletion: true,
	ReasonQuizAttempt:      true,
	ReasonCourseCompletion: true,
	ReasonGigCompletion:    true,
}

// AwardXPCommand contains the data for a single XP grant.
type AwardXPCommand struct {
	// UserID is the user receiving the XP.
	UserID string

	// Amount is the strictly positive number of points.
	Amount int

	// Reason tags the grant in history and events.
	Reason string

	// OccurredAt is when the underlying activity happened. Zero means now.
	OccurredAt time.Time

	// CompletedCourseID marks the course as completed in the same state
	// write, so the completion flag and its reward cannot diverge. When set,
	// a zero Amount is allowed for courses that carry no XP reward.
	CompletedCourseID string

	// GigCompleted folds a gig completion (counter bump plus client rating)
	// into the same state write as the completion XP.
	GigCompleted *GigCompletionEffect
}

// GigCompletionEffect carries the worker-side effects of a completed gig.
type GigCompletionEffect struct {
	ClientRating int
}

// Validate validates the command.
func (c AwardXPCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("award_xp: user_id is required")
	}
	if c.Amount < 0 || (c.Amount == 0 && c.CompletedCourseID == "") {
		return fmt.Errorf("award_xp: amount must be positive, got %d", c.Amount)
	}
	if c.Reason == "" {
		return errors.New("award_xp: reason is required")
	}
	return nil
}

// AwardXPResult contains the outcome of an XP grant.
type AwardXPResult struct {
	UserID    string
	NewXP     int
	NewLevel  int
	LeveledUp bool

	// CurrentStreak / StreakBroken describe the streak effect when the
	// reason counted as activity.
	CurrentStreak int
	StreakBroken  bool
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// AwardXPHandler handles the AwardXPCommand. Other command handlers reuse it
// for their reward grants so XP has exactly one write path.
type AwardXPHandler struct {
	userRepo    user.Repository
	leaderboard user.Leaderboard
	publisher   shared.EventPublisher
	locks       *UserLocks
	logger      *slog.Logger
}

// NewAwardXPHandler creates a new AwardXPHandler. The leaderboard may be nil
// when ranking is disabled.
func NewAwardXPHandler(
	userRepo user.Repository,
	leaderboard user.Leaderboard,
	publisher shared.EventPublisher,
	locks *UserLocks,
	logger *slog.Logger,
) *AwardXPHandler {
	return &AwardXPHandler{
		userRepo:    userRepo,
		leaderboard: leaderboard,
		publisher:   publisher,
		locks:       locks,
		logger:      logger,
	}
}

// Handle executes the award XP command.
func (h *AwardXPHandler) Handle(ctx context.Context, cmd AwardXPCommand) (*AwardXPResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("progression", "AwardXP", shared.ErrValidation,
			"validation failed", err)
	}

	unlock := h.locks.Lock(cmd.UserID)
	defer unlock()

	state, err := h.loadOrCreate(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}

	occurredAt := cmd.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	oldXP := state.CurrentXP
	oldLevel := state.Level()

	res := user.XPResult{NewXP: state.CurrentXP, NewLevel: oldLevel}
	if cmd.Amount > 0 {
		res, err = state.AddXP(cmd.Amount)
		if err != nil {
			return nil, err
		}
	}
	if cmd.CompletedCourseID != "" {
		state.MarkCourseCompleted(cmd.CompletedCourseID)
	}
	if cmd.GigCompleted != nil {
		if err := state.RecordGigCompletion(float64(cmd.GigCompleted.ClientRating)); err != nil {
			return nil, err
		}
	}

	var streakChange user.StreakChange
	countsAsActivity := activityReasons[cmd.Reason]
	if countsAsActivity {
		streakChange = state.Streak.Record(timeutil.StartOfDay(occurredAt))
	}

	if err := h.userRepo.Update(ctx, state); err != nil {
		return nil, fmt.Errorf("award_xp: failed to persist state: %w", err)
	}

	// History and leaderboard are best-effort once the state is durable.
	if cmd.Amount > 0 {
		entry := user.XPHistoryEntry{
			UserID:    cmd.UserID,
			Timestamp: occurredAt,
			OldXP:     oldXP,
			NewXP:     res.NewXP,
			Delta:     cmd.Amount,
			Reason:    cmd.Reason,
		}
		if err := h.userRepo.AppendXPHistory(ctx, entry); err != nil {
			h.logger.Warn("xp history append failed",
				"user_id", cmd.UserID, "error", err)
		}
	}
	if h.leaderboard != nil {
		if err := h.leaderboard.UpdateScore(ctx, cmd.UserID, res.NewXP); err != nil {
			h.logger.Warn("leaderboard update failed",
				"user_id", cmd.UserID, "error", err)
		}
	}

	if cmd.Amount > 0 {
		h.publish(shared.NewXPAwardedEvent(cmd.UserID, cmd.Amount, int(res.NewXP), cmd.Reason))
	}
	if res.LeveledUp {
		h.publish(shared.NewLevelUpEvent(cmd.UserID, int(oldLevel), int(res.NewLevel)))
	}
	if streakChange.Broken {
		h.publish(shared.NewStreakBrokenEvent(cmd.UserID, streakChange.Previous))
	}
	if cmd.CompletedCourseID != "" {
		h.publish(shared.NewCourseCompletedEvent(cmd.UserID, cmd.CompletedCourseID, cmd.Amount))
	}

	return &AwardXPResult{
		UserID:        cmd.UserID,
		NewXP:         int(res.NewXP),
		NewLevel:      int(res.NewLevel),
		LeveledUp:     res.LeveledUp,
		CurrentStreak: state.Streak.Current,
		StreakBroken:  streakChange.Broken,
	}, nil
}

// loadOrCreate returns the user's progress state, bootstrapping an empty one
// on first contact with the engine.
func (h *AwardXPHandler) loadOrCreate(ctx context.Context, userID string) (*user.ProgressState, error) {
	state, err := h.userRepo.GetByID(ctx, userID)
	if err == nil {
		return state, nil
	}
	if !shared.IsNotFound(err) {
		return nil, fmt.Errorf("award_xp: failed to load state: %w", err)
	}

	state = user.NewProgressState(userID)
	if err := h.userRepo.Create(ctx, state); err != nil {
		// A concurrent bootstrap may have won; reload in that case.
		if shared.IsConflict(err) {
			return h.userRepo.GetByID(ctx, userID)
		}
		return nil, fmt.Errorf("award_xp: failed to create state: %w", err)
	}
	return state, nil
}

// publish sends an event without blocking the command on delivery.
func (h *AwardXPHandler) publish(event shared.Event) {
	if h.publisher == nil {
		return
	}
	if err := h.publisher.Publish(event); err != nil {
		h.logger.Warn("event publish failed",
			"event_type", event.EventType(), "error", err)
	}
}
