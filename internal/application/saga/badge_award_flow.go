// Package saga contains business processes that orchestrate multiple domain
// operations in a coordinated manner.
package saga

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/skillbridge-hub/skillbridge-engine/internal/application/command"
	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/badge"
	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/shared"
	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// BADGE AWARD FLOW SAGA
// Flow: Load State → Select Candidates → Check Eligibility → Grant Badge →
//
//	Award XP Bonus → Bump Earned Counter → Publish Event
//
// Re-evaluation runs asynchronously off progression events, so the same
// trigger can arrive twice or out of order; granting is idempotent and a
// duplicate run is a no-op.
// ══════════════════════════════════════════════════════════════════════════════

// BadgeCheckInput contains data needed to re-evaluate a user's badges.
type BadgeCheckInput struct {
	// UserID - the user to check.
	UserID string

	// CourseID - originating course, set when the trigger was a course
	// completion. Scopes course-scoped awards and narrows the candidate set.
	CourseID string

	// Trigger - what caused this check (event type), for logging.
	Trigger string
}

// Validate checks if the input is valid.
func (i BadgeCheckInput) Validate() error {
	if i.UserID == "" {
		return errors.New("badge_award_flow: user ID is required")
	}
	return nil
}

// AwardedBadge is one badge granted by a flow run.
type AwardedBadge struct {
	Badge    *badge.Badge
	CourseID string
	XPBonus  int

	oldXP user.XP
	newXP user.XP
}

// BadgeFlowResult contains the result of one flow run.
type BadgeFlowResult struct {
	UserID      string
	NewBadges   []AwardedBadge
	TotalXP     int
	ProcessedAt time.Time
}

// HasNewBadges returns true if any badges were granted.
func (r *BadgeFlowResult) HasNewBadges() bool {
	return len(r.NewBadges) > 0
}

// BadgeFlowStep represents a step in the badge award flow.
type BadgeFlowStep string

const (
	StepLoadState       BadgeFlowStep = "load_state"
	StepSelectBadges    BadgeFlowStep = "select_badges"
	StepCheckAndGrant   BadgeFlowStep = "check_and_grant"
	StepPersistState    BadgeFlowStep = "persist_state"
	StepPublishEvents   BadgeFlowStep = "publish_events"
	StepBadgeFlowDone   BadgeFlowStep = "complete"
	StepBadgeFlowFailed BadgeFlowStep = "failed"
)

// ══════════════════════════════════════════════════════════════════════════════
// SAGA IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// BadgeAwardFlowSaga orchestrates badge re-evaluation and granting.
type BadgeAwardFlowSaga struct {
	userRepo    user.Repository
	badgeRepo   badge.Repository
	counter     badge.EarnedCounter
	leaderboard user.Leaderboard
	publisher   shared.EventPublisher
	locks       *command.UserLocks
	logger      *slog.Logger

	// maxAwardsPerRun bounds one run so a mis-authored badge set cannot
	// grant unbounded awards in a single pass.
	maxAwardsPerRun int
}

// BadgeAwardFlowConfig contains configuration for the saga.
type BadgeAwardFlowConfig struct {
	MaxAwardsPerRun int
}

// DefaultBadgeAwardFlowConfig returns default configuration.
func DefaultBadgeAwardFlowConfig() BadgeAwardFlowConfig {
	return BadgeAwardFlowConfig{MaxAwardsPerRun: 5}
}

// NewBadgeAwardFlowSaga creates a new BadgeAwardFlowSaga. The counter and
// leaderboard may be nil when those features are disabled.
func NewBadgeAwardFlowSaga(
	userRepo user.Repository,
	badgeRepo badge.Repository,
	counter badge.EarnedCounter,
	leaderboard user.Leaderboard,
	publisher shared.EventPublisher,
	locks *command.UserLocks,
	logger *slog.Logger,
	config BadgeAwardFlowConfig,
) *BadgeAwardFlowSaga {
	if config.MaxAwardsPerRun <= 0 {
		config = DefaultBadgeAwardFlowConfig()
	}
	return &BadgeAwardFlowSaga{
		userRepo:        userRepo,
		badgeRepo:       badgeRepo,
		counter:         counter,
		leaderboard:     leaderboard,
		publisher:       publisher,
		locks:           locks,
		logger:          logger,
		maxAwardsPerRun: config.MaxAwardsPerRun,
	}
}

// Execute runs one badge re-evaluation pass for a user. It grants every
// currently eligible badge, including ones unlocked by grants made earlier
// in the same run (a granted prerequisite can complete a chain).
func (s *BadgeAwardFlowSaga) Execute(ctx context.Context, input BadgeCheckInput) (*BadgeFlowResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(input.UserID)
	defer unlock()

	// Step 1: load state.
	state, err := s.userRepo.GetByID(ctx, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("badge_award_flow: %s: %w", StepLoadState, err)
	}

	// Step 2: select candidate badges.
	candidates, err := s.selectCandidates(ctx, input.CourseID)
	if err != nil {
		return nil, fmt.Errorf("badge_award_flow: %s: %w", StepSelectBadges, err)
	}

	checker := badge.NewChecker(s.resolver(ctx, candidates))

	// Step 3: check and grant until a pass makes no progress.
	result := &BadgeFlowResult{UserID: input.UserID}
	for len(result.NewBadges) < s.maxAwardsPerRun {
		granted := s.grantPass(checker, candidates, state, input.CourseID, result)
		if !granted {
			break
		}
	}

	if !result.HasNewBadges() {
		result.ProcessedAt = time.Now().UTC()
		return result, nil
	}

	// Step 4: persist the mutated state once for the whole run.
	if err := s.userRepo.Update(ctx, state); err != nil {
		return nil, fmt.Errorf("badge_award_flow: %s: %w", StepPersistState, err)
	}

	// Step 5: history, counters, leaderboard and events, best-effort after
	// the durable write.
	now := time.Now().UTC()
	for _, awarded := range result.NewBadges {
		if awarded.XPBonus > 0 {
			entry := user.XPHistoryEntry{
				UserID:    input.UserID,
				Timestamp: now,
				OldXP:     awarded.oldXP,
				NewXP:     awarded.newXP,
				Delta:     awarded.XPBonus,
				Reason:    command.ReasonBadgeReward,
			}
			if err := s.userRepo.AppendXPHistory(ctx, entry); err != nil {
				s.logger.Warn("xp history append failed",
					"user_id", input.UserID, "error", err)
			}
		}
		if s.counter != nil {
			if err := s.counter.Increment(ctx, awarded.Badge.ID); err != nil {
				s.logger.Warn("earned counter increment failed",
					"badge_id", awarded.Badge.ID, "error", err)
			}
		}

		// The bonus bypasses AwardXPHandler to stay in the run's single state
		// write, so the XP and level events it would emit are emitted here.
		if awarded.XPBonus > 0 {
			s.publish(shared.NewXPAwardedEvent(
				input.UserID, awarded.XPBonus, int(awarded.newXP), command.ReasonBadgeReward))
			oldLevel := user.LevelForXP(awarded.oldXP)
			newLevel := user.LevelForXP(awarded.newXP)
			if newLevel > oldLevel {
				s.publish(shared.NewLevelUpEvent(input.UserID, int(oldLevel), int(newLevel)))
			}
		}
		s.publish(shared.NewBadgeAwardedEvent(
			input.UserID, awarded.Badge.ID, awarded.CourseID, awarded.XPBonus))
	}
	if s.leaderboard != nil && result.TotalXP > 0 {
		if err := s.leaderboard.UpdateScore(ctx, input.UserID, state.CurrentXP); err != nil {
			s.logger.Warn("leaderboard update failed",
				"user_id", input.UserID, "error", err)
		}
	}

	s.logger.Info("badges awarded",
		"user_id", input.UserID,
		"count", len(result.NewBadges),
		"trigger", input.Trigger)

	result.ProcessedAt = time.Now().UTC()
	return result, nil
}

// publish sends an event without blocking the flow on delivery.
func (s *BadgeAwardFlowSaga) publish(event shared.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(event); err != nil {
		s.logger.Warn("event publish failed",
			"event_type", event.EventType(), "error", err)
	}
}

// selectCandidates returns the badges worth re-evaluating for this trigger.
func (s *BadgeAwardFlowSaga) selectCandidates(ctx context.Context, courseID string) ([]*badge.Badge, error) {
	if courseID != "" {
		return s.badgeRepo.ListReferencingCourse(ctx, courseID)
	}
	return s.badgeRepo.ListActive(ctx)
}

// resolver builds a prerequisite resolver over the candidate set, falling
// back to the repository for badges outside it.
func (s *BadgeAwardFlowSaga) resolver(ctx context.Context, candidates []*badge.Badge) badge.Resolver {
	byID := make(map[string]*badge.Badge, len(candidates))
	for _, b := range candidates {
		byID[b.ID] = b
	}
	return func(badgeID string) (*badge.Badge, bool) {
		if b, ok := byID[badgeID]; ok {
			return b, true
		}
		b, err := s.badgeRepo.GetByID(ctx, badgeID)
		if err != nil {
			return nil, false
		}
		byID[badgeID] = b
		return b, true
	}
}

// grantPass makes one pass over the candidates and grants the first eligible
// badge. Returns false when nothing was granted.
func (s *BadgeAwardFlowSaga) grantPass(
	checker *badge.Checker,
	candidates []*badge.Badge,
	state *user.ProgressState,
	courseID string,
	result *BadgeFlowResult,
) bool {
	now := time.Now().UTC()
	for _, b := range candidates {
		scope := ""
		if b.CourseScoped {
			scope = courseID
		}

		eligibility := checker.Check(b, state, scope)
		if !eligibility.Eligible {
			continue
		}
		if !state.GrantBadge(b.ID, scope, now) {
			continue
		}

		xpBonus := 0
		oldXP := state.CurrentXP
		if b.XPReward > 0 {
			if _, err := state.AddXP(b.XPReward); err == nil {
				xpBonus = b.XPReward
			}
		}

		result.NewBadges = append(result.NewBadges, AwardedBadge{
			Badge:    b,
			CourseID: scope,
			XPBonus:  xpBonus,
			oldXP:    oldXP,
			newXP:    state.CurrentXP,
		})
		result.TotalXP += xpBonus
		return true
	}
	return false
}
