// Package user contains the progress-state model shared by all engine
// subsystems: XP, derived level, streak, skills, earned badges, gig counters
// and the running rating. The package has no external dependencies.
package user

import (
	"time"

	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/shared"
)

// XPPerLevel is the XP span of a single level. Level is always derived as
// floor(xp/XPPerLevel)+1 and never stored independently of XP.
const XPPerLevel = 1000

// XP represents a user's experience points. Monotonically non-decreasing
// outside of administrative corrections, which are not part of this engine.
type XP int

// IsValid checks that XP is non-negative.
func (x XP) IsValid() bool {
	return x >= 0
}

// Level represents the tier derived from XP.
type Level int

// LevelForXP computes the level for a given XP total.
func LevelForXP(xp XP) Level {
	if xp < 0 {
		return 1
	}
	return Level(int(xp)/XPPerLevel + 1)
}

// NextLevelXP returns the XP total at which the next level begins. Derived at
// read time, never persisted.
func NextLevelXP(xp XP) XP {
	return XP((int(LevelForXP(xp))) * XPPerLevel)
}

// ══════════════════════════════════════════════════════════════════════════════
// SKILLS AND BADGES
// ══════════════════════════════════════════════════════════════════════════════

// Skill is a named proficiency the user claims or has verified.
type Skill struct {
	Name     string
	Level    shared.SkillLevel
	Verified bool
}

// EarnedBadge is one entry in the user's earned-badge set. CourseID is set
// only for course-scoped badges and distinguishes otherwise equal badge IDs.
type EarnedBadge struct {
	BadgeID  string
	CourseID string
	EarnedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS STATE
// ══════════════════════════════════════════════════════════════════════════════

// ProgressState is the engine's view of a user: everything the progression,
// badge, course and gig subsystems read and write. It is loaded, mutated and
// persisted as a unit under per-user serialization.
type ProgressState struct {
	// UserID - identifier in the external identity store.
	UserID string

	// CurrentXP - total experience points.
	CurrentXP XP

	// Streak - consecutive-calendar-day activity bookkeeping.
	Streak Streak

	// Skills - claimed or verified proficiencies.
	Skills []Skill

	// BadgesEarned - set of earned badges, at most one entry per
	// (BadgeID, CourseID) pair.
	BadgesEarned []EarnedBadge

	// CompletedCourses - IDs of courses this user has fully completed.
	CompletedCourses []string

	// GigsCompleted - number of gigs completed as assignee.
	GigsCompleted int

	// Rating - running average of client ratings received.
	Rating shared.Rating

	// Version - optimistic-concurrency token, bumped on every persisted write.
	Version int

	// CreatedAt / UpdatedAt - record times.
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewProgressState creates an empty progress state for a user.
func NewProgressState(userID string) *ProgressState {
	now := time.Now().UTC()
	return &ProgressState{
		UserID:    userID,
		CurrentXP: 0,
		Streak:    Streak{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Level returns the user's current derived level.
func (s *ProgressState) Level() Level {
	return LevelForXP(s.CurrentXP)
}

// XPResult describes the outcome of a single XP award.
type XPResult struct {
	NewXP     XP
	NewLevel  Level
	LeveledUp bool
}

// AddXP adds a strictly positive amount of XP and reports the level change.
// XP never decreases through this path, preserving monotonicity.
func (s *ProgressState) AddXP(amount int) (XPResult, error) {
	if amount <= 0 {
		return XPResult{}, shared.Validationf("progression", "AddXP",
			"xp amount must be positive, got %d", amount)
	}

	oldLevel := s.Level()
	s.CurrentXP += XP(amount)
	s.UpdatedAt = time.Now().UTC()

	newLevel := s.Level()
	return XPResult{
		NewXP:     s.CurrentXP,
		NewLevel:  newLevel,
		LeveledUp: newLevel > oldLevel,
	}, nil
}

// HasBadge reports whether the (badgeID, courseID) pair is already earned.
// A course-scoped award is distinct per originating course.
func (s *ProgressState) HasBadge(badgeID, courseID string) bool {
	for _, b := range s.BadgesEarned {
		if b.BadgeID == badgeID && b.CourseID == courseID {
			return true
		}
	}
	return false
}

// HasBadgeID reports whether any award of the badge exists regardless of the
// originating course. Prerequisite checks use this form.
func (s *ProgressState) HasBadgeID(badgeID string) bool {
	for _, b := range s.BadgesEarned {
		if b.BadgeID == badgeID {
			return true
		}
	}
	return false
}

// GrantBadge idempotently adds a badge to the earned set. Returns true if the
// set changed, false if the badge was already present (a no-op, not an error,
// so duplicate or re-ordered award triggers cannot double-award).
func (s *ProgressState) GrantBadge(badgeID, courseID string, at time.Time) bool {
	if s.HasBadge(badgeID, courseID) {
		return false
	}
	s.BadgesEarned = append(s.BadgesEarned, EarnedBadge{
		BadgeID:  badgeID,
		CourseID: courseID,
		EarnedAt: at,
	})
	s.UpdatedAt = time.Now().UTC()
	return true
}

// HasCompletedCourse reports whether the course is in the completed set.
func (s *ProgressState) HasCompletedCourse(courseID string) bool {
	for _, id := range s.CompletedCourses {
		if id == courseID {
			return true
		}
	}
	return false
}

// MarkCourseCompleted records a completed course, idempotently.
func (s *ProgressState) MarkCourseCompleted(courseID string) {
	if s.HasCompletedCourse(courseID) {
		return
	}
	s.CompletedCourses = append(s.CompletedCourses, courseID)
	s.UpdatedAt = time.Now().UTC()
}

// SkillLevel returns the user's level for a named skill; ok is false when the
// skill is absent.
func (s *ProgressState) SkillLevel(name string) (shared.SkillLevel, bool) {
	for _, sk := range s.Skills {
		if sk.Name == name {
			return sk.Level, true
		}
	}
	return "", false
}

// RecordGigCompletion increments the completed-gig counter and folds the
// client rating into the running average.
func (s *ProgressState) RecordGigCompletion(clientRating float64) error {
	if clientRating < 1 || clientRating > 5 {
		return shared.Validationf("progression", "RecordGigCompletion",
			"rating must be between 1 and 5, got %.1f", clientRating)
	}
	s.GigsCompleted++
	s.Rating = s.Rating.Fold(clientRating)
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// XP HISTORY
// ══════════════════════════════════════════════════════════════════════════════

// XPHistoryEntry is one recorded XP change, kept for auditing and the
// progress overview.
type XPHistoryEntry struct {
	UserID    string
	Timestamp time.Time
	OldXP     XP
	NewXP     XP
	Delta     int
	Reason    string
}
