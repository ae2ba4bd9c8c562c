package badge

import (
	"fmt"

	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/shared"
	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// CRITERION VARIANTS
// A closed tagged-variant type: one concrete case per evaluator. New criterion
// kinds are added by extending the variant set, never by string dispatch.
// ══════════════════════════════════════════════════════════════════════════════

// CriterionKind names a criterion variant for serialization and diagnostics.
type CriterionKind string

const (
	KindCourseCompletion CriterionKind = "course_completion"
	KindSkillLevel       CriterionKind = "skill_level"
	KindGigCompletion    CriterionKind = "gig_completion"
	KindRatingThreshold  CriterionKind = "rating_threshold"
	KindXPThreshold      CriterionKind = "xp_threshold"
	KindStreak           CriterionKind = "streak"
)

// Evaluation is the result of checking one criterion against a user.
// Progress is reported even when the criterion is unmet; recommendation
// ranking sorts by it.
type Evaluation struct {
	Met      bool
	Progress float64 // 0-100
	Reason   string  // human-readable explanation when unmet
}

// Criterion is one rule a user must satisfy to earn a badge. The interface is
// sealed: only the variants in this file implement it.
type Criterion interface {
	// Kind returns the variant tag.
	Kind() CriterionKind

	// Evaluate checks the criterion against a user's progress state.
	Evaluate(state *user.ProgressState) Evaluation

	sealed()
}

// ─────────────────────────────────────────────────────────────────────────────
// course_completion
// ─────────────────────────────────────────────────────────────────────────────

// CourseCompletion requires either one specific completed course (CourseID
// set) or a minimum number of completed courses (Count set).
type CourseCompletion struct {
	CourseID string
	Count    int
}

func (CourseCompletion) Kind() CriterionKind { return KindCourseCompletion }
func (CourseCompletion) sealed()             {}

// Evaluate implements Criterion.
func (c CourseCompletion) Evaluate(state *user.ProgressState) Evaluation {
	if c.CourseID != "" {
		if state.HasCompletedCourse(c.CourseID) {
			return Evaluation{Met: true, Progress: 100}
		}
		return Evaluation{
			Progress: 0,
			Reason:   fmt.Sprintf("course %s not completed", c.CourseID),
		}
	}

	have := len(state.CompletedCourses)
	if c.Count <= 0 || have >= c.Count {
		return Evaluation{Met: true, Progress: 100}
	}
	return Evaluation{
		Progress: ratio(have, c.Count),
		Reason:   fmt.Sprintf("completed %d of %d courses", have, c.Count),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// skill_level
// ─────────────────────────────────────────────────────────────────────────────

// SkillLevel requires a named skill at or above an ordinal tier.
type SkillLevel struct {
	Name  string
	Level shared.SkillLevel
}

func (SkillLevel) Kind() CriterionKind { return KindSkillLevel }
func (SkillLevel) sealed()             {}

// Evaluate implements Criterion.
func (c SkillLevel) Evaluate(state *user.ProgressState) Evaluation {
	have, ok := state.SkillLevel(c.Name)
	if !ok {
		return Evaluation{
			Progress: 0,
			Reason:   fmt.Sprintf("skill %s not present", c.Name),
		}
	}
	if have.AtLeast(c.Level) {
		return Evaluation{Met: true, Progress: 100}
	}
	return Evaluation{
		Progress: ratio(have.Ordinal(), c.Level.Ordinal()),
		Reason:   fmt.Sprintf("skill %s is %s, %s required", c.Name, have, c.Level),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// gig_completion
// ─────────────────────────────────────────────────────────────────────────────

// GigCompletion requires a minimum number of completed gigs.
type GigCompletion struct {
	Count int
}

func (GigCompletion) Kind() CriterionKind { return KindGigCompletion }
func (GigCompletion) sealed()             {}

// Evaluate implements Criterion.
func (c GigCompletion) Evaluate(state *user.ProgressState) Evaluation {
	if c.Count <= 0 || state.GigsCompleted >= c.Count {
		return Evaluation{Met: true, Progress: 100}
	}
	return Evaluation{
		Progress: ratio(state.GigsCompleted, c.Count),
		Reason:   fmt.Sprintf("completed %d of %d gigs", state.GigsCompleted, c.Count),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// rating_threshold
// ─────────────────────────────────────────────────────────────────────────────

// RatingThreshold requires a minimum running rating average.
type RatingThreshold struct {
	Minimum float64
}

func (RatingThreshold) Kind() CriterionKind { return KindRatingThreshold }
func (RatingThreshold) sealed()             {}

// Evaluate implements Criterion.
func (c RatingThreshold) Evaluate(state *user.ProgressState) Evaluation {
	if c.Minimum <= 0 || state.Rating.Average >= c.Minimum {
		return Evaluation{Met: true, Progress: 100}
	}
	return Evaluation{
		Progress: clamp(100 * state.Rating.Average / c.Minimum),
		Reason:   fmt.Sprintf("rating %.2f below %.2f", state.Rating.Average, c.Minimum),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// xp_threshold
// ─────────────────────────────────────────────────────────────────────────────

// XPThreshold requires a minimum XP total.
type XPThreshold struct {
	Minimum int
}

func (XPThreshold) Kind() CriterionKind { return KindXPThreshold }
func (XPThreshold) sealed()             {}

// Evaluate implements Criterion.
func (c XPThreshold) Evaluate(state *user.ProgressState) Evaluation {
	if c.Minimum <= 0 || int(state.CurrentXP) >= c.Minimum {
		return Evaluation{Met: true, Progress: 100}
	}
	return Evaluation{
		Progress: ratio(int(state.CurrentXP), c.Minimum),
		Reason:   fmt.Sprintf("%d of %d XP", state.CurrentXP, c.Minimum),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// streak
// ─────────────────────────────────────────────────────────────────────────────

// StreakLength requires a minimum current daily streak.
type StreakLength struct {
	Days int
}

func (StreakLength) Kind() CriterionKind { return KindStreak }
func (StreakLength) sealed()             {}

// Evaluate implements Criterion.
func (c StreakLength) Evaluate(state *user.ProgressState) Evaluation {
	if c.Days <= 0 || state.Streak.Current >= c.Days {
		return Evaluation{Met: true, Progress: 100}
	}
	return Evaluation{
		Progress: ratio(state.Streak.Current, c.Days),
		Reason:   fmt.Sprintf("streak %d of %d days", state.Streak.Current, c.Days),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// helpers
// ─────────────────────────────────────────────────────────────────────────────

func ratio(have, want int) float64 {
	if want <= 0 {
		return 100
	}
	return clamp(100 * float64(have) / float64(want))
}

func clamp(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
