package badge

import (
	"fmt"
	"sort"
	"time"

	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// ELIGIBILITY CHECKER
// Checks run in a fixed short-circuit order: active flag, availability window,
// prerequisites, already-earned, then each criterion in definition order. The
// first failure wins and carries the progress used for recommendation ranking.
// ══════════════════════════════════════════════════════════════════════════════

// EligibilityResult is the outcome of checking one badge for one user.
type EligibilityResult struct {
	Eligible bool
	Reason   string
	Progress float64 // 0-100
}

// Resolver looks up badge definitions by ID, used when walking the
// prerequisite graph. A nil result means the definition is unknown.
type Resolver func(badgeID string) (*Badge, bool)

// Checker evaluates badge eligibility.
type Checker struct {
	resolve Resolver
	now     func() time.Time
}

// NewChecker creates a checker. The resolver may be nil when prerequisite
// chains never need resolving (flat badge sets).
func NewChecker(resolve Resolver) *Checker {
	return &Checker{
		resolve: resolve,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source, for tests.
func (c *Checker) WithClock(now func() time.Time) *Checker {
	c.now = now
	return c
}

// Check evaluates the badge against the user's state. courseID carries the
// originating course for course-scoped badges and participates in the
// already-earned check.
func (c *Checker) Check(b *Badge, state *user.ProgressState, courseID string) EligibilityResult {
	if !b.Active {
		return EligibilityResult{Reason: "badge is not active"}
	}

	if !b.InWindow(c.now()) {
		return EligibilityResult{Reason: "badge is outside its availability window"}
	}

	if missing := c.missingPrerequisites(b, state, map[string]bool{b.ID: true}); len(missing) > 0 {
		return EligibilityResult{
			Reason:   fmt.Sprintf("missing prerequisite badge %s", missing[0]),
			Progress: 0,
		}
	}

	if state.HasBadge(b.ID, courseID) {
		return EligibilityResult{Reason: "already earned"}
	}

	for _, criterion := range b.Criteria {
		eval := criterion.Evaluate(state)
		if !eval.Met {
			return EligibilityResult{
				Reason:   eval.Reason,
				Progress: eval.Progress,
			}
		}
	}

	return EligibilityResult{Eligible: true, Progress: 100}
}

// missingPrerequisites collects unearned prerequisite badges, walking the
// prerequisite graph transitively so a deep chain reports its root causes.
// Definitions are administrator-authored and validated acyclic at creation
// time, but the visited set guards traversal against a cyclic definition
// slipping through.
func (c *Checker) missingPrerequisites(b *Badge, state *user.ProgressState, visited map[string]bool) []string {
	var missing []string
	for _, prereqID := range b.Prerequisites {
		if visited[prereqID] {
			continue
		}
		visited[prereqID] = true

		if state.HasBadgeID(prereqID) {
			continue
		}
		missing = append(missing, prereqID)

		if c.resolve == nil {
			continue
		}
		if prereq, ok := c.resolve(prereqID); ok {
			missing = append(missing, c.missingPrerequisites(prereq, state, visited)...)
		}
	}
	return missing
}

// ══════════════════════════════════════════════════════════════════════════════
// RECOMMENDATION RANKING
// ══════════════════════════════════════════════════════════════════════════════

// Recommendation pairs a badge with the user's eligibility progress toward it.
type Recommendation struct {
	Badge    *Badge
	Progress float64
	Reason   string
}

// RankRecommendations sorts candidates by progress descending, then rarity
// ascending (commoner badges surface first), then name ascending, and trims
// to limit. The input slice is sorted in place.
func RankRecommendations(recs []Recommendation, limit int) []Recommendation {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Progress != recs[j].Progress {
			return recs[i].Progress > recs[j].Progress
		}
		ri, rj := recs[i].Badge.Rarity.Ordinal(), recs[j].Badge.Rarity.Ordinal()
		if ri != rj {
			return ri < rj
		}
		return recs[i].Badge.Name < recs[j].Badge.Name
	})

	if limit > 0 && limit < len(recs) {
		return recs[:limit]
	}
	return recs
}
