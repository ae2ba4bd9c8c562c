// Package badge contains the badge definitions and the eligibility rules of
// the badge engine: criterion evaluation, prerequisite graph checks and
// recommendation ranking.
package badge

import (
	"time"
)

// Rarity orders badges from most to least common. Recommendation ranking
// surfaces commoner badges first on progress ties.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// Ordinal returns the rarity rank, common first. Unknown rarities sort last.
func (r Rarity) Ordinal() int {
	switch r {
	case RarityCommon:
		return 0
	case RarityUncommon:
		return 1
	case RarityRare:
		return 2
	case RarityEpic:
		return 3
	case RarityLegendary:
		return 4
	default:
		return 5
	}
}

// IsValid checks that the rarity is a known tier.
func (r Rarity) IsValid() bool {
	return r.Ordinal() < 5
}

// Badge is an immutable badge definition. Definitions are authored by
// administrators outside this engine; the engine only reads them. The only
// mutable piece of badge state is the per-user earned set and the global
// earned counter.
type Badge struct {
	// ID - unique badge identifier.
	ID string

	// Name - display name, also the final recommendation tie-break key.
	Name string

	// Description - short human-readable description.
	Description string

	// Rarity - how rare the badge is.
	Rarity Rarity

	// Criteria - ordered list of conditions, all of which must hold
	// (AND semantics). Evaluation short-circuits at the first unmet one.
	Criteria []Criterion

	// Prerequisites - badge IDs that must already be earned.
	Prerequisites []string

	// XPReward - XP granted on award.
	XPReward int

	// AvailableFrom / AvailableUntil - optional availability window.
	AvailableFrom  *time.Time
	AvailableUntil *time.Time

	// Active - inactive badges are never eligible.
	Active bool

	// Hidden - hidden badges are awardable but excluded from recommendations.
	Hidden bool

	// CourseScoped - the badge may be earned once per originating course.
	CourseScoped bool
}

// InWindow reports whether the badge is available at the given time. A nil
// bound is open-ended.
func (b *Badge) InWindow(at time.Time) bool {
	if b.AvailableFrom != nil && at.Before(*b.AvailableFrom) {
		return false
	}
	if b.AvailableUntil != nil && !at.Before(*b.AvailableUntil) {
		return false
	}
	return true
}
