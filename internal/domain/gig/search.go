package gig

import (
	"sort"
	"strings"
	"time"

	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SEARCH
// The storage layer's geospatial index narrows candidates by radius; these
// filters and the ranking run in memory on the narrowed set.
// ══════════════════════════════════════════════════════════════════════════════

// SearchFilters narrows a nearby-candidate set.
type SearchFilters struct {
	Category        string
	Skills          []string
	Budget          *shared.BudgetRange
	ExperienceLevel shared.SkillLevel
	RemoteOnly      bool

	// Query - free-text search over title and description. When present the
	// ranking switches to relevance.
	Query string
}

// Match pairs a gig with its display distance from the search origin.
type Match struct {
	Gig *Gig

	// DistanceKm - haversine distance in kilometres, two decimals, display
	// only.
	DistanceKm float64

	// Relevance - free-text score, populated only for query searches.
	Relevance int
}

// Matches reports whether the gig passes every set filter. Candidates must
// already be posted and unexpired; the storage query guarantees that, and
// the check here keeps stale reads out.
func (f SearchFilters) Matches(g *Gig, now time.Time) bool {
	if g.Status != StatusPosted || !now.Before(g.ExpiresAt) {
		return false
	}
	if f.Category != "" && !strings.EqualFold(f.Category, g.Category) {
		return false
	}
	if f.RemoteOnly && !g.Remote {
		return false
	}
	if f.Budget != nil && !f.Budget.Overlaps(g.Budget) {
		return false
	}
	if f.ExperienceLevel != "" && !f.ExperienceLevel.AtLeast(g.ExperienceLevel) {
		return false
	}
	for _, skill := range f.Skills {
		if !hasSkill(g.SkillsRequired, skill) {
			return false
		}
	}
	if f.Query != "" && relevance(g, f.Query) == 0 {
		return false
	}
	return true
}

func hasSkill(required []string, skill string) bool {
	for _, s := range required {
		if strings.EqualFold(s, skill) {
			return true
		}
	}
	return false
}

// relevance is a coarse text score: title hits weigh more than description
// hits, per matched query term.
func relevance(g *Gig, query string) int {
	title := strings.ToLower(g.Title)
	description := strings.ToLower(g.Description)

	score := 0
	for _, term := range strings.Fields(strings.ToLower(query)) {
		if strings.Contains(title, term) {
			score += 3
		}
		if strings.Contains(description, term) {
			score++
		}
	}
	return score
}

// Rank orders matches for presentation: relevance descending when a text
// query is present, otherwise priority descending, then newest first.
// Distance never participates in the ordering.
func Rank(matches []Match, byRelevance bool) {
	sort.SliceStable(matches, func(i, j int) bool {
		if byRelevance && matches[i].Relevance != matches[j].Relevance {
			return matches[i].Relevance > matches[j].Relevance
		}
		if matches[i].Gig.Priority != matches[j].Gig.Priority {
			return matches[i].Gig.Priority > matches[j].Gig.Priority
		}
		return matches[i].Gig.CreatedAt.After(matches[j].Gig.CreatedAt)
	})
}

// FilterAndRank applies the filters against the candidate set, computes
// display distances from origin, and ranks the result.
func (f SearchFilters) FilterAndRank(candidates []*Gig, origin shared.GeoPoint, now time.Time) []Match {
	matches := make([]Match, 0, len(candidates))
	for _, g := range candidates {
		if !f.Matches(g, now) {
			continue
		}
		m := Match{
			Gig:        g,
			DistanceKm: origin.DistanceKm(g.Location),
		}
		if f.Query != "" {
			m.Relevance = relevance(g, f.Query)
		}
		matches = append(matches, m)
	}
	Rank(matches, f.Query != "")
	return matches
}
