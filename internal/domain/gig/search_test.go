package gig

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/shared"
)

func candidate(id, title string, priority int, createdAt time.Time) *Gig {
	return &Gig{
		ID:        id,
		ClientID:  "client1",
		Title:     title,
		Category:  "plumbing",
		Location:  shared.GeoPoint{Longitude: 76.95, Latitude: 43.25},
		Budget:    shared.BudgetRange{Min: 1000, Max: 2000},
		Priority:  priority,
		Status:    StatusPosted,
		ExpiresAt: testNow.Add(24 * time.Hour),
		CreatedAt: createdAt,
	}
}

func TestSearchFilters_Matches(t *testing.T) {
	g := candidate("gig1", "Fix sink", 0, testNow)
	g.SkillsRequired = []string{"Plumbing", "Soldering"}
	g.ExperienceLevel = shared.SkillIntermediate

	now := testNow

	assert.True(t, SearchFilters{}.Matches(g, now))
	assert.True(t, SearchFilters{Category: "PLUMBING"}.Matches(g, now))
	assert.False(t, SearchFilters{Category: "electrical"}.Matches(g, now))

	assert.True(t, SearchFilters{Skills: []string{"plumbing"}}.Matches(g, now))
	assert.False(t, SearchFilters{Skills: []string{"plumbing", "welding"}}.Matches(g, now))

	assert.False(t, SearchFilters{RemoteOnly: true}.Matches(g, now))
	g.Remote = true
	assert.True(t, SearchFilters{RemoteOnly: true}.Matches(g, now))

	// The searcher's experience level must meet the gig's requirement.
	assert.True(t, SearchFilters{ExperienceLevel: shared.SkillAdvanced}.Matches(g, now))
	assert.False(t, SearchFilters{ExperienceLevel: shared.SkillBeginner}.Matches(g, now))

	budget := shared.BudgetRange{Min: 1500, Max: 3000}
	assert.True(t, SearchFilters{Budget: &budget}.Matches(g, now))
	disjoint := shared.BudgetRange{Min: 5000, Max: 9000}
	assert.False(t, SearchFilters{Budget: &disjoint}.Matches(g, now))
}

func TestSearchFilters_MatchesDropsStaleCandidates(t *testing.T) {
	g := candidate("gig1", "Fix sink", 0, testNow)

	g.Status = StatusCancelled
	assert.False(t, SearchFilters{}.Matches(g, testNow))

	g.Status = StatusPosted
	assert.False(t, SearchFilters{}.Matches(g, g.ExpiresAt))
}

func TestRank_PriorityThenNewest(t *testing.T) {
	matches := []Match{
		{Gig: candidate("old-boosted", "A", 5, testNow.Add(-2*time.Hour))},
		{Gig: candidate("newest", "B", 0, testNow)},
		{Gig: candidate("new-boosted", "C", 5, testNow.Add(-time.Hour))},
	}

	Rank(matches, false)

	assert.Equal(t, "new-boosted", matches[0].Gig.ID)
	assert.Equal(t, "old-boosted", matches[1].Gig.ID)
	assert.Equal(t, "newest", matches[2].Gig.ID)
}

func TestFilterAndRank_RelevanceOrdering(t *testing.T) {
	titleHit := candidate("title-hit", "Urgent sink repair", 0, testNow.Add(-time.Hour))
	titleHit.Description = "Kitchen job"

	bothHits := candidate("both-hits", "Sink repair", 0, testNow.Add(-2*time.Hour))
	bothHits.Description = "Replace the sink trap"

	descHit := candidate("desc-hit", "Kitchen job", 9, testNow)
	descHit.Description = "The sink is blocked"

	noHit := candidate("no-hit", "Paint fence", 9, testNow)

	origin := shared.GeoPoint{Longitude: 76.95, Latitude: 43.25}
	filters := SearchFilters{Query: "sink"}
	matches := filters.FilterAndRank([]*Gig{titleHit, bothHits, descHit, noHit}, origin, testNow)

	// Title hits score 3, description hits 1; priority never outranks
	// relevance on a query search, and non-matching gigs drop out.
	assert.Len(t, matches, 3)
	assert.Equal(t, "both-hits", matches[0].Gig.ID)
	assert.Equal(t, 4, matches[0].Relevance)
	assert.Equal(t, "title-hit", matches[1].Gig.ID)
	assert.Equal(t, 3, matches[1].Relevance)
	assert.Equal(t, "desc-hit", matches[2].Gig.ID)
	assert.Equal(t, 1, matches[2].Relevance)
}

func TestFilterAndRank_ComputesDisplayDistance(t *testing.T) {
	g := candidate("gig1", "Fix sink", 0, testNow)
	g.Location = shared.GeoPoint{Longitude: 76.95, Latitude: 43.30}

	origin := shared.GeoPoint{Longitude: 76.95, Latitude: 43.25}
	matches := SearchFilters{}.FilterAndRank([]*Gig{g}, origin, testNow)

	assert.Len(t, matches, 1)
	assert.InDelta(t, 5.56, matches[0].DistanceKm, 0.1)
}
