package badge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/user"
)

var checkTime = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func fixedChecker(resolve Resolver) *Checker {
	return NewChecker(resolve).WithClock(func() time.Time { return checkTime })
}

func activeBadge(id string) *Badge {
	return &Badge{
		ID:     id,
		Name:   id,
		Rarity: RarityCommon,
		Active: true,
	}
}

func TestChecker_ShortCircuitOrder(t *testing.T) {
	state := user.NewProgressState("user1")
	checker := fixedChecker(nil)

	// Inactive wins over everything.
	b := activeBadge("b1")
	b.Active = false
	until := checkTime.Add(-time.Hour)
	b.AvailableUntil = &until
	assert.Equal(t, "badge is not active", checker.Check(b, state, "").Reason)

	// Window next.
	b = activeBadge("b1")
	b.AvailableUntil = &until
	b.Prerequisites = []string{"missing"}
	assert.Equal(t, "badge is outside its availability window", checker.Check(b, state, "").Reason)

	// Prerequisites before already-earned.
	b = activeBadge("b1")
	b.Prerequisites = []string{"missing"}
	state.GrantBadge("b1", "", checkTime)
	result := checker.Check(b, state, "")
	assert.Contains(t, result.Reason, "missing prerequisite badge missing")

	// Already-earned before criteria.
	b = activeBadge("b1")
	b.Criteria = []Criterion{XPThreshold{Minimum: 99999}}
	assert.Equal(t, "already earned", checker.Check(b, state, "").Reason)
}

func TestChecker_AvailabilityWindow(t *testing.T) {
	state := user.NewProgressState("user1")
	checker := fixedChecker(nil)

	b := activeBadge("seasonal")
	from := checkTime.Add(-time.Hour)
	until := checkTime.Add(time.Hour)
	b.AvailableFrom = &from
	b.AvailableUntil = &until
	assert.True(t, checker.Check(b, state, "").Eligible)

	future := checkTime.Add(time.Hour)
	b.AvailableFrom = &future
	assert.False(t, checker.Check(b, state, "").Eligible)
}

func TestChecker_CriteriaShortCircuit(t *testing.T) {
	state := user.NewProgressState("user1")
	state.CurrentXP = 500
	checker := fixedChecker(nil)

	b := activeBadge("grind")
	b.Criteria = []Criterion{
		XPThreshold{Minimum: 1000},
		GigCompletion{Count: 50},
	}

	result := checker.Check(b, state, "")
	assert.False(t, result.Eligible)

	// The first unmet criterion carries the reported progress.
	assert.Contains(t, result.Reason, "500 of 1000 XP")
	assert.Equal(t, 50.0, result.Progress)
}

func TestChecker_TransitivePrerequisites(t *testing.T) {
	state := user.NewProgressState("user1")

	root := activeBadge("root")
	mid := activeBadge("mid")
	mid.Prerequisites = []string{"root"}
	top := activeBadge("top")
	top.Prerequisites = []string{"mid"}

	defs := map[string]*Badge{"root": root, "mid": mid, "top": top}
	checker := fixedChecker(func(id string) (*Badge, bool) {
		b, ok := defs[id]
		return b, ok
	})

	result := checker.Check(top, state, "")
	assert.False(t, result.Eligible)
	assert.Contains(t, result.Reason, "mid")

	state.GrantBadge("root", "", checkTime)
	state.GrantBadge("mid", "", checkTime)
	assert.True(t, checker.Check(top, state, "").Eligible)
}

func TestChecker_CyclicPrerequisitesTerminate(t *testing.T) {
	state := user.NewProgressState("user1")

	a := activeBadge("a")
	a.Prerequisites = []string{"b"}
	b := activeBadge("b")
	b.Prerequisites = []string{"a"}

	defs := map[string]*Badge{"a": a, "b": b}
	checker := fixedChecker(func(id string) (*Badge, bool) {
		def, ok := defs[id]
		return def, ok
	})

	result := checker.Check(a, state, "")
	assert.False(t, result.Eligible)
}

func TestChecker_CourseScopedEarnedCheck(t *testing.T) {
	state := user.NewProgressState("user1")
	checker := fixedChecker(nil)

	b := activeBadge("course-ace")
	b.CourseScoped = true

	state.GrantBadge("course-ace", "go-101", checkTime)

	assert.False(t, checker.Check(b, state, "go-101").Eligible)
	assert.True(t, checker.Check(b, state, "go-102").Eligible)
}

func TestRankRecommendations(t *testing.T) {
	almost := &Badge{ID: "almost", Name: "Almost There", Rarity: RarityEpic}
	commonTie := &Badge{ID: "common-tie", Name: "Beta", Rarity: RarityCommon}
	rareTie := &Badge{ID: "rare-tie", Name: "Alpha", Rarity: RarityRare}
	nameTieA := &Badge{ID: "name-a", Name: "Aardvark", Rarity: RarityCommon}

	recs := []Recommendation{
		{Badge: rareTie, Progress: 50},
		{Badge: almost, Progress: 90},
		{Badge: commonTie, Progress: 50},
		{Badge: nameTieA, Progress: 50},
	}

	ranked := RankRecommendations(recs, 0)

	// Progress first, then commoner rarity, then name.
	assert.Equal(t, "almost", ranked[0].Badge.ID)
	assert.Equal(t, "name-a", ranked[1].Badge.ID)
	assert.Equal(t, "common-tie", ranked[2].Badge.ID)
	assert.Equal(t, "rare-tie", ranked[3].Badge.ID)
}

func TestRankRecommendations_Limit(t *testing.T) {
	recs := []Recommendation{
		{Badge: activeBadge("a"), Progress: 10},
		{Badge: activeBadge("b"), Progress: 90},
		{Badge: activeBadge("c"), Progress: 50},
	}

	ranked := RankRecommendations(recs, 2)
	assert.Len(t, ranked, 2)
	assert.Equal(t, "b", ranked[0].Badge.ID)
	assert.Equal(t, "c", ranked[1].Badge.ID)
}
