package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/shared"
)

func TestLevelForXP(t *testing.T) {
	assert.Equal(t, Level(1), LevelForXP(0))
	assert.Equal(t, Level(1), LevelForXP(999))
	assert.Equal(t, Level(2), LevelForXP(1000))
	assert.Equal(t, Level(2), LevelForXP(1999))
	assert.Equal(t, Level(3), LevelForXP(2000))
	assert.Equal(t, Level(11), LevelForXP(10500))

	// Negative XP never occurs through AddXP, but the derivation stays sane.
	assert.Equal(t, Level(1), LevelForXP(-50))
}

func TestNextLevelXP(t *testing.T) {
	assert.Equal(t, XP(1000), NextLevelXP(0))
	assert.Equal(t, XP(1000), NextLevelXP(999))
	assert.Equal(t, XP(2000), NextLevelXP(1000))
	assert.Equal(t, XP(3000), NextLevelXP(2500))
}

func TestProgressState_AddXP(t *testing.T) {
	state := NewProgressState("user1")

	res, err := state.AddXP(400)
	assert.NoError(t, err)
	assert.Equal(t, XP(400), res.NewXP)
	assert.Equal(t, Level(1), res.NewLevel)
	assert.False(t, res.LeveledUp)

	res, err = state.AddXP(700)
	assert.NoError(t, err)
	assert.Equal(t, XP(1100), res.NewXP)
	assert.Equal(t, Level(2), res.NewLevel)
	assert.True(t, res.LeveledUp)
}

func TestProgressState_AddXP_RejectsNonPositive(t *testing.T) {
	state := NewProgressState("user1")

	_, err := state.AddXP(0)
	assert.Error(t, err)
	assert.True(t, shared.IsValidation(err))

	_, err = state.AddXP(-10)
	assert.Error(t, err)
	assert.Equal(t, XP(0), state.CurrentXP)
}

func TestProgressState_GrantBadge_Idempotent(t *testing.T) {
	state := NewProgressState("user1")
	now := time.Now().UTC()

	assert.True(t, state.GrantBadge("first-steps", "", now))
	assert.False(t, state.GrantBadge("first-steps", "", now))
	assert.Len(t, state.BadgesEarned, 1)

	// A course-scoped award is distinct per originating course.
	assert.True(t, state.GrantBadge("course-ace", "go-101", now))
	assert.True(t, state.GrantBadge("course-ace", "go-102", now))
	assert.False(t, state.GrantBadge("course-ace", "go-101", now))
	assert.Len(t, state.BadgesEarned, 3)

	assert.True(t, state.HasBadge("course-ace", "go-101"))
	assert.False(t, state.HasBadge("course-ace", "go-103"))
	assert.True(t, state.HasBadgeID("course-ace"))
	assert.False(t, state.HasBadgeID("unknown"))
}

func TestProgressState_MarkCourseCompleted(t *testing.T) {
	state := NewProgressState("user1")

	state.MarkCourseCompleted("go-101")
	state.MarkCourseCompleted("go-101")
	state.MarkCourseCompleted("go-102")

	assert.Equal(t, []string{"go-101", "go-102"}, state.CompletedCourses)
	assert.True(t, state.HasCompletedCourse("go-101"))
	assert.False(t, state.HasCompletedCourse("go-103"))
}

func TestProgressState_RecordGigCompletion(t *testing.T) {
	state := NewProgressState("worker1")

	assert.NoError(t, state.RecordGigCompletion(4))
	assert.Equal(t, 1, state.GigsCompleted)
	assert.InDelta(t, 4.0, state.Rating.Average, 0.001)

	assert.NoError(t, state.RecordGigCompletion(5))
	assert.Equal(t, 2, state.GigsCompleted)
	assert.InDelta(t, 4.5, state.Rating.Average, 0.001)
	assert.Equal(t, 2, state.Rating.Count)
}

func TestProgressState_RecordGigCompletion_RejectsOutOfRange(t *testing.T) {
	state := NewProgressState("worker1")

	assert.Error(t, state.RecordGigCompletion(0))
	assert.Error(t, state.RecordGigCompletion(6))
	assert.Equal(t, 0, state.GigsCompleted)
}

func TestProgressState_SkillLevel(t *testing.T) {
	state := NewProgressState("user1")
	state.Skills = []Skill{
		{Name: "plumbing", Level: shared.SkillIntermediate, Verified: true},
	}

	level, ok := state.SkillLevel("plumbing")
	assert.True(t, ok)
	assert.Equal(t, shared.SkillIntermediate, level)

	_, ok = state.SkillLevel("welding")
	assert.False(t, ok)
}
