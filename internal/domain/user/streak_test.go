package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

func TestStreak_FirstActivity(t *testing.T) {
	var streak Streak

	change := streak.Record(day("2026-03-01"))

	assert.True(t, change.Extended)
	assert.False(t, change.Broken)
	assert.Equal(t, 1, streak.Current)
	assert.Equal(t, 1, streak.Longest)
}

func TestStreak_ConsecutiveDays(t *testing.T) {
	var streak Streak

	streak.Record(day("2026-03-01"))
	change := streak.Record(day("2026-03-02"))

	assert.True(t, change.Extended)
	assert.Equal(t, 2, streak.Current)
	assert.Equal(t, 2, streak.Longest)

	streak.Record(day("2026-03-03"))
	assert.Equal(t, 3, streak.Current)
}

func TestStreak_SameDayIsNoOp(t *testing.T) {
	var streak Streak

	streak.Record(day("2026-03-01"))
	change := streak.Record(day("2026-03-01"))

	assert.False(t, change.Extended)
	assert.False(t, change.Broken)
	assert.Equal(t, 1, streak.Current)
}

func TestStreak_GapResets(t *testing.T) {
	var streak Streak

	streak.Record(day("2026-03-01"))
	streak.Record(day("2026-03-02"))
	streak.Record(day("2026-03-03"))

	change := streak.Record(day("2026-03-07"))

	assert.True(t, change.Broken)
	assert.False(t, change.Extended)
	assert.Equal(t, 3, change.Previous)
	assert.Equal(t, 1, streak.Current)

	// Longest survives the reset.
	assert.Equal(t, 3, streak.Longest)
}

func TestStreak_LongestFollowsNewRecord(t *testing.T) {
	var streak Streak

	streak.Record(day("2026-03-01"))
	streak.Record(day("2026-03-02"))
	streak.Record(day("2026-03-05"))
	streak.Record(day("2026-03-06"))
	streak.Record(day("2026-03-07"))
	streak.Record(day("2026-03-08"))

	assert.Equal(t, 4, streak.Current)
	assert.Equal(t, 4, streak.Longest)
}
