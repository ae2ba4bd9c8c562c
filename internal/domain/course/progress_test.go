package course

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/shared"
)

func fourModuleCourse() *Course {
	return &Course{
		ID:    "go-101",
		Title: "Go Basics",
		Skill: "go",
		Modules: []Module{
			{ID: "m1", Title: "Intro", Order: 1, XPReward: 50},
			{ID: "m2", Title: "Types", Order: 2, XPReward: 50},
			{ID: "m3", Title: "Functions", Order: 3, XPReward: 50},
			{ID: "m4", Title: "Packages", Order: 4, XPReward: 50},
		},
		XPReward: 500,
	}
}

func completeModule(t *testing.T, p *Progress, c *Course, moduleID string) CompletionChange {
	t.Helper()
	change, err := p.UpdateModule(c, moduleID, ModuleUpdate{Status: ModuleCompleted})
	assert.NoError(t, err)
	return change
}

func TestProgress_PercentageSequence(t *testing.T) {
	c := fourModuleCourse()
	p := NewProgress("user1", c.ID)

	assert.Equal(t, StatusNotStarted, p.Status)

	completeModule(t, p, c, "m1")
	assert.Equal(t, 25, p.Percentage)
	assert.Equal(t, StatusInProgress, p.Status)

	completeModule(t, p, c, "m2")
	assert.Equal(t, 50, p.Percentage)

	completeModule(t, p, c, "m3")
	assert.Equal(t, 75, p.Percentage)

	change := completeModule(t, p, c, "m4")
	assert.Equal(t, 100, p.Percentage)
	assert.Equal(t, StatusCompleted, p.Status)
	assert.True(t, change.JustCompleted)
	assert.NotNil(t, p.CompletedAt)
}

func TestProgress_CompletionFiresOnce(t *testing.T) {
	c := fourModuleCourse()
	p := NewProgress("user1", c.ID)

	for _, id := range []string{"m1", "m2", "m3"} {
		completeModule(t, p, c, id)
	}
	change := completeModule(t, p, c, "m4")
	assert.True(t, change.JustCompleted)
	completedAt := *p.CompletedAt

	// Re-touching a module on a completed record must not re-fire completion.
	change, err := p.UpdateModule(c, "m1", ModuleUpdate{Status: ModuleCompleted, TimeSpent: time.Minute})
	assert.NoError(t, err)
	assert.False(t, change.JustCompleted)
	assert.False(t, change.ModuleDone)
	assert.Equal(t, completedAt, *p.CompletedAt)
}

func TestProgress_DowngradeAndRecompleteDoesNotRefire(t *testing.T) {
	c := fourModuleCourse()
	p := NewProgress("user1", c.ID)

	for _, id := range []string{"m1", "m2", "m3", "m4"} {
		completeModule(t, p, c, id)
	}
	completedAt := *p.CompletedAt

	// Downgrading a module drops the record out of completed.
	change, err := p.UpdateModule(c, "m2", ModuleUpdate{Status: ModuleInProgress})
	assert.NoError(t, err)
	assert.False(t, change.JustCompleted)
	assert.Equal(t, 75, p.Percentage)
	assert.Equal(t, StatusInProgress, p.Status)

	// Re-completing it restores the status but must not re-fire completion.
	change = completeModule(t, p, c, "m2")
	assert.Equal(t, 100, p.Percentage)
	assert.Equal(t, StatusCompleted, p.Status)
	assert.False(t, change.JustCompleted)
	assert.False(t, change.ModuleDone)
	assert.Equal(t, completedAt, *p.CompletedAt)
}

func TestProgress_ModuleUpsert(t *testing.T) {
	c := fourModuleCourse()
	p := NewProgress("user1", c.ID)

	change, err := p.UpdateModule(c, "m1", ModuleUpdate{Status: ModuleInProgress, TimeSpent: 10 * time.Minute})
	assert.NoError(t, err)
	assert.False(t, change.ModuleDone)

	entry := p.Modules["m1"]
	assert.Equal(t, ModuleInProgress, entry.Status)
	assert.Equal(t, 10*time.Minute, entry.TimeSpent)
	assert.NotNil(t, entry.StartedAt)
	assert.Nil(t, entry.CompletedAt)
	started := *entry.StartedAt

	change, err = p.UpdateModule(c, "m1", ModuleUpdate{Status: ModuleCompleted, TimeSpent: 5 * time.Minute})
	assert.NoError(t, err)
	assert.True(t, change.ModuleDone)

	// Time accumulates, StartedAt is sticky, at most one entry per module.
	assert.Equal(t, 15*time.Minute, entry.TimeSpent)
	assert.Equal(t, started, *entry.StartedAt)
	assert.NotNil(t, entry.CompletedAt)
	assert.Len(t, p.Modules, 1)
}

func TestProgress_UpdateModuleErrors(t *testing.T) {
	c := fourModuleCourse()
	p := NewProgress("user1", c.ID)

	_, err := p.UpdateModule(c, "nope", ModuleUpdate{Status: ModuleCompleted})
	assert.True(t, shared.IsNotFound(err))

	_, err = p.UpdateModule(c, "m1", ModuleUpdate{Status: "finished"})
	assert.True(t, shared.IsValidation(err))

	assert.NoError(t, p.Abandon())
	_, err = p.UpdateModule(c, "m1", ModuleUpdate{Status: ModuleCompleted})
	assert.True(t, shared.IsInvalidState(err))
}

func TestProgress_QuizWeighting(t *testing.T) {
	c := fourModuleCourse()
	c.Quiz = &Quiz{
		Questions: []Question{
			{ID: "q1", Type: QuestionTrueFalse, Points: 1,
				Options: []Option{{Text: "true", IsCorrect: true}, {Text: "false"}}},
		},
		XPReward: 100,
	}
	p := NewProgress("user1", c.ID)

	// Modules alone cap at 80 when the course carries a quiz.
	for _, id := range []string{"m1", "m2", "m3", "m4"} {
		completeModule(t, p, c, id)
	}
	assert.Equal(t, 80, p.Percentage)
	assert.Equal(t, StatusInProgress, p.Status)

	result, err := p.RecordQuizAttempt(c, map[string]string{"q1": "true"}, time.Minute)
	assert.NoError(t, err)
	assert.True(t, result.Passed)
	assert.True(t, result.JustCompleted)
	assert.Equal(t, 100, p.Percentage)
	assert.Equal(t, StatusCompleted, p.Status)
}

func TestProgress_Abandon(t *testing.T) {
	c := fourModuleCourse()

	p := NewProgress("user1", c.ID)
	assert.NoError(t, p.Abandon())
	assert.Equal(t, StatusAbandoned, p.Status)
	assert.True(t, shared.IsInvalidState(p.Abandon()))

	done := NewProgress("user2", c.ID)
	for _, id := range []string{"m1", "m2", "m3", "m4"} {
		completeModule(t, done, c, id)
	}
	assert.True(t, shared.IsInvalidState(done.Abandon()))
}
