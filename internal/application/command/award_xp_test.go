package command

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/shared"
	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/user"
)

// ─────────────────────────────────────────────────────────────────────────────
// Test doubles
// ─────────────────────────────────────────────────────────────────────────────

type fakeUserRepo struct {
	mu      sync.Mutex
	states  map[string]user.ProgressState
	history []user.XPHistoryEntry
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{states: make(map[string]user.ProgressState)}
}

func (r *fakeUserRepo) Create(_ context.Context, state *user.ProgressState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.states[state.UserID]; ok {
		return shared.Conflictf("progression", "Create", "state exists")
	}
	r.states[state.UserID] = *state
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, userID string) (*user.ProgressState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.states[userID]
	if !ok {
		return nil, shared.NewDomainError("progression", "GetByID",
			shared.ErrNotFound, "no state for "+userID)
	}
	copied := state
	return &copied, nil
}

func (r *fakeUserRepo) Update(_ context.Context, state *user.ProgressState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.states[state.UserID]
	if !ok || stored.Version != state.Version {
		return shared.NewDomainError("progression", "Update",
			shared.ErrOptimisticLock, "version moved")
	}
	state.Version++
	r.states[state.UserID] = *state
	return nil
}

func (r *fakeUserRepo) AppendXPHistory(_ context.Context, entry user.XPHistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append(r.history, entry)
	return nil
}

func (r *fakeUserRepo) GetXPHistory(_ context.Context, userID string, limit int) ([]user.XPHistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var entries []user.XPHistoryEntry
	for i := len(r.history) - 1; i >= 0 && len(entries) < limit; i-- {
		if r.history[i].UserID == userID {
			entries = append(entries, r.history[i])
		}
	}
	return entries, nil
}

type fakeLeaderboard struct {
	mu     sync.Mutex
	scores map[string]user.XP
}

func newFakeLeaderboard() *fakeLeaderboard {
	return &fakeLeaderboard{scores: make(map[string]user.XP)}
}

func (l *fakeLeaderboard) UpdateScore(_ context.Context, userID string, xp user.XP) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.scores[userID] = xp
	return nil
}

func (l *fakeLeaderboard) Top(_ context.Context, _ int) ([]user.LeaderboardEntry, error) {
	return nil, nil
}

func (l *fakeLeaderboard) Rank(_ context.Context, _ string) (int64, error) {
	return 0, nil
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *capturingPublisher) Publish(event shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) types() []shared.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	var types []shared.EventType
	for _, e := range p.events {
		types = append(types, e.EventType())
	}
	return types
}

func newAwardXPFixture() (*AwardXPHandler, *fakeUserRepo, *fakeLeaderboard, *capturingPublisher) {
	repo := newFakeUserRepo()
	board := newFakeLeaderboard()
	publisher := &capturingPublisher{}
	handler := NewAwardXPHandler(repo, board, publisher, NewUserLocks(), slog.Default())
	return handler, repo, board, publisher
}

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

func TestAwardXP_BootstrapsUnknownUser(t *testing.T) {
	handler, repo, board, _ := newAwardXPFixture()

	result, err := handler.Handle(context.Background(), AwardXPCommand{
		UserID: "newcomer",
		Amount: 100,
		Reason: ReasonModuleCompletion,
	})
	require.NoError(t, err)

	assert.Equal(t, 100, result.NewXP)
	assert.Equal(t, 1, result.NewLevel)
	assert.False(t, result.LeveledUp)
	assert.Equal(t, 1, result.CurrentStreak)

	stored, err := repo.GetByID(context.Background(), "newcomer")
	require.NoError(t, err)
	assert.Equal(t, user.XP(100), stored.CurrentXP)
	assert.Equal(t, user.XP(100), board.scores["newcomer"])
	require.Len(t, repo.history, 1)
	assert.Equal(t, ReasonModuleCompletion, repo.history[0].Reason)
}

func TestAwardXP_LevelUpEvent(t *testing.T) {
	handler, _, _, publisher := newAwardXPFixture()
	ctx := context.Background()

	_, err := handler.Handle(ctx, AwardXPCommand{
		UserID: "user1", Amount: 950, Reason: ReasonModuleCompletion,
	})
	require.NoError(t, err)

	result, err := handler.Handle(ctx, AwardXPCommand{
		UserID: "user1", Amount: 100, Reason: ReasonQuizAttempt,
	})
	require.NoError(t, err)

	assert.True(t, result.LeveledUp)
	assert.Equal(t, 2, result.NewLevel)
	assert.Contains(t, publisher.types(), shared.EventLevelUp)
}

func TestAwardXP_StreakOnlyForActivityReasons(t *testing.T) {
	handler, repo, _, _ := newAwardXPFixture()
	ctx := context.Background()

	result, err := handler.Handle(ctx, AwardXPCommand{
		UserID: "user1", Amount: 50, Reason: ReasonBadgeReward,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.CurrentStreak)

	result, err = handler.Handle(ctx, AwardXPCommand{
		UserID: "user1", Amount: 50, Reason: ReasonGigAcceptance,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.CurrentStreak)

	result, err = handler.Handle(ctx, AwardXPCommand{
		UserID: "user1", Amount: 50, Reason: ReasonModuleCompletion,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.CurrentStreak)

	stored, _ := repo.GetByID(ctx, "user1")
	assert.Equal(t, user.XP(150), stored.CurrentXP)
}

func TestAwardXP_StreakBrokenAfterGap(t *testing.T) {
	handler, _, _, publisher := newAwardXPFixture()
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := handler.Handle(ctx, AwardXPCommand{
			UserID:     "user1",
			Amount:     10,
			Reason:     ReasonModuleCompletion,
			OccurredAt: base.AddDate(0, 0, i),
		})
		require.NoError(t, err)
	}

	result, err := handler.Handle(ctx, AwardXPCommand{
		UserID:     "user1",
		Amount:     10,
		Reason:     ReasonModuleCompletion,
		OccurredAt: base.AddDate(0, 0, 6),
	})
	require.NoError(t, err)

	assert.True(t, result.StreakBroken)
	assert.Equal(t, 1, result.CurrentStreak)
	assert.Contains(t, publisher.types(), shared.EventStreakBroken)
}

func TestAwardXP_Validation(t *testing.T) {
	handler, _, _, _ := newAwardXPFixture()
	ctx := context.Background()

	_, err := handler.Handle(ctx, AwardXPCommand{UserID: "user1", Amount: 0, Reason: ReasonQuizAttempt})
	assert.True(t, shared.IsValidation(err))

	_, err = handler.Handle(ctx, AwardXPCommand{UserID: "", Amount: 10, Reason: ReasonQuizAttempt})
	assert.True(t, shared.IsValidation(err))

	_, err = handler.Handle(ctx, AwardXPCommand{UserID: "user1", Amount: 10, Reason: ""})
	assert.True(t, shared.IsValidation(err))
}

func TestAwardXP_ZeroAmountCourseCompletion(t *testing.T) {
	handler, repo, _, publisher := newAwardXPFixture()
	ctx := context.Background()

	// Courses without an XP reward still need the completion flag recorded.
	result, err := handler.Handle(ctx, AwardXPCommand{
		UserID:            "user1",
		Amount:            0,
		Reason:            ReasonCourseCompletion,
		CompletedCourseID: "free-course",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.NewXP)

	stored, _ := repo.GetByID(ctx, "user1")
	assert.True(t, stored.HasCompletedCourse("free-course"))

	// No XP means no xp_awarded event, but the completion still announces.
	types := publisher.types()
	assert.NotContains(t, types, shared.EventXPAwarded)
	assert.Contains(t, types, shared.EventCourseCompleted)
	assert.Empty(t, repo.history)
}

func TestAwardXP_GigCompletionEffect(t *testing.T) {
	handler, repo, _, _ := newAwardXPFixture()
	ctx := context.Background()

	_, err := handler.Handle(ctx, AwardXPCommand{
		UserID:       "worker1",
		Amount:       500,
		Reason:       ReasonGigCompletion,
		GigCompleted: &GigCompletionEffect{ClientRating: 4},
	})
	require.NoError(t, err)

	stored, _ := repo.GetByID(ctx, "worker1")
	assert.Equal(t, 1, stored.GigsCompleted)
	assert.InDelta(t, 4.0, stored.Rating.Average, 0.001)
	assert.Equal(t, 1, stored.Streak.Current)
}
